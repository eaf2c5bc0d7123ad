package workflow

import (
	"fmt"

	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/event"
)

// Merge moves every element of donor into recipient, keeping their links,
// and links attach to the former donor root. attach may be nil, in which
// case the donor subgraph is moved unattached. Nothing moves when a check
// fails.
func Merge(recipient, donor *Workflow, attach *Element) error {
	if recipient == nil || donor == nil {
		return errors.WrapInvalid(
			fmt.Errorf("nil workflow: %w", errors.ErrInvalidConfig), "Workflow", "Merge", "argument validation")
	}
	if recipient == donor {
		return errors.WrapInvalid(
			fmt.Errorf("%s into itself: %w", donor.name, errors.ErrInvalidConfig), "Workflow", "Merge", "argument validation")
	}
	if attach != nil && !recipient.owns(attach) {
		return errors.WrapInvalid(
			fmt.Errorf("%s: %w", attach.id, errors.ErrForeignElement), "Workflow", "Merge", "attach point check")
	}
	root := donor.root
	if root == nil {
		return errors.WrapInvalid(
			fmt.Errorf("donor %s: %w", donor.name, errors.ErrNoRoot), "Workflow", "Merge", "donor root check")
	}
	for _, e := range donor.order {
		if recipient.Contains(e.id) {
			return errors.WrapInvalid(
				fmt.Errorf("%s: %w", e.id, errors.ErrDuplicateElement), "Workflow", "Merge", "id collision check")
		}
	}

	for _, e := range donor.Elements() {
		donor.detach(e)
		donor.fire(event.WorkflowEvent{Type: event.WorkflowRemove, Source: e.id})
		recipient.attach(e)
		recipient.fire(event.WorkflowEvent{Type: event.WorkflowAdd, Source: e.id})
	}

	if attach == nil {
		return nil
	}
	_, err := recipient.Link(attach, root)
	return err
}
