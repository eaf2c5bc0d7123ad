package workflow

import "github.com/c360/flowkit/errors"

// Link is a directed edge between two elements. A pending link knows its
// target only by name until the workflow resolves it; resolution is permanent.
type Link struct {
	from       *Element
	to         *Element
	targetName string
	wired      bool
}

// ID is "<from>-<target>", using the pending target name until resolution
func (l *Link) ID() string {
	return l.from.id + "-" + l.TargetID()
}

// From returns the source element
func (l *Link) From() *Element { return l.from }

// To returns the target element, or nil while pending
func (l *Link) To() *Element { return l.to }

// TargetID returns the target id, or the pending target name
func (l *Link) TargetID() string {
	if l.to != nil {
		return l.to.id
	}
	return l.targetName
}

// Pending reports whether the target is still unresolved
func (l *Link) Pending() bool { return l.to == nil }

// Wired reports whether the stage pads are connected
func (l *Link) Wired() bool { return l.wired }

// wire connects the pads when both elements have stages
func (l *Link) wire() error {
	if l.wired || l.to == nil || l.from.stage == nil || l.to.stage == nil {
		return nil
	}
	if err := l.from.stage.OutPad().Add(l.to.stage.InPad()); err != nil {
		return errors.Wrap(err, "Link", "wire", "pad connection")
	}
	l.wired = true
	return nil
}

func (l *Link) unwire() error {
	if !l.wired {
		return nil
	}
	if err := l.from.stage.OutPad().Remove(l.to.stage.InPad()); err != nil {
		return errors.Wrap(err, "Link", "unwire", "pad disconnection")
	}
	l.wired = false
	return nil
}
