// Package errors provides standardized error handling for flowkit.
//
// # Overview
//
// Every error raised by the pipeline core belongs to one taxonomy. Errors are
// synchronous, typed and raised at the point of detection, and they are never
// downgraded to a default value.
//
// Three classes drive how callers react:
//
//   - Transient: connection loss, timeouts, cancelled contexts
//   - Invalid: bad input, bad topology, unknown modules, shape mismatches
//   - Fatal: broken configuration and units whose construction panics
//
// flowkit never retries on its own. The class only tells the caller what a
// retry could achieve.
//
// # Sentinels
//
// Linking errors are ErrNilEndpoint, ErrDuplicateLink, ErrLinkNotFound,
// ErrTargetNotFound and ErrCycle. Loading errors are ErrModuleNotFound,
// ErrInstantiation, ErrAccessViolation and ErrNotAModule. Validation errors
// are ErrShapeMismatch, ErrNilValue and ErrInvalidParameter.
//
// All of them stay reachable through errors.Is after wrapping:
//
//	err := wf.Link(a, b)
//	if errors.Is(err, errors.ErrCycle) {
//	    // refuse the edit
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// The classification-aware wrappers apply it:
//
//	errors.WrapInvalid(fmt.Errorf("link %s: %w", id, errors.ErrDuplicateLink),
//	    "Workflow", "Link", "duplicate link check")
//
// Processing errors returned by a stage's Process method are the exception:
// they travel up the delivery chain unmodified so callers can match them
// exactly.
package errors
