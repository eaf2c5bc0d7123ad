// Package health reports whether the parts of a runtime are usable.
//
// A Status is one of three states. Healthy parts work normally, degraded
// parts work with reduced function (a NATS connection that is reconnecting),
// and unhealthy parts do not work. Aggregate folds the statuses of the parts
// into one status for the whole runtime.
package health

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// Health states
const (
	StateHealthy   = "healthy"
	StateDegraded  = "degraded"
	StateUnhealthy = "unhealthy"
)

var (
	urlRegex        = regexp.MustCompile(`[a-z][a-z0-9+.-]*://[^\s]+`)
	credentialRegex = regexp.MustCompile(`(?i)(password|token|secret)\s*[:=]\s*[^,\s}]+`)
)

// Status is the health of one part of a runtime
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

func newStatus(component, state, message string) Status {
	return Status{
		Component: component,
		Healthy:   state == StateHealthy,
		Status:    state,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy creates a healthy status
func NewHealthy(component, message string) Status {
	return newStatus(component, StateHealthy, message)
}

// NewDegraded creates a degraded status
func NewDegraded(component, message string) Status {
	return newStatus(component, StateDegraded, message)
}

// NewUnhealthy creates an unhealthy status
func NewUnhealthy(component, message string) Status {
	return newStatus(component, StateUnhealthy, message)
}

// FromError is healthy when err is nil and unhealthy otherwise. URLs and
// credentials in the error text are redacted.
func FromError(component string, err error, healthyMessage string) Status {
	if err == nil {
		return NewHealthy(component, healthyMessage)
	}
	return NewUnhealthy(component, Sanitize(err.Error()))
}

// Sanitize removes URLs and credential assignments from msg
func Sanitize(msg string) string {
	msg = urlRegex.ReplaceAllString(msg, "[URL]")
	return credentialRegex.ReplaceAllString(msg, "$1=[REDACTED]")
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool { return s.Status == StateHealthy }

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool { return s.Status == StateDegraded }

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool { return s.Status == StateUnhealthy }

// Aggregate folds subs into one status for component. Any unhealthy part
// makes the whole unhealthy; otherwise any degraded part makes it degraded.
// Sub-statuses are sorted by component name.
func Aggregate(component string, subs []Status) Status {
	var unhealthy, degraded int
	for _, sub := range subs {
		switch {
		case sub.IsUnhealthy():
			unhealthy++
		case sub.IsDegraded():
			degraded++
		}
	}

	var status Status
	switch {
	case unhealthy > 0:
		status = NewUnhealthy(component, fmt.Sprintf("%d of %d parts unhealthy", unhealthy, len(subs)))
	case degraded > 0:
		status = NewDegraded(component, fmt.Sprintf("%d of %d parts degraded", degraded, len(subs)))
	default:
		status = NewHealthy(component, "")
	}

	if len(subs) > 0 {
		status.SubStatuses = make([]Status, len(subs))
		copy(status.SubStatuses, subs)
		sort.SliceStable(status.SubStatuses, func(i, j int) bool {
			return status.SubStatuses[i].Component < status.SubStatuses[j].Component
		})
	}
	return status
}
