package event

import "time"

// Record scopes
const (
	ScopeStage    = "stage"
	ScopeWorkflow = "workflow"
)

// TypeFailed is the record type of a WorkflowFailed notification
const TypeFailed = "failed"

// Record is the flat, serializable form of an event shared by every sink
type Record struct {
	At          time.Time `json:"at"`
	Scope       string    `json:"scope"`
	Workflow    string    `json:"workflow"`
	Type        string    `json:"type"`
	TypeID      int       `json:"type_id"`
	Source      string    `json:"source,omitempty"`
	Target      string    `json:"target,omitempty"`
	ContainerID int64     `json:"container_id,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// FromWorkflow flattens a workflow event
func FromWorkflow(e WorkflowEvent, at time.Time) Record {
	return Record{
		At:          at,
		Scope:       ScopeWorkflow,
		Workflow:    e.Workflow,
		Type:        e.Type.String(),
		TypeID:      int(e.Type),
		Source:      e.Source,
		Target:      e.Target,
		ContainerID: e.ContainerID,
		Message:     e.Message,
	}
}

// FromStage flattens a stage event raised by element in workflow
func FromStage(workflow, element string, e StageEvent, at time.Time) Record {
	return Record{
		At:          at,
		Scope:       ScopeStage,
		Workflow:    workflow,
		Type:        e.Type.String(),
		TypeID:      int(e.Type),
		Source:      element,
		ContainerID: e.ContainerID,
		Message:     e.Message,
	}
}

// FromFailure records a run that ended with err
func FromFailure(workflow string, err error, at time.Time) Record {
	r := Record{At: at, Scope: ScopeWorkflow, Workflow: workflow, Type: TypeFailed}
	if err != nil {
		r.Message = err.Error()
	}
	return r
}
