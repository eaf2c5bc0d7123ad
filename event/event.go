// Package event defines the lifecycle notifications exchanged between stages,
// workflows and outside observers, plus the listener registry both sides use.
//
// Event type ids are stable and form part of the external interface: they are
// what the NATS bridge and the SQLite journal record.
package event

// StageType identifies a stage event
type StageType int

// Stage event types
const (
	StageStart StageType = iota + 1
	StageEnd
	StageProgress
	StageWarning
	StageNoMoreStage
)

// String returns the string representation of StageType
func (t StageType) String() string {
	switch t {
	case StageStart:
		return "start"
	case StageEnd:
		return "end"
	case StageProgress:
		return "progress"
	case StageWarning:
		return "warning"
	case StageNoMoreStage:
		return "no_more_stage"
	default:
		return "unknown"
	}
}

// StageEvent is emitted by a stage while it processes a container
type StageEvent struct {
	Type        StageType
	StageID     int64
	ContainerID int64
	Message     string
}

// WorkflowType identifies a workflow event
type WorkflowType int

// Workflow event types
const (
	WorkflowAdd WorkflowType = iota + 1
	WorkflowRemove
	WorkflowLink
	WorkflowUnlink
	WorkflowStart
	WorkflowEnd
	WorkflowStop
	WorkflowPause
	WorkflowResume
	WorkflowStartAlgorithm
	WorkflowEndAlgorithm
	WorkflowElementsStop
	WorkflowElementsPause
	WorkflowElementsResume
)

var workflowTypeNames = map[WorkflowType]string{
	WorkflowAdd:            "add",
	WorkflowRemove:         "remove",
	WorkflowLink:           "link",
	WorkflowUnlink:         "unlink",
	WorkflowStart:          "start",
	WorkflowEnd:            "end",
	WorkflowStop:           "stop",
	WorkflowPause:          "pause",
	WorkflowResume:         "resume",
	WorkflowStartAlgorithm: "start_algorithm",
	WorkflowEndAlgorithm:   "end_algorithm",
	WorkflowElementsStop:   "elements_stop",
	WorkflowElementsPause:  "elements_pause",
	WorkflowElementsResume: "elements_resume",
}

// String returns the string representation of WorkflowType
func (t WorkflowType) String() string {
	if name, ok := workflowTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// WorkflowEvent is emitted by a workflow. Source is the element the event is
// about, if any; Target is the far end for link events.
type WorkflowEvent struct {
	Type        WorkflowType
	Workflow    string
	Source      string
	Target      string
	ContainerID int64
	Message     string
}

// StageListener receives stage events
type StageListener interface {
	StageEvent(e StageEvent)
}

// WorkflowListener receives workflow events
type WorkflowListener interface {
	WorkflowEvent(e WorkflowEvent)
}

// FailureListener is implemented by workflow listeners that want to hear
// about runs that ended with an error
type FailureListener interface {
	WorkflowFailed(workflow string, err error)
}

// ElementListener is implemented by workflow listeners that want every raw
// stage event, tagged with the id of the element that owns the stage
type ElementListener interface {
	ElementEvent(element string, e StageEvent)
}

type stageFunc struct{ fn func(StageEvent) }

func (s *stageFunc) StageEvent(e StageEvent) { s.fn(e) }

// StageFunc adapts fn to a StageListener. Each call returns a distinct
// listener, so the result can be registered and removed by identity.
func StageFunc(fn func(StageEvent)) StageListener {
	return &stageFunc{fn: fn}
}

type workflowFunc struct{ fn func(WorkflowEvent) }

func (w *workflowFunc) WorkflowEvent(e WorkflowEvent) { w.fn(e) }

// WorkflowFunc adapts fn to a WorkflowListener
func WorkflowFunc(fn func(WorkflowEvent)) WorkflowListener {
	return &workflowFunc{fn: fn}
}
