package testutil

import (
	"fmt"
	"sync"

	"github.com/c360/flowkit/event"
)

// Recorder is a workflow listener that keeps every workflow event, raw stage
// event and failure it hears. Thread-safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	events   []event.WorkflowEvent
	stages   []ElementEvent
	failures []error
}

// ElementEvent is a stage event tagged with its element
type ElementEvent struct {
	Element string
	Event   event.StageEvent
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// WorkflowEvent implements event.WorkflowListener
func (r *Recorder) WorkflowEvent(e event.WorkflowEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// ElementEvent implements event.ElementListener
func (r *Recorder) ElementEvent(element string, e event.StageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, ElementEvent{Element: element, Event: e})
}

// WorkflowFailed implements event.FailureListener
func (r *Recorder) WorkflowFailed(_ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

// Events returns the workflow events heard so far
func (r *Recorder) Events() []event.WorkflowEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.WorkflowEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the type of every workflow event heard so far
func (r *Recorder) Types() []event.WorkflowType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.WorkflowType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// Count returns how many workflow events of type t were heard
func (r *Recorder) Count(t event.WorkflowType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// StageTrace returns "<element>:<type>" for every stage event heard so far
func (r *Recorder) StageTrace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.stages))
	for i, s := range r.stages {
		out[i] = fmt.Sprintf("%s:%s", s.Element, s.Event.Type)
	}
	return out
}

// Failures returns the errors reported through WorkflowFailed
func (r *Recorder) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.failures))
	copy(out, r.failures)
	return out
}
