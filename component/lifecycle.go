package component

// State represents where a stage is in its processing lifecycle
type State int

const (
	// StateUninitialized indicates the one-time initializer has not run yet
	StateUninitialized State = iota
	// StateIdle indicates the stage is initialized and its buffer is drained
	StateIdle
	// StateRunning indicates the stage is draining its buffer
	StateRunning
	// StatePaused indicates the stage is blocked at a checkpoint until resumed
	StatePaused
	// StateStopped indicates a stop request ended the last drain cycle
	StateStopped
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
