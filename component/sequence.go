package component

import "sync/atomic"

// Sequence hands out monotonically increasing ids starting at 1.
// A runtime owns one Sequence per id space and passes it to whatever
// constructs payloads, containers or stages.
type Sequence struct {
	last atomic.Int64
}

// NewSequence creates a sequence whose first id is 1
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next id
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

// Last returns the most recently issued id, or 0 if none was issued
func (s *Sequence) Last() int64 {
	return s.last.Load()
}

// Sequences groups the id spaces a pipeline runtime owns
type Sequences struct {
	Payloads   *Sequence
	Containers *Sequence
	Stages     *Sequence
}

// NewSequences creates a fresh set of id spaces
func NewSequences() *Sequences {
	return &Sequences{
		Payloads:   NewSequence(),
		Containers: NewSequence(),
		Stages:     NewSequence(),
	}
}
