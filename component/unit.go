package component

import (
	"fmt"
	"strings"
)

// Kind classifies a pluggable unit. The numeric values are part of the
// descriptor surface and must not change.
type Kind int

const (
	// AnyKind matches every kind in a module query
	AnyKind Kind = -1
	// DataKind marks units that define payload data kinds
	DataKind Kind = 1
	// AlgorithmKind marks units that can run as a stage
	AlgorithmKind Kind = 2
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case AnyKind:
		return "any"
	case DataKind:
		return "data"
	case AlgorithmKind:
		return "algorithm"
	default:
		return "unknown"
	}
}

// Valid reports whether k names a concrete unit kind
func (k Kind) Valid() bool {
	return k == DataKind || k == AlgorithmKind
}

// ParseKind converts "data" or "algorithm" into a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "data":
		return DataKind, nil
	case "algorithm":
		return AlgorithmKind, nil
	case "any", "":
		return AnyKind, nil
	default:
		return AnyKind, fmt.Errorf("unknown unit kind %q", s)
	}
}

// Stability rates how mature a unit is
type Stability int

// Stability levels
const (
	StabilityStable Stability = iota + 1
	StabilityTesting
	StabilityUnstable
	StabilityExperimental
)

// String returns the string representation of Stability
func (s Stability) String() string {
	switch s {
	case StabilityStable:
		return "stable"
	case StabilityTesting:
		return "testing"
	case StabilityUnstable:
		return "unstable"
	case StabilityExperimental:
		return "experimental"
	default:
		return "unknown"
	}
}

// About describes a unit to hosting code
type About struct {
	Name             string    `json:"name"`
	Version          Version   `json:"version"`
	ShortDescription string    `json:"short_description,omitempty"`
	LongDescription  string    `json:"long_description,omitempty"`
	Authors          []string  `json:"authors,omitempty"`
	Email            string    `json:"email,omitempty"`
	Organisation     string    `json:"organisation,omitempty"`
	Website          string    `json:"website,omitempty"`
	License          string    `json:"license,omitempty"`
	Copyright        string    `json:"copyright,omitempty"`
	Stability        Stability `json:"stability,omitempty"`
}

// Unit is the pluggable-unit contract. Every loadable object, data kinds and
// algorithms alike, must satisfy it.
type Unit interface {
	About() About
	Kind() Kind
}
