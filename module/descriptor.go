// Package module discovers, indexes and loads pluggable units.
//
// Units compiled into the host are registered in a component.Registry and
// indexed through Manager.AddInternal. External units are described by
// archives (.zip or .jar files carrying a module.yaml manifest) found by a
// Scanner. A Loader turns a Descriptor into a fresh unit instance, resolving
// external identifiers in the archive's own scope first and then among the
// host registrations marked Exported.
package module

import (
	"fmt"

	"github.com/c360/flowkit/component"
)

// Descriptor locates a loadable unit. It is a value: copies never change.
type Descriptor struct {
	Name       string            `json:"name"`
	Version    component.Version `json:"version"`
	Kind       component.Kind    `json:"kind"`
	Identifier string            `json:"identifier"`
	Internal   bool              `json:"internal"`
	Archive    string            `json:"archive,omitempty"`
	URL        string            `json:"url,omitempty"`
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s@%s", d.Name, d.Version)
}

// Source describes where the unit comes from
func (d Descriptor) Source() string {
	if d.Internal {
		return "internal"
	}
	return d.Archive
}
