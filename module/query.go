package module

import "github.com/c360/flowkit/component"

// Query selects a descriptor. The zero Kind matches every kind, like AnyKind.
type Query struct {
	Name        string
	Recommended *component.Version
	Minimal     *component.Version
	Kind        component.Kind
	// Descriptor short-circuits the lookup when it is indexed
	Descriptor *Descriptor
}

// NewQuery selects the newest version of name, of any kind
func NewQuery(name string) Query {
	return Query{Name: name, Kind: component.AnyKind}
}

// ForDescriptor selects exactly d
func ForDescriptor(d Descriptor) Query {
	return Query{Name: d.Name, Kind: d.Kind, Descriptor: &d}
}

// WithRecommended prefers version v when it is indexed
func (q Query) WithRecommended(v component.Version) Query {
	q.Recommended = &v
	return q
}

// WithMinimal rejects a newest version older than v
func (q Query) WithMinimal(v component.Version) Query {
	q.Minimal = &v
	return q
}

// WithKind restricts the query to kind
func (q Query) WithKind(kind component.Kind) Query {
	q.Kind = kind
	return q
}

func (q Query) matchesKind(kind component.Kind) bool {
	return !q.Kind.Valid() || q.Kind == kind
}
