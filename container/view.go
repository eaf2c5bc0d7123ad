package container

import "github.com/c360/flowkit/payload"

// Predicate selects payloads
type Predicate func(*payload.Payload) bool

// View is a filtered window on a live container. It holds no payloads of its
// own: every call re-evaluates the filters against the current contents, so
// payloads added after the view was created show up if they match.
type View struct {
	source  *Container
	filters []Predicate
}

// Where returns a view narrowed by pred
func (v View) Where(pred Predicate) View {
	filters := make([]Predicate, len(v.filters), len(v.filters)+1)
	copy(filters, v.filters)
	return View{source: v.source, filters: append(filters, pred)}
}

// FilterFormat narrows the view to payloads tagged with format
func (v View) FilterFormat(format string) View {
	return v.Where(func(p *payload.Payload) bool { return p.Format() == format })
}

// FilterType narrows the view to payloads tagged with typ
func (v View) FilterType(typ string) View {
	return v.Where(func(p *payload.Payload) bool { return p.Type() == typ })
}

// FilterName narrows the view to payloads named name
func (v View) FilterName(name string) View {
	return v.Where(func(p *payload.Payload) bool { return p.Name() == name })
}

func (v View) matches(p *payload.Payload) bool {
	for _, f := range v.filters {
		if !f(p) {
			return false
		}
	}
	return true
}

// Each calls fn for every matching payload in insertion order until fn
// returns false
func (v View) Each(fn func(*payload.Payload) bool) {
	if v.source == nil {
		return
	}
	v.source.Each(func(p *payload.Payload) bool {
		if !v.matches(p) {
			return true
		}
		return fn(p)
	})
}

// Payloads returns a snapshot of the matching payloads
func (v View) Payloads() []*payload.Payload {
	var out []*payload.Payload
	v.Each(func(p *payload.Payload) bool {
		out = append(out, p)
		return true
	})
	return out
}

// Len counts the matching payloads
func (v View) Len() int {
	n := 0
	v.Each(func(*payload.Payload) bool {
		n++
		return true
	})
	return n
}

// First returns the first matching payload, or nil
func (v View) First() *payload.Payload {
	var first *payload.Payload
	v.Each(func(p *payload.Payload) bool {
		first = p
		return false
	})
	return first
}
