package workflow

// Analysis partitions the elements of a workflow by their position relative
// to the root
type Analysis struct {
	// Reachable holds the elements reachable from the root, root first, in
	// depth-first order
	Reachable []*Element
	// Ends holds the elements without outgoing links, in insertion order
	Ends []*Element
	// Outside holds the elements the root cannot reach, in insertion order
	Outside []*Element
}

// Analyze walks the resolved links of w from its root. Without a root every
// element is outside.
func Analyze(w *Workflow) Analysis {
	var a Analysis
	seen := make(map[*Element]bool, w.Len())

	var visit func(e *Element)
	visit = func(e *Element) {
		if seen[e] {
			return
		}
		seen[e] = true
		a.Reachable = append(a.Reachable, e)
		for _, l := range e.next {
			if l.to != nil {
				visit(l.to)
			}
		}
	}
	if w.root != nil {
		visit(w.root)
	}

	for _, e := range w.order {
		if len(e.next) == 0 {
			a.Ends = append(a.Ends, e)
		}
		if !seen[e] {
			a.Outside = append(a.Outside, e)
		}
	}
	return a
}

// IDs returns the ids of elements
func IDs(elements []*Element) []string {
	ids := make([]string, len(elements))
	for i, e := range elements {
		ids[i] = e.id
	}
	return ids
}
