// Package text provides the built-in text algorithms.
//
// Every unit works on the payloads of a container and leaves the rest alone.
// Units are indexed by the names below; the registry identifiers add a
// "flowkit/" prefix (flowkit/text.lines and so on).
//
//   - text.lines splits the run arguments into a lines payload
//   - text.upper and text.lower change letter case with
//     golang.org/x/text/cases and a configurable language
//   - text.grep keeps the lines matching a regular expression
//   - text.collect accumulates every line it sees
//
// A linear chain of these units gives a small end-to-end pipeline:
//
//	w, err := workflow.NewBuilder(rt.NewWorkflow("shout")).
//	    Add("text.lines", "in").
//	    Add("text.upper", "up").
//	    Add("text.collect", "out").
//	    Link("in", "up").
//	    Link("up", "out").
//	    Build(ctx)
//
// Units that create payloads draw their ids from the payload sequence passed
// to Register, so every payload in a runtime has a unique instance id.
package text
