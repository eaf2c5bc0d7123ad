// Package engine hosts flowkit workflows.
//
// A Runtime is built once from a config.Config. It owns what every workflow of
// a process shares: the id sequences, the host unit catalog with the built-in
// units, the module index (including external scan roots), the metrics
// registry, the tracer and the event sinks. Workflows created with
// NewWorkflow are wired to all of them.
//
// # Sinks
//
// When enabled in the configuration, lifecycle events are written to:
//
//   - NATS, as JSON records on flowkit.events.<workflow>.<event> (eventbridge)
//   - a SQLite journal (journal)
//
// Both receive stage events as well as workflow events.
//
// # Running
//
// Run executes a workflow on the calling goroutine. Launch executes it on a
// new goroutine and returns a Run that can pause, resume or stop it:
//
//	rt, err := engine.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer rt.Close(ctx)
//
//	w, err := rt.Chain(ctx, "shout", []string{"text.lines", "text.upper", "text.collect"}, nil)
//	if err != nil {
//	    return err
//	}
//	run := rt.Launch(ctx, w, "hello\nworld")
//	return run.Wait(ctx)
//
// Controls sent before the run has actually started fail with ErrNotRunning.
package engine
