// Package flowkit provides a modular workflow engine: versioned pluggable
// units are discovered, linked into directed graphs, and executed as a
// cooperative pipeline in which each element processes a shared container of
// typed payloads and forwards it downstream.
//
// # Philosophy: Small Units, Explicit Graphs
//
// flowkit separates three concerns that tend to blur in pipeline code:
//
//   - What a step does: a unit (data kind or algorithm) with a name, a
//     version and a stability. Units know nothing about their neighbours.
//   - How steps are connected: a workflow of elements and links. Links are
//     acyclic, elements are owned by exactly one workflow, and a root element
//     starts every run.
//   - How runs are observed: lifecycle events fanned out to listeners and
//     sinks (log, NATS subjects, SQLite journal, Prometheus, OpenTelemetry).
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│          Engine Runtime             │  Config, metrics, tracing,
//	│  (registry, index, sinks, runs)     │  NATS bridge, journal
//	└─────────────────────────────────────┘
//	           ↓ builds
//	┌─────────────────────────────────────┐
//	│            Workflow                 │  Elements, links, root,
//	│   (graph edits, activation, run)    │  merge, start/stop/pause
//	└─────────────────────────────────────┘
//	           ↓ drives
//	┌─────────────────────────────────────┐
//	│             Stages                  │  Hand-off, params,
//	│   (one per element, one processor)  │  pause/stop, stage events
//	└─────────────────────────────────────┘
//
// # Container Hand-Off
//
// A run creates one container and delivers it to the root stage. Each stage
// processes the container and then hands it synchronously to every
// downstream stage, in link order, before taking the next one from its
// buffer. Fan-out branches therefore see the payloads added upstream.
//
//	                ┌─────────────┐
//	   args ──────→ │ text.lines  │
//	                └──────┬──────┘
//	                       │
//	            ┌──────────┴──────────┐
//	            ↓                     ↓
//	     ┌────────────┐        ┌────────────┐
//	     │ text.upper │        │ text.grep  │
//	     └─────┬──────┘        └─────┬──────┘
//	           ↓                     ↓
//	     ┌────────────┐        ┌────────────┐
//	     │text.collect│        │text.collect│
//	     └────────────┘        └────────────┘
//
// The first processing error ends the run. Start returns it and failure
// listeners receive it after the overall end event.
//
// # Framework Packages
//
// Units and discovery:
//   - component: Unit contract, kinds, versions, factory registry, sequences
//   - componentregistry: Registration of the built-in units
//   - module: Descriptors, queries, archive scanning, the module index
//   - parameter: Typed parameter definitions and values
//   - payload: Built-in data kinds (text, lines, bytes)
//   - container: The payload collection shared by the stages of a run
//
// Execution:
//   - stage: Per-element processing and container hand-off
//   - workflow: Graph construction, editing, activation and control
//   - engine: The runtime that wires everything to configuration
//
// Observation:
//   - event: Stage and workflow events, listener buses, sink taps
//   - eventbridge: Publishes event records to NATS subjects
//   - journal: SQLite event journal
//   - metric: Prometheus registry and HTTP endpoint
//   - health: Status aggregation served on /health
//
// Infrastructure:
//   - config: Layered JSON configuration with environment overrides
//   - natsclient: NATS connection management with a circuit breaker
//   - errors: Error classification and wrapping
//   - testutil: Test helpers, including a NATS testcontainer
//
// # Usage Patterns
//
// Linear Chain:
//
//	rt, _ := engine.New(ctx, config.Defaults())
//	defer rt.Close(ctx)
//
//	w, _ := rt.Chain(ctx, "shout",
//	    []string{"text.lines", "text.upper", "text.collect"}, nil)
//	_ = rt.Run(ctx, w, "hello\nworld")
//
// Explicit Graph:
//
//	w, err := workflow.NewBuilder(rt.NewWorkflow("fanout")).
//	    Add("text.lines", "split").
//	    Add("text.grep", "match").
//	    Set("match", "pattern", "^b").
//	    Add("text.collect", "out").
//	    Link("split", "match").
//	    Link("match", "out").
//	    Root("split").
//	    Build(ctx)
//
// Custom Unit:
//
//	engine.WithUnits(func(reg *component.Registry, _ *component.Sequences) error {
//	    return reg.RegisterWithConfig(component.RegistrationConfig{
//	        Identifier:  "acme/reverse",
//	        Kind:        component.AlgorithmKind,
//	        Description: "Reverses line payloads",
//	        Exported:    true,
//	        Factory:     func() (component.Unit, error) { return &Reverse{}, nil },
//	    })
//	})
//
// # Binary
//
//	# List indexed modules
//	flowkit modules --scan ./plugins
//
//	# Run a chain over the given arguments
//	flowkit run --chain text.lines,text.grep,text.collect \
//	    --set 2.text.grep.pattern=^b --args "$(printf 'foo\nbar\nbee')"
//
// Logs go to stderr and collected output to stdout.
package flowkit
