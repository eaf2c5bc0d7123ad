package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/c360/flowkit/component"
	"github.com/c360/flowkit/componentregistry"
	"github.com/c360/flowkit/config"
	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/event"
	"github.com/c360/flowkit/eventbridge"
	"github.com/c360/flowkit/health"
	"github.com/c360/flowkit/journal"
	"github.com/c360/flowkit/metric"
	"github.com/c360/flowkit/module"
	"github.com/c360/flowkit/natsclient"
	"github.com/c360/flowkit/stage"
	"github.com/c360/flowkit/workflow"
)

// TracerName names the tracer handed to stages
const TracerName = "github.com/c360/flowkit/stage"

// Option configures a Runtime
type Option func(*Runtime)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.base = logger
		}
	}
}

// WithMetricsRegistry records metrics into registry even when the metrics
// endpoint is disabled. The caller owns the registry.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(r *Runtime) { r.metricsRegistry = registry }
}

// WithTracerProvider traces stages with tp. The caller owns tp and shuts it down.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runtime) { r.tracerProvider = tp }
}

// WithPublisher bridges events through pub instead of a NATS connection
func WithPublisher(pub eventbridge.Publisher) Option {
	return func(r *Runtime) { r.publisher = pub }
}

// WithUnits registers extra units next to the built-in ones
func WithUnits(register func(*component.Registry, *component.Sequences) error) Option {
	return func(r *Runtime) {
		if register != nil {
			r.extra = append(r.extra, register)
		}
	}
}

// Runtime is the host of a set of workflows. It owns the id sequences, the
// unit catalog and module index, and the optional event sinks.
type Runtime struct {
	cfg    *config.Config
	base   *slog.Logger
	logger *slog.Logger

	seqs     *component.Sequences
	registry *component.Registry
	manager  *module.Manager
	extra    []func(*component.Registry, *component.Sequences) error

	metricsRegistry *metric.MetricsRegistry
	metricsServer   *metric.Server
	stageMetrics    *stage.Metrics
	metrics         *runMetrics

	tracerProvider trace.TracerProvider
	ownedProvider  *sdktrace.TracerProvider
	tracer         trace.Tracer

	publisher eventbridge.Publisher
	nats      *natsclient.Client
	bridge    *eventbridge.Bridge
	journal   *journal.Journal

	// sinkCtx outlives individual runs; Close cancels it
	sinkCtx    context.Context
	sinkCancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// New builds a runtime from cfg. A nil cfg means config.Defaults(). ctx
// bounds the start-up work: scanning module roots and connecting to NATS.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Runtime", "New", "config validation")
	}

	r := &Runtime{
		cfg:      cfg,
		base:     slog.Default(),
		seqs:     component.NewSequences(),
		registry: component.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.base.With("component", "engine")
	r.sinkCtx, r.sinkCancel = context.WithCancel(context.Background())

	if err := r.init(ctx); err != nil {
		_ = r.Close(ctx)
		return nil, err
	}
	return r, nil
}

func (r *Runtime) init(ctx context.Context) error {
	if err := componentregistry.Register(r.registry, r.seqs); err != nil {
		return errors.Wrap(err, "Runtime", "New", "built-in registration")
	}
	for _, register := range r.extra {
		if err := register(r.registry, r.seqs); err != nil {
			return errors.Wrap(err, "Runtime", "New", "unit registration")
		}
	}

	if err := r.initMetrics(); err != nil {
		return err
	}
	r.initTracing()

	if err := r.initModules(ctx); err != nil {
		return err
	}
	if err := r.initBridge(ctx); err != nil {
		return err
	}
	if r.cfg.Journal.Enabled {
		j, err := journal.Open(r.cfg.Journal.Path)
		if err != nil {
			return errors.Wrap(err, "Runtime", "New", "open journal")
		}
		r.journal = j
		r.logger.Info("event journal opened", "path", r.cfg.Journal.Path)
	}
	return nil
}

func (r *Runtime) initMetrics() error {
	if r.metricsRegistry == nil && r.cfg.Metrics.Enabled {
		r.metricsRegistry = metric.NewMetricsRegistry()
	}
	if r.metricsRegistry == nil {
		return nil
	}

	sm, err := stage.NewMetrics(r.metricsRegistry)
	if err != nil {
		return errors.Wrap(err, "Runtime", "New", "stage metrics")
	}
	rm, err := newRunMetrics(r.metricsRegistry)
	if err != nil {
		return errors.Wrap(err, "Runtime", "New", "run metrics")
	}
	r.stageMetrics, r.metrics = sm, rm

	if r.cfg.Metrics.Enabled {
		r.metricsServer = metric.NewServer(r.cfg.Metrics.Port, r.cfg.Metrics.Path, r.metricsRegistry)
		r.metricsServer.SetHealth(func() health.Status {
			ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
			defer cancel()
			return r.Health(ctx)
		})
		go func() {
			if err := r.metricsServer.Start(); err != nil {
				r.logger.Error("metrics server stopped", "error", err)
			}
		}()
		r.logger.Info("metrics endpoint enabled", "address", r.metricsServer.Address())
	}
	return nil
}

func (r *Runtime) initTracing() {
	if r.tracerProvider == nil && r.cfg.Tracing.Enabled {
		r.ownedProvider = sdktrace.NewTracerProvider()
		r.tracerProvider = r.ownedProvider
	}
	if r.tracerProvider != nil {
		r.tracer = r.tracerProvider.Tracer(TracerName)
	}
}

func (r *Runtime) initModules(ctx context.Context) error {
	mopts := []module.ManagerOption{module.WithLogger(r.base)}
	if r.metricsRegistry != nil {
		mopts = append(mopts, module.WithMetrics(r.metricsRegistry.CoreMetrics()))
	}
	r.manager = module.NewManager(module.NewLoader(r.registry), mopts...)

	if err := r.manager.AddAllInternal(); err != nil {
		return errors.Wrap(err, "Runtime", "New", "index built-in units")
	}
	if paths := r.cfg.Modules.ScanPaths; len(paths) > 0 {
		n, err := r.manager.AddExternal(ctx, paths...)
		if err != nil {
			return errors.Wrap(err, "Runtime", "New", "scan module roots")
		}
		r.logger.Info("external modules indexed", "roots", len(paths), "descriptors", n)
	}
	return nil
}

func (r *Runtime) initBridge(ctx context.Context) error {
	if r.publisher == nil && r.cfg.NATS.Enabled {
		copts := []natsclient.ClientOption{
			natsclient.WithMaxReconnects(r.cfg.NATS.MaxReconnects),
			natsclient.WithClientName("flowkit"),
			natsclient.WithLogger(r.base),
		}
		if r.cfg.NATS.ReconnectWait > 0 {
			copts = append(copts, natsclient.WithReconnectWait(r.cfg.NATS.ReconnectWait))
		}
		if r.metricsRegistry != nil {
			copts = append(copts, natsclient.WithMetrics(r.metricsRegistry.CoreMetrics()))
		}
		client, err := natsclient.NewClient(r.cfg.NATS.URL, copts...)
		if err != nil {
			return errors.Wrap(err, "Runtime", "New", "create NATS client")
		}
		r.nats = client
		if err := client.Connect(ctx); err != nil {
			return errors.Wrap(err, "Runtime", "New", "connect to NATS")
		}
		r.publisher = client
	}
	if r.publisher == nil {
		return nil
	}

	bridge, err := eventbridge.New(r.publisher, r.cfg.NATS.SubjectPrefix)
	if err != nil {
		return errors.Wrap(err, "Runtime", "New", "create event bridge")
	}
	r.bridge = bridge
	return nil
}

const healthTimeout = 2 * time.Second

// Health aggregates the status of the module index, the NATS connection and
// the journal. Parts that are not configured are left out.
func (r *Runtime) Health(ctx context.Context) health.Status {
	var parts []health.Status

	if r.manager != nil {
		if n := r.manager.Len(); n > 0 {
			parts = append(parts, health.NewHealthy("modules", fmt.Sprintf("%d modules indexed", n)))
		} else {
			parts = append(parts, health.NewDegraded("modules", "no modules indexed"))
		}
	}

	if r.nats != nil {
		switch st := r.nats.Status(); st {
		case natsclient.StatusConnected:
			parts = append(parts, health.NewHealthy("nats", st.String()))
		case natsclient.StatusConnecting, natsclient.StatusReconnecting:
			parts = append(parts, health.NewDegraded("nats", st.String()))
		default:
			parts = append(parts, health.NewUnhealthy("nats", st.String()))
		}
	}

	if r.journal != nil {
		parts = append(parts, health.FromError("journal", r.journal.Ping(ctx), "reachable"))
	}

	return health.Aggregate("runtime", parts)
}

// Config returns the configuration the runtime was built from
func (r *Runtime) Config() *config.Config { return r.cfg }

// Sequences returns the id spaces shared by every workflow of the runtime
func (r *Runtime) Sequences() *component.Sequences { return r.seqs }

// Registry returns the host unit catalog
func (r *Runtime) Registry() *component.Registry { return r.registry }

// Manager returns the module index
func (r *Runtime) Manager() *module.Manager { return r.manager }

// MetricsRegistry returns the metrics registry, nil when metrics are off
func (r *Runtime) MetricsRegistry() *metric.MetricsRegistry { return r.metricsRegistry }

// Journal returns the event journal, nil when it is disabled
func (r *Runtime) Journal() *journal.Journal { return r.journal }

// Bridge returns the NATS event bridge, nil when it is disabled
func (r *Runtime) Bridge() *eventbridge.Bridge { return r.bridge }

// Logger returns the runtime logger
func (r *Runtime) Logger() *slog.Logger { return r.logger }

func (r *Runtime) sinks() []event.Sink {
	var sinks []event.Sink
	if r.bridge != nil {
		sinks = append(sinks, r.bridge)
	}
	if r.journal != nil {
		sinks = append(sinks, r.journal)
	}
	return sinks
}

// NewWorkflow creates a workflow bound to the runtime: elements resolve
// through the module index, ids come from the runtime sequences, and
// lifecycle events reach every enabled sink. opts apply after the runtime
// defaults.
func (r *Runtime) NewWorkflow(name string, opts ...workflow.Option) *workflow.Workflow {
	var stageOpts []stage.Option
	if r.stageMetrics != nil {
		stageOpts = append(stageOpts, stage.WithMetrics(r.stageMetrics))
	}
	if r.tracer != nil {
		stageOpts = append(stageOpts, stage.WithTracer(r.tracer))
	}

	all := append([]workflow.Option{
		workflow.WithInstantiator(r.manager),
		workflow.WithSequences(r.seqs),
		workflow.WithStageOptions(stageOpts...),
		workflow.WithLogger(r.base),
	}, opts...)
	w := workflow.New(name, all...)

	tapOpts := []event.TapOption{event.WithStageEvents(true), event.WithTapLogger(r.base)}
	if r.metricsRegistry != nil {
		tapOpts = append(tapOpts, event.WithTapMetrics(r.metricsRegistry.CoreMetrics()))
	}
	for _, sink := range r.sinks() {
		w.AddListener(event.NewTap(r.sinkCtx, sink, w.Name(), tapOpts...))
	}
	return w
}

// Chain builds and activates a linear workflow from module names. Element
// ids are the position and the name ("1.text.lines"); the first element is
// the root. params maps an element id or module name to parameter values.
func (r *Runtime) Chain(ctx context.Context, name string, modules []string, params map[string]map[string]string) (*workflow.Workflow, error) {
	if len(modules) == 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("empty chain: %w", errors.ErrNoRoot), "Runtime", "Chain", "chain validation")
	}

	b := workflow.NewBuilder(r.NewWorkflow(name))
	ids := make([]string, len(modules))
	for i, m := range modules {
		ids[i] = ChainID(i, m)
		b.Add(m, ids[i])
		for _, key := range []string{m, ids[i]} {
			for pname, value := range params[key] {
				b.Set(ids[i], pname, value)
			}
		}
		if i > 0 {
			b.Link(ids[i-1], ids[i])
		}
	}
	b.Root(ids[0])

	w, err := b.Build(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Runtime", "Chain", "build workflow")
	}
	return w, nil
}

// ChainID is the id Chain gives to the i-th (zero based) module of a chain
func ChainID(i int, module string) string {
	return fmt.Sprintf("%d.%s", i+1, module)
}

// Run starts w synchronously and records the run metrics
func (r *Runtime) Run(ctx context.Context, w *workflow.Workflow, args string) error {
	r.metrics.started()
	start := time.Now()
	err := w.Start(ctx, args)
	r.metrics.finished(w.Name(), time.Since(start), err)
	if err != nil {
		r.logger.Warn("workflow run failed", "workflow", w.Name(), "error", err)
	}
	return err
}

// Launch starts w on its own goroutine. The returned Run controls it. Start
// errors, including ErrAlreadyRunning, are reported by Wait.
func (r *Runtime) Launch(ctx context.Context, w *workflow.Workflow, args string) *Run {
	run := &Run{w: w, done: make(chan struct{})}
	go func() {
		defer close(run.done)
		run.err = r.Run(ctx, w, args)
	}()
	return run
}

// Close releases every resource the runtime opened. It is safe to call more
// than once; later calls return the first result.
func (r *Runtime) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		var errs []error
		if r.sinkCancel != nil {
			r.sinkCancel()
		}
		if r.journal != nil {
			if err := r.journal.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if r.nats != nil {
			if err := r.nats.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if r.metricsServer != nil {
			if err := r.metricsServer.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		if r.ownedProvider != nil {
			if err := r.ownedProvider.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			r.closeErr = errors.Wrap(stderrors.Join(errs...), "Runtime", "Close", "release resources")
		}
	})
	return r.closeErr
}
