package natsclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/metric"
)

// ConnectionStatus represents the state of the NATS connection
type ConnectionStatus int32

// Possible connection statuses
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusCircuitOpen
)

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// Circuit breaker states as exported through metric.Metrics
const (
	circuitClosed = 0
	circuitOpen   = 1
)

// dialFunc opens a NATS connection
type dialFunc func(url string, opts ...nats.Option) (*nats.Conn, error)

// Client manages one NATS connection guarded by a circuit breaker. After
// threshold consecutive failed connects the circuit opens and Connect fails
// fast with ErrCircuitOpen until the backoff elapses. Each opening doubles
// the backoff up to maxBackoff.
type Client struct {
	url    string
	logger *slog.Logger

	status          atomic.Int32
	failures        atomic.Int32
	circuitFailures atomic.Int32
	backoff         atomic.Int64

	circuitThreshold int32
	maxBackoff       time.Duration

	maxReconnects int
	reconnectWait time.Duration
	timeout       time.Duration
	drainTimeout  time.Duration
	clientName    string

	metrics *metric.Metrics
	dial    dialFunc

	mu     sync.RWMutex
	conn   *nats.Conn
	subs   []*nats.Subscription
	closed atomic.Bool
}

// NewClient creates a disconnected client for url
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	if url == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("empty url: %w", errors.ErrInvalidConfig), "Client", "NewClient", "url validation")
	}

	c := &Client{
		url:              url,
		logger:           slog.Default(),
		circuitThreshold: 5,
		maxBackoff:       time.Minute,
		maxReconnects:    -1,
		reconnectWait:    2 * time.Second,
		timeout:          5 * time.Second,
		drainTimeout:     10 * time.Second,
		dial:             nats.Connect,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "Client", "NewClient", "apply option")
		}
	}
	c.logger = c.logger.With("component", "natsclient", "url", url)
	c.backoff.Store(int64(time.Second))
	return c, nil
}

// URL returns the NATS server URL
func (c *Client) URL() string { return c.url }

// Status returns the current connection status
func (c *Client) Status() ConnectionStatus {
	return ConnectionStatus(c.status.Load())
}

func (c *Client) setStatus(s ConnectionStatus) {
	c.status.Store(int32(s))
	c.metrics.RecordNATSStatus(s == StatusConnected)
}

// IsHealthy returns true if the connection is up
func (c *Client) IsHealthy() bool {
	return c.Status() == StatusConnected
}

// Failures returns the number of failed connects since the last success
func (c *Client) Failures() int32 { return c.failures.Load() }

// Backoff returns the delay applied the next time the circuit opens
func (c *Client) Backoff() time.Duration {
	return time.Duration(c.backoff.Load())
}

// recordFailure counts a failed connect and opens the circuit at the threshold
func (c *Client) recordFailure() {
	c.failures.Add(1)
	if c.circuitFailures.Add(1) < c.circuitThreshold {
		return
	}

	current := c.Status()
	if current == StatusCircuitOpen || !c.status.CompareAndSwap(int32(current), int32(StatusCircuitOpen)) {
		return
	}

	wait := c.Backoff()
	next := wait * 2
	if next > c.maxBackoff {
		next = c.maxBackoff
	}
	c.backoff.Store(int64(next))
	c.circuitFailures.Store(0)
	c.metrics.RecordNATSStatus(false)
	c.metrics.RecordCircuitBreakerState(circuitOpen)

	c.logger.Warn("circuit breaker opened", "failures", c.failures.Load(), "backoff", wait)
	time.AfterFunc(wait, c.halfOpen)
}

// halfOpen lets the next Connect try again
func (c *Client) halfOpen() {
	if c.status.CompareAndSwap(int32(StatusCircuitOpen), int32(StatusDisconnected)) {
		c.logger.Debug("circuit breaker half-open")
	}
}

func (c *Client) resetCircuit() {
	c.failures.Store(0)
	c.circuitFailures.Store(0)
	c.backoff.Store(int64(time.Second))
	c.metrics.RecordCircuitBreakerState(circuitClosed)
}

func (c *Client) connectionOptions() []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.Timeout(c.timeout),
		nats.DrainTimeout(c.drainTimeout),
		nats.DisconnectErrHandler(c.handleDisconnect),
		nats.ReconnectHandler(c.handleReconnect),
		nats.ClosedHandler(c.handleClosed),
		nats.ErrorHandler(c.handleError),
	}
	if c.clientName != "" {
		opts = append(opts, nats.Name(c.clientName))
	}
	return opts
}

// Connect establishes the connection. It fails fast while the circuit is
// open and gives up when ctx ends.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return errors.WrapInvalid(errors.ErrNoConnection, "Client", "Connect", "closed client")
	}
	if c.Status() == StatusCircuitOpen {
		return errors.WrapTransient(errors.ErrCircuitOpen, "Client", "Connect", "circuit check")
	}
	if c.IsHealthy() {
		return nil
	}

	c.setStatus(StatusConnecting)
	c.logger.Info("connecting to NATS")

	type result struct {
		conn *nats.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := c.dial(c.url, c.connectionOptions()...)
		done <- result{conn, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return c.failed(errors.WrapTransient(r.err, "Client", "Connect", "establish connection"))
		}
		c.mu.Lock()
		c.conn = r.conn
		c.mu.Unlock()
	case <-ctx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				r.conn.Close()
			}
		}()
		return c.failed(errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrConnectionTimeout, ctx.Err()), "Client", "Connect", "connection cancelled"))
	}

	c.setStatus(StatusConnected)
	c.resetCircuit()
	c.logger.Info("connected to NATS")
	return nil
}

func (c *Client) failed(err error) error {
	c.recordFailure()
	if c.Status() == StatusCircuitOpen {
		return errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrCircuitOpen, err), "Client", "Connect", "circuit check")
	}
	c.setStatus(StatusDisconnected)
	return err
}

// Publish sends data on subject
func (c *Client) Publish(_ context.Context, subject string, data []byte) error {
	conn := c.connection()
	if conn == nil {
		return errors.WrapTransient(errors.ErrNoConnection, "Client", "Publish", "connection check")
	}
	if err := conn.Publish(subject, data); err != nil {
		return errors.WrapTransient(err, "Client", "Publish", "publish "+subject)
	}
	return nil
}

// Subscribe delivers every message on subject to handler until Close
func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	conn := c.connection()
	if conn == nil {
		return errors.WrapTransient(errors.ErrNoConnection, "Client", "Subscribe", "connection check")
	}
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) { handler(msg.Subject, msg.Data) })
	if err != nil {
		return errors.Wrap(err, "Client", "Subscribe", "subscribe "+subject)
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}

// Flush blocks until the server has processed every published message
func (c *Client) Flush(ctx context.Context) error {
	conn := c.connection()
	if conn == nil {
		return errors.WrapTransient(errors.ErrNoConnection, "Client", "Flush", "connection check")
	}
	return conn.FlushWithContext(ctx)
}

func (c *Client) connection() *nats.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil || !c.conn.IsConnected() {
		return nil
	}
	return c.conn
}

// Close drains the connection, bounded by ctx and the drain timeout. It is
// safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	conn := c.conn
	subs := c.subs
	c.conn, c.subs = nil, nil
	c.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Debug("unsubscribe failed", "subject", sub.Subject, "error", err)
		}
	}

	var drainErr error
	if conn != nil {
		drained := make(chan error, 1)
		go func() { drained <- conn.Drain() }()

		select {
		case err := <-drained:
			drainErr = errors.Wrap(err, "Client", "Close", "drain connection")
		case <-time.After(c.drainTimeout):
			drainErr = errors.WrapTransient(
				fmt.Errorf("drain timeout after %v", c.drainTimeout), "Client", "Close", "drain")
		case <-ctx.Done():
			drainErr = errors.Wrap(ctx.Err(), "Client", "Close", "drain")
		}
		conn.Close()
	}

	c.setStatus(StatusDisconnected)
	return drainErr
}

// owns reports whether nc is the live connection; callbacks of abandoned or
// closed connections are ignored
func (c *Client) owns(nc *nats.Conn) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return nc != nil && c.conn == nc
}

func (c *Client) handleDisconnect(nc *nats.Conn, err error) {
	if !c.owns(nc) {
		return
	}
	c.setStatus(StatusReconnecting)
	c.logger.Warn("NATS disconnected", "error", err)
}

func (c *Client) handleReconnect(nc *nats.Conn) {
	if !c.owns(nc) {
		return
	}
	c.setStatus(StatusConnected)
	c.resetCircuit()
	c.metrics.RecordNATSReconnect()
	c.logger.Info("NATS reconnected")
}

func (c *Client) handleClosed(nc *nats.Conn) {
	if c.owns(nc) {
		c.setStatus(StatusDisconnected)
	}
}

func (c *Client) handleError(_ *nats.Conn, _ *nats.Subscription, err error) {
	c.logger.Error("NATS error", "error", err)
}
