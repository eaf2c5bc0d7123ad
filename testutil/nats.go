package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Message is one publish captured by MockPublisher
type Message struct {
	Subject string
	Data    []byte
}

// MockPublisher is an in-memory publisher that records every message in
// publish order. Thread-safe for concurrent use.
type MockPublisher struct {
	mu       sync.RWMutex
	messages []Message
	fail     error
	closed   bool
}

// NewMockPublisher creates an empty publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records data on subject, or returns the injected failure
func (p *MockPublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}
	if p.fail != nil {
		return p.fail
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	p.messages = append(p.messages, Message{Subject: subject, Data: copied})
	return nil
}

// FailWith makes every following Publish return err; nil clears it
func (p *MockPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = err
}

// Messages returns a copy of every recorded message
func (p *MockPublisher) Messages() []Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Subjects returns the subject of every recorded message, in order
func (p *MockPublisher) Subjects() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.messages))
	for i, m := range p.messages {
		out[i] = m.Subject
	}
	return out
}

// Count returns the number of messages recorded on subject
func (p *MockPublisher) Count(subject string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, m := range p.messages {
		if m.Subject == subject {
			n++
		}
	}
	return n
}

// Close makes every following Publish fail
func (p *MockPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// NATSServer is a NATS server running in a container
type NATSServer struct {
	container testcontainers.Container
	URL       string
}

// StartNATS starts a NATS container and returns once it accepts clients
func StartNATS(ctx context.Context) (*NATSServer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "nats:2.11.7-alpine",
		ExposedPorts: []string{"4222/tcp", "8222/tcp"},
		Cmd:          []string{"--port", "4222", "--http_port", "8222"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("4222/tcp"),
			wait.ForHTTP("/").WithPort("8222/tcp").WithStartupTimeout(30*time.Second),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start NATS container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "4222")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	return &NATSServer{
		container: container,
		URL:       fmt.Sprintf("nats://%s:%s", host, port.Port()),
	}, nil
}

// Terminate stops the container
func (s *NATSServer) Terminate(ctx context.Context) error {
	if s == nil || s.container == nil {
		return nil
	}
	return s.container.Terminate(ctx)
}

// NATS starts a server for t and terminates it on cleanup
func NATS(t *testing.T) *NATSServer {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s, err := StartNATS(ctx)
	if err != nil {
		t.Fatalf("start NATS: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Terminate(context.Background()); err != nil {
			t.Logf("terminate NATS: %v", err)
		}
	})
	return s
}
