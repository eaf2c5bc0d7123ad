// Package eventbridge publishes workflow lifecycle records to NATS.
//
// Every record goes to <prefix>.<workflow>.<type> as JSON, with stage-scoped
// records under <prefix>.<workflow>.stage.<type>. Workflow names are reduced
// to a single subject token.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/c360/flowkit/errors"
	"github.com/c360/flowkit/event"
)

// DefaultPrefix is the subject root when none is configured
const DefaultPrefix = "flowkit.events"

// Publisher sends raw bytes on a subject. natsclient.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Bridge is an event.Sink that publishes records
type Bridge struct {
	pub    Publisher
	prefix string
}

// New creates a bridge publishing under prefix. An empty prefix selects
// DefaultPrefix.
func New(pub Publisher, prefix string) (*Bridge, error) {
	if pub == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("nil publisher: %w", errors.ErrInvalidConfig), "Bridge", "New", "publisher validation")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	prefix = strings.TrimSuffix(prefix, ".")
	for _, part := range strings.Split(prefix, ".") {
		if part == "" || strings.ContainsAny(part, "*> \t") {
			return nil, errors.WrapInvalid(
				fmt.Errorf("subject prefix %q: %w", prefix, errors.ErrInvalidConfig), "Bridge", "New", "prefix validation")
		}
	}
	return &Bridge{pub: pub, prefix: prefix}, nil
}

// Name implements event.Sink
func (b *Bridge) Name() string { return "nats" }

// Prefix returns the subject root
func (b *Bridge) Prefix() string { return b.prefix }

// Subject returns the subject r is published on
func (b *Bridge) Subject(r event.Record) string {
	parts := []string{b.prefix, Token(r.Workflow)}
	if r.Scope == event.ScopeStage {
		parts = append(parts, event.ScopeStage)
	}
	parts = append(parts, Token(r.Type))
	return strings.Join(parts, ".")
}

// Write implements event.Sink
func (b *Bridge) Write(ctx context.Context, r event.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "Bridge", "Write", "record encoding")
	}
	subject := b.Subject(r)
	if err := b.pub.Publish(ctx, subject, data); err != nil {
		return errors.Wrap(err, "Bridge", "Write", "publish "+subject)
	}
	return nil
}

// Token maps s onto a single NATS subject token. Characters other than
// letters, digits, dash and underscore become underscores; an empty string
// becomes "_".
func Token(s string) string {
	if s == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
