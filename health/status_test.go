package health

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		status  Status
		state   string
		healthy bool
	}{
		{NewHealthy("a", "ok"), StateHealthy, true},
		{NewDegraded("b", "slow"), StateDegraded, false},
		{NewUnhealthy("c", "down"), StateUnhealthy, false},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.state, tt.status.Status)
			assert.Equal(t, tt.healthy, tt.status.Healthy)
			assert.Equal(t, tt.state == StateHealthy, tt.status.IsHealthy())
			assert.Equal(t, tt.state == StateDegraded, tt.status.IsDegraded())
			assert.Equal(t, tt.state == StateUnhealthy, tt.status.IsUnhealthy())
			assert.False(t, tt.status.Timestamp.IsZero())
		})
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		subs    []Status
		want    string
		message string
	}{
		{"empty", nil, StateHealthy, ""},
		{"all healthy", []Status{NewHealthy("a", ""), NewHealthy("b", "")}, StateHealthy, ""},
		{"degraded wins over healthy", []Status{NewHealthy("a", ""), NewDegraded("b", "")}, StateDegraded, "1 of 2 parts degraded"},
		{"unhealthy wins", []Status{NewDegraded("a", ""), NewUnhealthy("b", ""), NewUnhealthy("c", "")}, StateUnhealthy, "2 of 3 parts unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate("runtime", tt.subs)
			assert.Equal(t, "runtime", got.Component)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.message, got.Message)
			assert.Len(t, got.SubStatuses, len(tt.subs))
		})
	}
}

func TestAggregate_SortsAndCopies(t *testing.T) {
	subs := []Status{NewHealthy("nats", ""), NewHealthy("journal", ""), NewHealthy("modules", "")}
	got := Aggregate("runtime", subs)

	require.Len(t, got.SubStatuses, 3)
	assert.Equal(t, "journal", got.SubStatuses[0].Component)
	assert.Equal(t, "modules", got.SubStatuses[1].Component)
	assert.Equal(t, "nats", got.SubStatuses[2].Component)
	assert.Equal(t, "nats", subs[0].Component, "input slice is not reordered")
}

func TestFromError(t *testing.T) {
	ok := FromError("journal", nil, "open")
	assert.True(t, ok.IsHealthy())
	assert.Equal(t, "open", ok.Message)

	bad := FromError("nats", stderrors.New("dial nats://user:pw@10.0.0.1:4222 failed, token=abc123"), "")
	assert.True(t, bad.IsUnhealthy())
	assert.Equal(t, "dial [URL] failed, token=[REDACTED]", bad.Message)
}
