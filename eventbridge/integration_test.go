package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowkit/event"
	"github.com/c360/flowkit/natsclient"
	"github.com/c360/flowkit/testutil"
	"github.com/c360/flowkit/workflow"
)

var sharedNATS *testutil.NATSServer

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION_TESTS") == "" {
		fmt.Println("Skipping integration tests. Set INTEGRATION_TESTS=1 to run.")
		os.Exit(m.Run())
	}

	server, err := testutil.StartNATS(context.Background())
	if err != nil {
		log.Fatalf("Failed to start NATS: %v", err)
	}
	sharedNATS = server

	exitCode := m.Run()
	_ = server.Terminate(context.Background())
	os.Exit(exitCode)
}

func natsClient(t *testing.T) *natsclient.Client {
	t.Helper()
	if sharedNATS == nil {
		t.Skip("Skipping integration test. Set INTEGRATION_TESTS=1 to run.")
	}
	client, err := natsclient.NewClient(sharedNATS.URL, natsclient.WithClientName(t.Name()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, client.Connect(ctx))
	t.Cleanup(func() { _ = client.Close(context.Background()) })
	return client
}

func TestIntegration_PublishesOverNATS(t *testing.T) {
	client := natsClient(t)
	ctx := context.Background()

	var mu sync.Mutex
	var received []event.Record
	require.NoError(t, client.Subscribe("it.events.>", func(_ string, data []byte) {
		var r event.Record
		if err := json.Unmarshal(data, &r); err == nil {
			mu.Lock()
			received = append(received, r)
			mu.Unlock()
		}
	}))
	require.NoError(t, client.Flush(ctx))

	b, err := New(client, "it.events")
	require.NoError(t, err)

	w := workflow.New("integration")
	w.AddListener(event.NewTap(ctx, b, w.Name()))
	require.NoError(t, w.SetRoot(ctx, workflow.NewProcessorElement("root", testutil.NewScript("test/root"))))
	require.NoError(t, w.Start(ctx, ""))
	require.NoError(t, client.Flush(ctx))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 6
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "add", received[0].Type)
	assert.Equal(t, "end", received[len(received)-1].Type)
	for _, r := range received {
		assert.Equal(t, "integration", r.Workflow)
	}
}
