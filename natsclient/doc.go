// Package natsclient wraps a nats.go connection with a circuit breaker.
//
// The client moves through Disconnected, Connecting, Connected and
// Reconnecting. After a run of failed connects (five by default) the circuit
// opens: Connect fails fast with an error matching errors.ErrCircuitOpen
// until the backoff elapses, then the next Connect tries again. Every
// opening doubles the backoff up to a cap.
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//		natsclient.WithLogger(logger),
//		natsclient.WithMetrics(registry.CoreMetrics()),
//	)
//	if err != nil {
//		return err
//	}
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//	defer client.Close(context.Background())
//
//	err = client.Publish(ctx, "flowkit.events.demo.start", data)
//
// Connection state and circuit transitions are exported through the
// flowkit_nats_* gauges of metric.Metrics when WithMetrics is set.
package natsclient
