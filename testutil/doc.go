// Package testutil provides test doubles shared by flowkit package tests.
//
// Recorder collects workflow events, raw stage events and failures. Script
// is an algorithm whose behavior a test supplies as a function. MockPublisher
// captures what an event sink would publish to NATS.
//
// For integration tests, StartNATS and NATS run a real server in a container
// through testcontainers. Those tests are gated behind INTEGRATION_TESTS=1.
package testutil
