package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/a3tai/doc-intake/internal/config"
)

func TestServerRunStdio(t *testing.T) {
	env := newTestEnv(t, nil)

	// Test that the server can start (and quickly stop)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- env.server.runStdioMode(ctx)
	}()

	select {
	case err := <-done:
		// stdin is closed under go test, so serving ends on its own
		if err != nil {
			t.Logf("Server stopped with: %v (expected when stdin is closed)", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Log("Server still waiting on stdin")
	}
}

func TestServerRunServerModeFallsBack(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Mode = config.ModeServer })

	done := make(chan error, 1)
	go func() {
		done <- env.server.Run(context.Background())
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Logf("Server stopped with: %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Log("Server still waiting on stdin")
	}
}
