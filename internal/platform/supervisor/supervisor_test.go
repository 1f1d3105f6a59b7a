// Copyright (c) 2026 Eventhub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package supervisor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/eventhub/internal/platform/supervisor"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeServer blocks in ListenAndServe until shut down.
type fakeServer struct {
	stopped  chan struct{}
	fail     error
	shutdown atomic.Bool
}

func newFakeServer() *fakeServer { return &fakeServer{stopped: make(chan struct{})} }

func (s *fakeServer) ListenAndServe() error {
	if s.fail != nil {
		return s.fail
	}
	<-s.stopped
	return http.ErrServerClosed
}

func (s *fakeServer) Shutdown(context.Context) error {
	s.shutdown.Store(true)
	close(s.stopped)
	return nil
}

/*
TestHTTPService_GracefulShutdown shuts the server down when ctx ends.
*/
func TestHTTPService_GracefulShutdown(t *testing.T) {
	server := newFakeServer()
	service := supervisor.NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Serve(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	assert.True(t, server.shutdown.Load())
}

/*
TestHTTPService_ListenFailure surfaces bind errors to the supervisor.
*/
func TestHTTPService_ListenFailure(t *testing.T) {
	server := newFakeServer()
	server.fail = errors.New("address already in use")

	err := supervisor.NewHTTPService(server, time.Second).Serve(context.Background())
	assert.ErrorContains(t, err, "address already in use")
}

// counting runs until cancelled and counts its starts.
type counting struct {
	starts atomic.Int32
}

func (c *counting) Serve(ctx context.Context) error {
	c.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

/*
TestTree_RunsEveryLayer starts services in both layers and stops them on cancel.
*/
func TestTree_RunsEveryLayer(t *testing.T) {
	tree := supervisor.New("eventhub-test", supervisor.Config{ShutdownTimeout: time.Second}, discard)

	pipelineService, apiService := &counting{}, &counting{}
	tree.AddPipeline(pipelineService)
	tree.AddAPI(apiService)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tree.Serve(ctx) }()

	require.Eventually(t, func() bool {
		return pipelineService.starts.Load() == 1 && apiService.starts.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	require.NoError(t, err)
	assert.Empty(t, report)
}
