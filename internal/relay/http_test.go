// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package relay_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaro/vendaro/internal/platform/cache"
	"github.com/vendaro/vendaro/internal/queue"
	"github.com/vendaro/vendaro/internal/relay"
	"github.com/vendaro/vendaro/internal/upstream"
)

/*
TestHandler_MutateResponseNotBlockedByDrain verifies that a successful
mutation answers the caller immediately even when the connectivity-restored
transition it triggers is busy draining the queues.

The upstream stub flips the monitor offline mid-request, so the success path
observes an offline-to-online transition and runs the drain callbacks.
*/
func TestHandler_MutateResponseNotBlockedByDrain(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	var monitor *relay.Monitor
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		// Fresh evidence arrives while the mutation is in flight: a probe
		// marked the upstream offline after the handler's online check.
		monitor.SetOnline(context.Background(), false)
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte(`{"ok": true}`))
	}))
	t.Cleanup(server.Close)

	upstreamClient := upstream.NewClient(server.URL, 2*time.Second, 5*time.Second, logger)
	responses := cache.New[relay.Response](cache.Options{Logger: logger})
	store := queue.NewMemoryStore()

	var client *relay.Client
	mutations := queue.New(queue.KindMutation, store,
		func(ctx context.Context, op *queue.Operation) error {
			return client.MutationSender()(ctx, op)
		}, nil, logger)
	uploads := queue.NewUploadQueue(store,
		func(ctx context.Context, op *queue.Operation) error {
			return client.UploadSender()(ctx, op)
		}, nil, logger)
	client = relay.NewClient(upstreamClient, responses, mutations, uploads, t.TempDir(), logger)

	monitor = relay.NewMonitor(func(context.Context) error { return nil }, time.Minute, logger)
	entered := make(chan struct{})
	release := make(chan struct{})
	monitor.OnOnline(func(context.Context) {
		close(entered)
		<-release
	})
	defer close(release)

	router := chi.NewRouter()
	relay.NewHandler(client, mutations, uploads, monitor).RegisterProxyRoutes(router)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPut, "/wc/v3/products/5", strings.NewReader(`{"name": "updated"}`))
	request = request.WithContext(vendorContext(7))

	responded := make(chan struct{})
	go func() {
		router.ServeHTTP(recorder, request)
		close(responded)
	}()

	select {
	case <-responded:
	case <-time.After(2 * time.Second):
		t.Fatal("mutation response stuck behind the drain callbacks")
	}
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"ok": true}`, recorder.Body.String())

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("drain callbacks never ran after the transition")
	}
	require.True(t, monitor.Online())
}
