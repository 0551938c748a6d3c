package relay

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendaro/vendaro/internal/platform/apperr"
	"github.com/vendaro/vendaro/internal/platform/respond"
	"github.com/vendaro/vendaro/internal/queue"
)

type Handler struct {
	client    *Client
	mutations *queue.Queue
	uploads   *queue.UploadQueue
	monitor   *Monitor
}

func NewHandler(client *Client, mutations *queue.Queue, uploads *queue.UploadQueue, monitor *Monitor) *Handler {
	return &Handler{
		client:    client,
		mutations: mutations,
		uploads:   uploads,
		monitor:   monitor,
	}
}

// RegisterProxyRoutes mounts the upstream pass-through. The wildcard tail is
// the upstream-relative resource path, e.g. /relay/wc/v3/products/42.
func (handler *Handler) RegisterProxyRoutes(router chi.Router) {
	router.Get("/*", handler.get)
	router.Post("/*", handler.mutate)
	router.Put("/*", handler.mutate)
	router.Patch("/*", handler.mutate)
	router.Delete("/*", handler.mutate)
}

// RegisterQueueRoutes mounts queue inspection and management.
func (handler *Handler) RegisterQueueRoutes(router chi.Router) {
	router.Get("/", handler.listQueues)
	router.Post("/process", handler.processQueues)
	router.Post("/retry", handler.retryQueues)
	router.Delete("/", handler.clearQueues)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	path := chi.URLParam(request, "*")

	response, err := handler.client.Get(request.Context(), path, request.URL.Query())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Raw(writer, response.Status, response.Body)
}

func (handler *Handler) mutate(writer http.ResponseWriter, request *http.Request) {
	path := chi.URLParam(request, "*")

	body, err := io.ReadAll(request.Body)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("unreadable request body"))
		return
	}

	// Known-offline: queue straight away instead of burning a timeout.
	if !handler.monitor.Online() {
		op := handler.client.EnqueueMutation(request.Context(), request.Method, path, body)
		respond.Queued(writer, op.ID)
		return
	}

	response, op, err := handler.client.Mutate(request.Context(), request.Method, path, body)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if op != nil {
		handler.monitor.SetOnline(request.Context(), false)
		respond.Queued(writer, op.ID)
		return
	}

	// A connectivity-restored transition drains the queues; that must not
	// sit on this request's latency path.
	go handler.monitor.SetOnline(context.WithoutCancel(request.Context()), true)
	respond.Raw(writer, response.Status, response.Body)
}

// Upload handles POST /api/v1/uploads. The body is the raw media file; it is
// spooled locally and always acknowledged as queued, with replay kicked off
// immediately when the upstream is reachable.
func (handler *Handler) Upload(writer http.ResponseWriter, request *http.Request) {
	body, err := io.ReadAll(request.Body)
	if err != nil || len(body) == 0 {
		respond.Error(writer, request, apperr.ValidationError("empty upload body"))
		return
	}

	path := request.URL.Query().Get("path")
	if path == "" {
		path = "wp/v2/media"
	}

	op, enqueueErr := handler.client.EnqueueUpload(
		request.Context(),
		path,
		body,
		request.Header.Get("Content-Type"),
		request.URL.Query().Get("filename"),
	)
	if enqueueErr != nil {
		respond.Error(writer, request, enqueueErr)
		return
	}

	if handler.monitor.Online() {
		go handler.uploads.ProcessQueue(context.WithoutCancel(request.Context()))
	}

	respond.Queued(writer, op.ID)
}

// Status handles GET /api/v1/status: connectivity plus queue counts, the
// payload behind the PWA's offline badge.
func (handler *Handler) Status(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]interface{}{
		"online":  handler.monitor.Online(),
		"queue":   handler.mutations.Counts(request.Context()),
		"uploads": handler.uploads.Counts(request.Context()),
	})
}

func (handler *Handler) listQueues(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]interface{}{
		"operations": handler.mutations.GetAll(request.Context()),
		"uploads":    handler.uploads.GetAll(request.Context()),
	})
}

func (handler *Handler) processQueues(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	respond.OK(writer, map[string]interface{}{
		"results":        handler.mutations.ProcessAll(ctx),
		"upload_results": handler.uploads.ProcessQueue(ctx),
	})
}

func (handler *Handler) retryQueues(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	respond.OK(writer, map[string]interface{}{
		"reset":         handler.mutations.RetryFailed(ctx),
		"uploads_reset": handler.uploads.RetryFailedUploads(ctx),
	})
}

func (handler *Handler) clearQueues(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	if err := handler.mutations.Clear(ctx); err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}
	if err := handler.uploads.Clear(ctx); err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}
	respond.NoContent(writer)
}
