// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

/*
Package queue implements the durable offline operation queues.

When a vendor mutation cannot reach the marketplace backend, the relay parks
it here instead of failing; queued operations replay strictly in enqueue
order once connectivity returns, so a create-then-update pair lands in the
order it was issued.

State machine per operation:

	pending → processing → done (removed) | failed

Failed operations are replayed only on an explicit trigger (connectivity
restored, or a manual retry), never in a tight automatic loop against a
still-broken backend.
*/
package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/vendaro/vendaro/pkg/uuidv7"
)

// Status is the lifecycle state of one queued operation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
)

// Kind separates the generic mutation queue from the media upload queue.
// Both share one store and one state machine.
type Kind string

const (
	KindMutation Kind = "mutation"
	KindUpload   Kind = "upload"
)

// Operation is one parked write against the upstream API.
type Operation struct {
	ID       string `json:"id"`
	VendorID int64  `json:"vendor_id"`
	Kind     Kind   `json:"kind"`

	// URL is the upstream-relative request path, Method its HTTP verb.
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Body    json.RawMessage   `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// MediaPath references the binary payload of an upload operation
	// (a spool file path); upload bodies are not stored inline.
	MediaPath string `json:"media_path,omitempty"`

	Status     Status    `json:"status"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Result is the per-operation outcome of one replay pass.
type Result struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Counts is the aggregate queue state for UI badges.
type Counts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// Sender performs the network call for one operation during replay.
//
// A nil return marks the operation done; any error marks it failed. The
// sender decides nothing about retries; that is the queue's contract.
type Sender func(ctx context.Context, op *Operation) error

// Queue is a FIFO replay queue over a durable [Store].
//
// All methods are safe for concurrent use.
type Queue struct {
	kind   Kind
	store  Store
	sender Sender
	lock   ReplayLock
	log    *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	replaying bool
}

// New constructs a queue for one operation kind.
//
// # Parameters
//   - kind: Which operations this queue owns.
//   - store: Durable FIFO storage.
//   - sender: Network executor used during replay.
//   - lock: Optional cross-process replay lease; nil disables it.
//   - logger: Structured logger.
func New(kind Kind, store Store, sender Sender, lock ReplayLock, logger *slog.Logger) *Queue {
	return &Queue{
		kind:   kind,
		store:  store,
		sender: sender,
		lock:   lock,
		log:    logger,
		now:    time.Now,
	}
}

// Enqueue appends an operation to the durable queue.
//
// It never blocks on the network and never fails: a storage error is logged
// and the operation is still returned so the caller can report "queued".
// Losing the optimistic UI state would be worse than a rare lost replay.
func (q *Queue) Enqueue(ctx context.Context, op *Operation) *Operation {
	op.ID = uuidv7.New()
	op.Kind = q.kind
	op.Status = StatusPending
	op.Attempts = 0
	op.EnqueuedAt = q.now()

	if err := q.store.Append(ctx, op); err != nil {
		q.log.Error("queue_append_failed",
			slog.String("operation_id", op.ID),
			slog.Any("error", err),
		)
	} else {
		q.log.Info("queue_operation_enqueued",
			slog.String("operation_id", op.ID),
			slog.String("method", op.Method),
			slog.String("url", op.URL),
		)
	}

	return op
}

// ProcessAll replays pending operations in strict FIFO order.
//
// # Concurrency
//
// Only one replay pass runs at a time: a second invocation while one is
// in flight is a no-op returning nil, preventing double submission. With a
// [ReplayLock] configured the guarantee extends across processes sharing
// the store.
//
// # Failure Isolation
//
// Each operation succeeds or fails individually; a failed operation never
// blocks replay of the ones behind it.
func (q *Queue) ProcessAll(ctx context.Context) []Result {
	q.mu.Lock()
	if q.replaying {
		q.mu.Unlock()
		return nil
	}
	q.replaying = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.replaying = false
		q.mu.Unlock()
	}()

	if q.lock != nil {
		release, acquired := q.lock.Acquire(ctx)
		if !acquired {
			// Another process holds the replay lease.
			return nil
		}
		defer release()
	}

	operations, err := q.store.List(ctx, q.kind)
	if err != nil {
		q.log.Error("queue_list_failed", slog.Any("error", err))
		return nil
	}

	var results []Result
	for _, op := range operations {
		if op.Status != StatusPending {
			continue
		}

		op.Status = StatusProcessing
		if err := q.store.Update(ctx, op); err != nil {
			q.log.Error("queue_update_failed", slog.String("operation_id", op.ID), slog.Any("error", err))
		}

		op.Attempts++
		sendErr := q.sender(ctx, op)

		if sendErr == nil {
			if err := q.store.Remove(ctx, op.ID); err != nil {
				q.log.Error("queue_remove_failed", slog.String("operation_id", op.ID), slog.Any("error", err))
			}
			results = append(results, Result{ID: op.ID, Success: true})
			q.log.Info("queue_operation_replayed", slog.String("operation_id", op.ID))
			continue
		}

		op.Status = StatusFailed
		op.LastError = sendErr.Error()
		if err := q.store.Update(ctx, op); err != nil {
			q.log.Error("queue_update_failed", slog.String("operation_id", op.ID), slog.Any("error", err))
		}
		results = append(results, Result{ID: op.ID, Success: false, Error: op.LastError})
		q.log.Warn("queue_operation_failed",
			slog.String("operation_id", op.ID),
			slog.Int("attempts", op.Attempts),
			slog.String("error", op.LastError),
		)
	}

	return results
}

// RetryFailed resets every failed operation to pending so the next replay
// pass picks it up again. Operations stranded in processing, left behind by
// a crash mid-replay, are reset the same way. It returns how many operations
// were reset.
func (q *Queue) RetryFailed(ctx context.Context) int {
	operations, err := q.store.List(ctx, q.kind)
	if err != nil {
		q.log.Error("queue_list_failed", slog.Any("error", err))
		return 0
	}

	reset := 0
	for _, op := range operations {
		if op.Status != StatusFailed && op.Status != StatusProcessing {
			continue
		}
		op.Status = StatusPending
		op.LastError = ""
		if err := q.store.Update(ctx, op); err != nil {
			q.log.Error("queue_update_failed", slog.String("operation_id", op.ID), slog.Any("error", err))
			continue
		}
		reset++
	}

	return reset
}

// GetAll returns a snapshot of the queue in FIFO order, for diagnostics.
func (q *Queue) GetAll(ctx context.Context) []*Operation {
	operations, err := q.store.List(ctx, q.kind)
	if err != nil {
		q.log.Error("queue_list_failed", slog.Any("error", err))
		return []*Operation{}
	}
	return operations
}

// Counts aggregates the queue state for status badges.
func (q *Queue) Counts(ctx context.Context) Counts {
	counts := Counts{}
	for _, op := range q.GetAll(ctx) {
		counts.Total++
		switch op.Status {
		case StatusPending:
			counts.Pending++
		case StatusProcessing:
			counts.Processing++
		case StatusFailed:
			counts.Failed++
		}
	}
	return counts
}

// Clear destructively resets the queue.
func (q *Queue) Clear(ctx context.Context) error {
	return q.store.Clear(ctx, q.kind)
}
