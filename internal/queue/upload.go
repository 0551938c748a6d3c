// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package queue

import (
	"context"
	"log/slog"
)

// UploadQueue wraps a [Queue] of kind [KindUpload] for media uploads.
//
// Uploads are large and slow, so they replay on their own queue: a stuck
// 20 MB image never blocks a one-line product update behind it.
type UploadQueue struct {
	inner *Queue
}

// NewUploadQueue constructs the upload queue over a shared store.
func NewUploadQueue(store Store, sender Sender, lock ReplayLock, logger *slog.Logger) *UploadQueue {
	return &UploadQueue{inner: New(KindUpload, store, sender, lock, logger)}
}

// EnqueueUpload parks a media upload for background replay. Like
// [Queue.Enqueue] it never fails.
func (u *UploadQueue) EnqueueUpload(ctx context.Context, op *Operation) *Operation {
	return u.inner.Enqueue(ctx, op)
}

// ProcessQueue replays pending uploads in enqueue order.
func (u *UploadQueue) ProcessQueue(ctx context.Context) []Result {
	return u.inner.ProcessAll(ctx)
}

// RetryFailedUploads resets failed uploads to pending and returns how many.
func (u *UploadQueue) RetryFailedUploads(ctx context.Context) int {
	return u.inner.RetryFailed(ctx)
}

// Counts aggregates the upload queue state.
func (u *UploadQueue) Counts(ctx context.Context) Counts {
	return u.inner.Counts(ctx)
}

// GetAll returns a snapshot of the upload queue in FIFO order.
func (u *UploadQueue) GetAll(ctx context.Context) []*Operation {
	return u.inner.GetAll(ctx)
}

// Clear destructively resets the upload queue.
func (u *UploadQueue) Clear(ctx context.Context) error {
	return u.inner.Clear(ctx)
}
