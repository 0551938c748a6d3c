// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package queue

import "context"

// Store is the persistence contract for queued operations.
//
// List must return operations in enqueue order; everything FIFO about the
// queue rests on that ordering.
type Store interface {
	// Append persists a new operation at the tail of the queue.
	Append(ctx context.Context, op *Operation) error

	// List returns all operations of one kind in enqueue order.
	List(ctx context.Context, kind Kind) ([]*Operation, error)

	// Update persists status, attempts and last error of an operation.
	Update(ctx context.Context, op *Operation) error

	// Remove deletes a completed operation.
	Remove(ctx context.Context, id string) error

	// Clear deletes every operation of one kind.
	Clear(ctx context.Context, kind Kind) error
}
