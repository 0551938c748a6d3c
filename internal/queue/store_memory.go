// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package queue

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory [Store] used in tests and as a fallback when
// no database is configured. Operations are lost on restart.
type MemoryStore struct {
	mu         sync.Mutex
	operations []*Operation
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, op *Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *op
	s.operations = append(s.operations, &clone)
	return nil
}

func (s *MemoryStore) List(_ context.Context, kind Kind) ([]*Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Operation, 0, len(s.operations))
	for _, op := range s.operations {
		if op.Kind != kind {
			continue
		}
		clone := *op
		out = append(out, &clone)
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, op *Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.operations {
		if existing.ID == op.ID {
			clone := *op
			s.operations[i] = &clone
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.operations {
		if existing.ID == id {
			s.operations = append(s.operations[:i], s.operations[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.operations[:0]
	for _, op := range s.operations {
		if op.Kind != kind {
			kept = append(kept, op)
		}
	}
	s.operations = kept
	return nil
}
