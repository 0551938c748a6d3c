// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the durable [Store] backed by the queued_operations
// table. The bigserial seq column preserves enqueue order across restarts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a store over an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, op *Operation) error {
	headers, err := json.Marshal(op.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}

	// Bodyless operations (DELETE mutations) go in as NULL: the body column
	// is jsonb and rejects the empty string.
	var body any
	if len(op.Body) > 0 {
		body = []byte(op.Body)
	}

	query := `
		INSERT INTO queued_operations
			(id, vendor_id, kind, url, method, body, headers, media_path, status, attempts, last_error, enqueued_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = s.pool.Exec(ctx, query,
		op.ID, op.VendorID, string(op.Kind), op.URL, op.Method,
		body, headers, op.MediaPath,
		string(op.Status), op.Attempts, op.LastError, op.EnqueuedAt,
	)
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, kind Kind) ([]*Operation, error) {
	query := `
		SELECT id, vendor_id, kind, url, method, body, headers, media_path, status, attempts, last_error, enqueued_at
		FROM queued_operations
		WHERE kind = $1
		ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var operations []*Operation
	for rows.Next() {
		var (
			op      Operation
			kindCol string
			status  string
			body    []byte
			headers []byte
		)
		err := rows.Scan(
			&op.ID, &op.VendorID, &kindCol, &op.URL, &op.Method,
			&body, &headers, &op.MediaPath,
			&status, &op.Attempts, &op.LastError, &op.EnqueuedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Kind = Kind(kindCol)
		op.Status = Status(status)
		op.Body = json.RawMessage(body)
		if len(headers) > 0 {
			if err := json.Unmarshal(headers, &op.Headers); err != nil {
				return nil, fmt.Errorf("unmarshal headers: %w", err)
			}
		}
		operations = append(operations, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return operations, nil
}

func (s *PostgresStore) Update(ctx context.Context, op *Operation) error {
	query := `
		UPDATE queued_operations
		SET status = $2, attempts = $3, last_error = $4
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, op.ID, string(op.Status), op.Attempts, op.LastError)
	if err != nil {
		return fmt.Errorf("update operation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM queued_operations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove operation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, kind Kind) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM queued_operations WHERE kind = $1`, string(kind))
	if err != nil {
		return fmt.Errorf("clear operations: %w", err)
	}
	return nil
}
