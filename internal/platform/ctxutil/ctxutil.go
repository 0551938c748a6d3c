// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/vendaro/vendaro/internal/platform/ctxkey"
	"github.com/vendaro/vendaro/internal/platform/identity"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithVendor returns a new context with the provided vendor identity attached.
func WithVendor(ctx context.Context, vendor *identity.Vendor) context.Context {
	return context.WithValue(ctx, ctxkey.KeyVendor, vendor)
}

// GetVendor retrieves the [*identity.Vendor] from the [context.Context].
func GetVendor(ctx context.Context) *identity.Vendor {
	vendor, ok := ctx.Value(ctxkey.KeyVendor).(*identity.Vendor)
	if !ok {
		return nil
	}
	return vendor
}
