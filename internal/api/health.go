// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

// Package api contains the health check handlers for liveness and readiness probes.
package api

import (
	"log/slog"
	"net/http"

	"github.com/vendaro/vendaro/internal/platform/constants"
	"github.com/vendaro/vendaro/internal/platform/respond"
)

// HealthDependencies holds the injectable dependency checkers for the /ready endpoint.
type HealthDependencies struct {
	// CheckDatabase pings the PostgreSQL pool.
	CheckDatabase func() error

	// CheckCache pings the Redis client.
	CheckCache func() error

	// CheckUpstream probes the marketplace API. An unreachable upstream
	// degrades readiness but the check is still reported individually; the
	// whole point of the offline queue is surviving exactly this state.
	CheckUpstream func() error
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{
		"status":  "ok",
		"version": constants.AppVersion,
	})
}

// readiness handles GET /ready (Readiness probe).
//
// Postgres and Redis are hard dependencies: either failing flips the probe
// to 503. The upstream check is informational only.
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	type checkResult struct {
		Name  string `json:"name"`
		IsOK  bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	results := make([]checkResult, 0, 3)
	isSystemReady := true

	check := func(name string, probe func() error, hard bool) {
		if probe == nil {
			return
		}
		result := checkResult{Name: name, IsOK: true}
		if err := probe(); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			if hard {
				isSystemReady = false
			}
			handler.logger.Error("readiness_check_failed", slog.String("dependency", name), slog.Any("error", err))
		}
		results = append(results, result)
	}

	check("postgres", handler.dependencies.CheckDatabase, true)
	check("redis", handler.dependencies.CheckCache, true)
	check("upstream", handler.dependencies.CheckUpstream, false)

	responseStatus := "ready"
	httpStatus := http.StatusOK
	if !isSystemReady {
		responseStatus = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		"status": responseStatus,
		"checks": results,
	}})
}
