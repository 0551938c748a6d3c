// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package middleware

import (
	"net/http"
	"strings"

	"github.com/vendaro/vendaro/internal/platform/apperr"
	"github.com/vendaro/vendaro/internal/platform/ctxutil"
	"github.com/vendaro/vendaro/internal/platform/identity"
	"github.com/vendaro/vendaro/internal/platform/respond"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the identity
// package's concrete verifier, allowing us to easily inject mocks during
// unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*identity.Vendor, error)
}

// Authenticate extracts and verifies the vendor JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous (read-only catalog access).
//  3. If present, parse and verify the JWT via [TokenVerifier].
//  4. Inject [*identity.Vendor] into the request context for downstream use;
//     the raw token stays on the identity so the relay can forward it upstream.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			vendor, err := verifier.VerifyToken(parts[1])
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithVendor(request.Context(), vendor)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireVendor rejects anonymous requests. It is mounted on route groups
// that mutate upstream state (relay, queue management, sync).
func RequireVendor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if ctxutil.GetVendor(request.Context()) == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}
