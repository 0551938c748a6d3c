// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaro/vendaro/internal/platform/apperr"
	"github.com/vendaro/vendaro/internal/platform/ctxutil"
	"github.com/vendaro/vendaro/internal/platform/identity"
	"github.com/vendaro/vendaro/internal/platform/middleware"
)

// stubVerifier accepts exactly one token.
type stubVerifier struct {
	valid  string
	vendor *identity.Vendor
}

func (v *stubVerifier) VerifyToken(tokenStr string) (*identity.Vendor, error) {
	if tokenStr == v.valid {
		return v.vendor, nil
	}
	return nil, apperr.Unauthorized("Invalid or expired token")
}

// capture records the vendor visible to the wrapped handler.
func capture(vendor **identity.Vendor) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*vendor = ctxutil.GetVendor(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
}

/*
TestAuthenticate_AnonymousPassesThrough verifies that requests without an
Authorization header proceed with no vendor identity.
*/
func TestAuthenticate_AnonymousPassesThrough(t *testing.T) {
	var seen *identity.Vendor
	handler := middleware.Authenticate(&stubVerifier{})(capture(&seen))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/brands", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, seen)
}

/*
TestAuthenticate_ValidToken verifies vendor injection on a valid bearer.
*/
func TestAuthenticate_ValidToken(t *testing.T) {
	var seen *identity.Vendor
	verifier := &stubVerifier{
		valid:  "good-token",
		vendor: &identity.Vendor{ID: 7, Login: "acme", Token: "good-token"},
	}
	handler := middleware.Authenticate(verifier)(capture(&seen))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/relay/wc/v3/orders", nil)
	request.Header.Set("Authorization", "Bearer good-token")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(7), seen.ID)
	assert.Equal(t, "good-token", seen.Token)
}

/*
TestAuthenticate_Rejections verifies malformed headers and bad tokens are
rejected with 401.
*/
func TestAuthenticate_Rejections(t *testing.T) {
	verifier := &stubVerifier{valid: "good-token"}

	for name, header := range map[string]string{
		"not bearer":  "Basic dXNlcjpwYXNz",
		"no token":    "Bearer",
		"bad token":   "Bearer forged",
		"extra parts": "Bearer a b",
	} {
		t.Run(name, func(t *testing.T) {
			var seen *identity.Vendor
			handler := middleware.Authenticate(verifier)(capture(&seen))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.Header.Set("Authorization", header)

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.Nil(t, seen)
		})
	}
}

/*
TestRequireVendor verifies the vendor gate on mutating route groups.
*/
func TestRequireVendor(t *testing.T) {
	var seen *identity.Vendor
	handler := middleware.RequireVendor()(capture(&seen))

	// 1. Anonymous request is rejected.
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// 2. Authenticated request passes.
	request := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	request = request.WithContext(ctxutil.WithVendor(request.Context(), &identity.Vendor{ID: 7}))

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, seen)
}
