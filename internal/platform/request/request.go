// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendaro/vendaro/internal/platform/apperr"
	"github.com/vendaro/vendaro/internal/platform/ctxutil"
	"github.com/vendaro/vendaro/internal/platform/identity"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: apperr.ValidationError if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return apperr.ValidationError("Request body is not valid JSON")
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Vendor extracts the authenticated vendor from the request context.

Returns nil if the request is not authenticated.
*/
func Vendor(request *http.Request) *identity.Vendor {
	return ctxutil.GetVendor(request.Context())
}

/*
RequiredVendor ensures the request is authenticated and returns the vendor.

Returns:
  - *identity.Vendor: The authenticated vendor
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredVendor(request *http.Request) (*identity.Vendor, error) {

	// Get vendor identity
	vendor := ctxutil.GetVendor(request.Context())

	// If the vendor is not authenticated, return an error
	if vendor == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return vendor, nil
}
