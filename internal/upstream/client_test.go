// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package upstream_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaro/vendaro/internal/upstream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestClient(baseURL string) *upstream.Client {
	return upstream.NewClient(baseURL, 2*time.Second, 5*time.Second, testLogger())
}

/*
TestClient_Do_Success verifies a plain 2xx exchange, including bearer token
forwarding.
*/
func TestClient_Do_Success(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		gotAuth = request.Header.Get("Authorization")
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	response, err := client.Do(context.Background(), http.MethodGet, "wc/v3/products", nil, nil, "tok123", 2*time.Second)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.Status)
	assert.JSONEq(t, `{"ok": true}`, string(response.Body))
	assert.Equal(t, "Bearer tok123", gotAuth)
}

/*
TestClient_Do_StatusError verifies that a non-2xx response surfaces as a
StatusError and is not classified as unavailable.
*/
func TestClient_Do_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		http.Error(writer, "nope", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Do(context.Background(), http.MethodPost, "wc/v3/products", nil, []byte(`{}`), "", 2*time.Second)

	require.Error(t, err)
	assert.False(t, upstream.IsUnavailable(err))

	var statusErr *upstream.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.Status)
}

/*
TestClient_Do_Unavailable verifies that a refused connection is classified
as a network-class failure.
*/
func TestClient_Do_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // nothing listens anymore

	client := newTestClient(server.URL)
	_, err := client.Do(context.Background(), http.MethodGet, "wc/v3/products", nil, nil, "", 2*time.Second)

	require.Error(t, err)
	assert.True(t, upstream.IsUnavailable(err))
}

/*
TestClient_DoWithHeaders verifies that caller headers survive the hop.
*/
func TestClient_DoWithHeaders(t *testing.T) {
	var gotContentType, gotDisposition string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		gotContentType = request.Header.Get("Content-Type")
		gotDisposition = request.Header.Get("Content-Disposition")
		writer.WriteHeader(http.StatusCreated)
		_, _ = writer.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	headers := map[string]string{
		"Content-Type":        "image/png",
		"Content-Disposition": `attachment; filename="photo.png"`,
	}
	_, err := client.DoWithHeaders(context.Background(), http.MethodPost, "wp/v2/media", nil, []byte("rawbytes"), headers, "", 2*time.Second)

	require.NoError(t, err)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, `attachment; filename="photo.png"`, gotDisposition)
}

/*
TestClient_FetchPage verifies pagination header parsing and normalization of
the page body.
*/
func TestClient_FetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "2", request.URL.Query().Get("page"))
		assert.Equal(t, "100", request.URL.Query().Get("per_page"))

		writer.Header().Set("X-WP-Total", "150")
		writer.Header().Set("X-WP-TotalPages", "2")
		_, _ = writer.Write([]byte(`[{"id": 1, "name": "A", "slug": "a"}, {"name": "no id"}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.FetchPage(context.Background(), "wc/v3/products/brands", 2, 100, "")

	require.NoError(t, err)
	assert.Equal(t, 150, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	// The record without an ID is dropped during normalization, but the raw
	// count still reflects what the upstream shipped.
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Items[0].ID)
	assert.Equal(t, 2, page.RawCount)
}

/*
TestClient_FetchPage_MalformedBody verifies that an unparseable body yields
an empty page rather than an error.
*/
func TestClient_FetchPage_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.FetchPage(context.Background(), "wc/v3/products/brands", 1, 100, "")

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, -1, page.Total)
	assert.Equal(t, -1, page.TotalPages)
}

/*
TestClient_Ping verifies that any HTTP response counts as reachable, while a
dead socket does not.
*/
func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		http.NotFound(writer, request)
	}))

	client := newTestClient(server.URL)
	assert.NoError(t, client.Ping(context.Background()), "a 404 still proves reachability")

	server.Close()
	assert.Error(t, client.Ping(context.Background()))
}
