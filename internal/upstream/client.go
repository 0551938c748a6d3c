// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

/*
Package upstream is the HTTP client for the remote marketplace REST API
(WordPress/WooCommerce-compatible).

It owns the three concerns every caller shares:

  - Envelope decoding: collections arrive as bare arrays or wrapped under a
    handful of known keys; shapes are matched in a fixed priority order.
  - Entity normalization: source field names vary per plugin; records are
    mapped into one [Entity] shape and records without an ID are dropped.
  - Error taxonomy: a network-class failure (nothing reached the upstream) is
    distinguished from an upstream rejection (non-2xx response), because the
    relay queues the former and must never queue the latter.
*/
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vendaro/vendaro/internal/platform/constants"
)

// ErrUnavailable wraps every network-class failure: timeout, refused
// connection, DNS failure, anything where no response was received.
var ErrUnavailable = errors.New("upstream unavailable")

// StatusError is a non-2xx upstream response. The request reached the
// backend and was rejected, so it is never safe to blindly replay.
type StatusError struct {
	Status int
	Body   []byte
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

// IsUnavailable reports whether err is a network-class failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Response is a completed upstream exchange, kept as raw bytes so the relay
// can pass bodies through without re-encoding.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Page is one page of a paginated collection resource.
type Page struct {
	Items []Entity

	// RawCount is how many records the upstream shipped before
	// normalization. Short-page detection must use this, not len(Items):
	// normalization drops ID-less records, and a full page with one bad
	// record is not the end of the collection.
	RawCount int

	// Total and TotalPages mirror the X-WP-Total / X-WP-TotalPages response
	// headers. They are -1 when the upstream omits them; callers must fall
	// back to walking until a short page.
	Total      int
	TotalPages int
}

// Client talks to the remote marketplace API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	quickTimeout time.Duration
	bulkTimeout  time.Duration
	log          *slog.Logger
}

// NewClient constructs an upstream [Client].
//
// # Parameters
//   - baseURL: Root of the REST surface (e.g. https://market.example.com/wp-json), no trailing slash.
//   - quickTimeout: Deadline for single-entity and proxied calls.
//   - bulkTimeout: Deadline for one page request inside a catalog walk.
//   - logger: Structured logger for request-level events.
func NewClient(baseURL string, quickTimeout, bulkTimeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		// Per-call deadlines come from contexts; the transport itself stays unbounded.
		httpClient:   &http.Client{},
		baseURL:      baseURL,
		quickTimeout: quickTimeout,
		bulkTimeout:  bulkTimeout,
		log:          logger,
	}
}

// FetchPage requests one page of a paginated collection resource.
//
// # Failure Posture
//
// A network failure or rejection is returned as an error; a malformed or
// unrecognizable body yields an empty page instead, because a collection
// endpoint shipping garbage is handled identically to one shipping nothing.
func (c *Client) FetchPage(ctx context.Context, resource string, page, perPage int, token string) (*Page, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	response, err := c.Do(ctx, http.MethodGet, resource, query, nil, token, c.bulkTimeout)
	if err != nil {
		return nil, err
	}

	result := &Page{
		Total:      headerInt(response.Header, constants.HeaderWPTotal),
		TotalPages: headerInt(response.Header, constants.HeaderWPTotalPages),
	}

	records, err := DecodeCollection(response.Body)
	if err != nil {
		c.log.Warn("upstream_page_unparseable",
			slog.String("resource", resource),
			slog.Int("page", page),
		)
		return result, nil
	}

	result.RawCount = len(records)
	result.Items = make([]Entity, 0, len(records))
	for _, record := range records {
		if entity, ok := NormalizeRecord(record); ok {
			result.Items = append(result.Items, entity)
		}
	}

	return result, nil
}

// Do performs one upstream exchange.
//
// # Returns
//   - *Response: The raw exchange for any 2xx status.
//   - error: [ErrUnavailable]-wrapped for network-class failures, a
//     [*StatusError] for non-2xx responses.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body []byte, token string, timeout time.Duration) (*Response, error) {
	headers := map[string]string{}
	if body != nil {
		headers["Content-Type"] = "application/json"
	}
	return c.DoWithHeaders(ctx, method, path, query, body, headers, token, timeout)
}

// DoWithHeaders is [Client.Do] with caller-controlled request headers, used
// by the relay to forward media upload bodies verbatim (their Content-Type
// and Content-Disposition must survive the hop).
func (c *Client) DoWithHeaders(ctx context.Context, method, path string, query url.Values, body []byte, headers map[string]string, token string, timeout time.Duration) (*Response, error) {
	requestCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.baseURL + "/" + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	request, err := http.NewRequestWithContext(requestCtx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}

	request.Header.Set("Accept", "application/json")
	for name, value := range headers {
		request.Header.Set(name, value)
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		// No response was received; this is the queueable class.
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = response.Body.Close() }()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &StatusError{Status: response.StatusCode, Body: payload}
	}

	return &Response{
		Status: response.StatusCode,
		Header: response.Header,
		Body:   payload,
	}, nil
}

// Ping probes upstream reachability with the quick deadline.
//
// Any response at all counts as reachable; even a 404 proves the network
// path and the server are up.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, http.MethodGet, "", nil, nil, "", c.quickTimeout)
	if err != nil && IsUnavailable(err) {
		return err
	}
	return nil
}

// QuickTimeout exposes the single-call deadline for callers that build their
// own exchanges (the relay).
func (c *Client) QuickTimeout() time.Duration {
	return c.quickTimeout
}

// headerInt parses an integer response header, returning -1 when absent or
// malformed.
func headerInt(header http.Header, name string) int {
	raw := header.Get(name)
	if raw == "" {
		return -1
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return value
}
