// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

/*
Package relay is the resilient request layer between the vendor PWA and the
upstream marketplace API.

Reads are served stale-while-revalidate: a cached response returns
immediately and a background refresh brings it up to date. Writes that fail
because the upstream is unreachable are parked on the durable offline queue
and acknowledged as queued instead of failing; writes the upstream actively
rejects are returned as errors and never queued.
*/
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/vendaro/vendaro/internal/platform/apperr"
	"github.com/vendaro/vendaro/internal/platform/cache"
	"github.com/vendaro/vendaro/internal/platform/constants"
	"github.com/vendaro/vendaro/internal/platform/ctxutil"
	"github.com/vendaro/vendaro/internal/platform/identity"
	"github.com/vendaro/vendaro/internal/queue"
	"github.com/vendaro/vendaro/internal/upstream"
)

// Response is one relayed upstream response. The body stays raw so the PWA
// receives exactly what the upstream produced.
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Client relays vendor requests to the upstream marketplace.
type Client struct {
	upstream  *upstream.Client
	responses *cache.Cache[Response]
	mutations *queue.Queue
	uploads   *queue.UploadQueue
	spoolDir  string
	log       *slog.Logger
}

// NewClient constructs the relay.
//
// # Parameters
//   - upstreamClient: Shared upstream HTTP client.
//   - responses: Cache for GET responses (stale-while-revalidate).
//   - mutations: Durable queue for failed writes.
//   - uploads: Durable queue for media uploads.
//   - spoolDir: Directory where upload bodies wait for replay.
//   - logger: Structured logger.
func NewClient(upstreamClient *upstream.Client, responses *cache.Cache[Response], mutations *queue.Queue, uploads *queue.UploadQueue, spoolDir string, logger *slog.Logger) *Client {
	return &Client{
		upstream:  upstreamClient,
		responses: responses,
		mutations: mutations,
		uploads:   uploads,
		spoolDir:  spoolDir,
		log:       logger,
	}
}

// Get relays a read with stale-while-revalidate caching.
//
// A fresh cached response is returned directly. A stale one is returned
// immediately while a background refresh replaces it. Only a cold miss
// blocks on the network.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (Response, error) {
	vendor := identityFrom(ctx)
	key := cacheKey(vendor, path, query)
	produce := c.producer(path, query, vendor.Token)

	if value, fresh, ok := c.responses.Peek(key, constants.RelayResponseTTL); ok {
		if !fresh {
			c.responses.RefreshAsync(context.WithoutCancel(ctx), key, produce)
		}
		return value, nil
	}

	value, err := c.responses.Get(ctx, key, constants.RelayResponseTTL, false, produce)
	if err != nil {
		return Response{}, translate(err)
	}
	return value, nil
}

// Mutate relays a write.
//
// # Returns
//   - *Response: The upstream response on success.
//   - *queue.Operation: Non-nil when the upstream was unreachable and the
//     write was queued for replay; the response is then nil.
//   - error: An upstream rejection (non-2xx) or internal failure. Rejections
//     are never queued: replaying a request the backend refused once would
//     refuse again or, worse, double-apply.
func (c *Client) Mutate(ctx context.Context, method, path string, body []byte) (*Response, *queue.Operation, error) {
	vendor := identityFrom(ctx)

	response, err := c.upstream.Do(ctx, method, path, nil, body, vendor.Token, c.upstream.QuickTimeout())
	if err == nil {
		c.invalidateFor(ctx, vendor, path)
		return &Response{Status: response.Status, Body: response.Body}, nil, nil
	}

	if upstream.IsUnavailable(err) {
		return nil, c.EnqueueMutation(ctx, method, path, body), nil
	}

	return nil, nil, translate(err)
}

// EnqueueMutation parks a write without attempting the network first, used
// when connectivity is already known to be down.
func (c *Client) EnqueueMutation(ctx context.Context, method, path string, body []byte) *queue.Operation {
	vendor := identityFrom(ctx)
	return c.mutations.Enqueue(ctx, &queue.Operation{
		VendorID: vendor.ID,
		URL:      path,
		Method:   method,
		Body:     body,
		Headers:  authHeaders(vendor.Token),
	})
}

// EnqueueUpload spools a media upload body to disk and parks the upload on
// the background queue. Uploads never block the request that submitted them.
func (c *Client) EnqueueUpload(ctx context.Context, path string, body []byte, contentType, filename string) (*queue.Operation, error) {
	vendor := identityFrom(ctx)

	if err := os.MkdirAll(c.spoolDir, 0o755); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create spool dir: %w", err))
	}
	spool, err := os.CreateTemp(c.spoolDir, "upload-*")
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("create spool file: %w", err))
	}
	if _, err := spool.Write(body); err != nil {
		_ = spool.Close()
		return nil, apperr.Internal(fmt.Errorf("write spool file: %w", err))
	}
	if err := spool.Close(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("close spool file: %w", err))
	}

	headers := authHeaders(vendor.Token)
	headers["Content-Type"] = contentType
	if filename != "" {
		headers["Content-Disposition"] = fmt.Sprintf("attachment; filename=%q", filename)
	}

	op := c.uploads.EnqueueUpload(ctx, &queue.Operation{
		VendorID:  vendor.ID,
		URL:       path,
		Method:    "POST",
		Headers:   headers,
		MediaPath: spool.Name(),
	})
	return op, nil
}

// MutationSender is the replay executor for queued writes.
func (c *Client) MutationSender() queue.Sender {
	return func(ctx context.Context, op *queue.Operation) error {
		_, err := c.upstream.DoWithHeaders(ctx, op.Method, op.URL, nil, op.Body, op.Headers, "", c.upstream.QuickTimeout())
		return err
	}
}

// UploadSender is the replay executor for queued media uploads. It streams
// the spooled body and removes the spool file once the upstream accepts it.
func (c *Client) UploadSender() queue.Sender {
	return func(ctx context.Context, op *queue.Operation) error {
		body, err := os.ReadFile(op.MediaPath)
		if err != nil {
			return fmt.Errorf("read spooled upload: %w", err)
		}

		_, err = c.upstream.DoWithHeaders(ctx, op.Method, op.URL, nil, body, op.Headers, "", c.upstream.QuickTimeout())
		if err != nil {
			return err
		}

		if err := os.Remove(op.MediaPath); err != nil {
			c.log.Warn("upload_spool_cleanup_failed",
				slog.String("media_path", op.MediaPath),
				slog.Any("error", err),
			)
		}
		return nil
	}
}

// # Internals

// producer builds the cache refresh function for one read.
func (c *Client) producer(path string, query url.Values, token string) cache.Producer[Response] {
	return func(ctx context.Context) (Response, error) {
		response, err := c.upstream.Do(ctx, "GET", path, query, nil, token, c.upstream.QuickTimeout())
		if err != nil {
			return Response{}, err
		}
		return Response{Status: response.Status, Body: response.Body}, nil
	}
}

// invalidateFor evicts cached reads touched by a successful write: the
// mutated path itself and, when the path addresses a single entity, its
// parent collection (lists embed the entity too).
func (c *Client) invalidateFor(ctx context.Context, vendor identity.Vendor, path string) {
	c.responses.InvalidatePrefix(ctx, keyPrefix(vendor, path))

	if i := strings.LastIndex(path, "/"); i > 0 && isDigits(path[i+1:]) {
		c.responses.InvalidatePrefix(ctx, keyPrefix(vendor, path[:i]))
	}
}

// cacheKey scopes cached responses per vendor so one vendor's private reads
// never leak to another.
func cacheKey(vendor identity.Vendor, path string, query url.Values) string {
	key := keyPrefix(vendor, path)
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	return key
}

func keyPrefix(vendor identity.Vendor, path string) string {
	return fmt.Sprintf("%d:%s", vendor.ID, path)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// identityFrom resolves the vendor identity, falling back to the anonymous
// zero vendor for public reads.
func identityFrom(ctx context.Context) identity.Vendor {
	if vendor := ctxutil.GetVendor(ctx); vendor != nil {
		return *vendor
	}
	return identity.Vendor{}
}

// authHeaders carries the vendor's bearer token into a queued operation so
// a replay hours later still authenticates as the right vendor.
func authHeaders(token string) map[string]string {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return headers
}

// translate maps upstream error classes onto the API error taxonomy.
func translate(err error) error {
	if upstream.IsUnavailable(err) {
		return apperr.UpstreamUnavailable(err)
	}
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		return apperr.UpstreamRejected(statusErr.Status, err)
	}
	return apperr.Internal(err)
}
