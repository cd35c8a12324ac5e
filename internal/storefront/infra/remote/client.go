// Package remote implements the CartStore and OrderGateway ports over the
// JSON/HTTP REST interface of the remote cart/order store.
//
// Every successful response arrives in the envelope
// {"success": bool, "message": string, "data": <payload>}; error bodies carry
// the user-facing message either at the top level, nested under data, or in
// an errorSources array. The adapter surfaces whichever is present so the UI
// can show the server's own words.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/phonehub/storefront/internal/pkg/requestmeta"
	"github.com/phonehub/storefront/internal/storefront/core/ports"
)

// Client is the shared HTTP plumbing for the remote store adapters.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a client for the store at baseURL. timeout bounds each
// round trip so a hung request cannot hold a busy indicator forever; pass 0
// for a 5s default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		// Fail fast once the store looks dead. A broken circuit surfaces as
		// an ordinary remote failure; nothing retries automatically.
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "remote-store",
		}),
	}
}

// envelope is the standard success wrapper of the remote API.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// errorBody covers the shapes an error response may take.
type errorBody struct {
	Message string `json:"message"`
	Data    struct {
		Message string `json:"message"`
	} `json:"data"`
	ErrorSources []struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	} `json:"errorSources"`
}

// userMessage picks the first server-supplied message present.
func (e errorBody) userMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Data.Message != "" {
		return e.Data.Message
	}
	for _, src := range e.ErrorSources {
		if src.Message != "" {
			return src.Message
		}
	}
	return ""
}

// do issues one request and decodes the envelope. body may be nil.
// Metadata held in ctx (bearer token, request id, idempotency key) is
// forwarded on the outbound request.
func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("remote: encode request: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestmeta.InjectOutbound(ctx, req)

	raw, err := c.breaker.Execute(func() (any, error) {
		res, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("remote: %s %s: %w", method, path, err)
		}
		defer res.Body.Close()

		payload, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("remote: read response: %w", err)
		}

		if res.StatusCode < 200 || res.StatusCode >= 300 {
			var eb errorBody
			_ = json.Unmarshal(payload, &eb) // best effort, body may not be JSON
			return nil, &ports.RemoteError{
				StatusCode: res.StatusCode,
				Message:    eb.userMessage(),
			}
		}

		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil, fmt.Errorf("remote: decode envelope: %w", err)
		}
		if !env.Success {
			return nil, &ports.RemoteError{
				StatusCode: res.StatusCode,
				Message:    env.Message,
			}
		}
		return &env, nil
	})
	if err != nil {
		return nil, err
	}

	return raw.(*envelope), nil
}
