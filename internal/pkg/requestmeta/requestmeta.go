// Package requestmeta carries per-request metadata (request ID, idempotency
// key, bearer token) through context.Context, from the inbound HTTP surface
// down to the outbound calls against the remote store.
package requestmeta

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for context keys in this package.
// Using a custom type prevents collisions with keys from other packages
// that might use the same underlying string value.
type contextKey string

const (
	HeaderRequestID      = "X-Request-Id"
	HeaderIdempotencyKey = "X-Idempotency-Key"

	ctxKeyRequestID      contextKey = "request_id"
	ctxKeyIdempotencyKey contextKey = "idempotency_key"
	ctxKeyBearerToken    contextKey = "bearer_token"
	ctxKeyUserEmail      contextKey = "user_email"
)

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// WithIdempotencyKey stores the client-supplied idempotency key.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxKeyIdempotencyKey, key)
}

// WithBearerToken stores the opaque bearer token identifying the acting user.
// The token is managed by the external auth collaborator; this package only
// forwards it.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyBearerToken, token)
}

// WithUserEmail stores the acting user's email. Informational only — the
// remote store authorizes by bearer token, never by this value.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxKeyUserEmail, email)
}

// UserEmail returns the acting user's email from ctx, or "" if absent.
func UserEmail(ctx context.Context) string {
	email, _ := ctx.Value(ctxKeyUserEmail).(string)
	return email
}

// RequestID returns the request ID from ctx, or "" if absent.
func RequestID(ctx context.Context) string {
	// Use comma-ok idiom to safely extract typed context values.
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// IdempotencyKey returns the idempotency key from ctx, or "" if absent.
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(ctxKeyIdempotencyKey).(string)
	return key
}

// BearerToken returns the bearer token from ctx, or "" if absent.
func BearerToken(ctx context.Context) string {
	token, _ := ctx.Value(ctxKeyBearerToken).(string)
	return token
}

// InjectOutbound copies the metadata held in ctx onto an outbound request to
// the remote store. Missing values are simply not sent.
func InjectOutbound(ctx context.Context, req *http.Request) {
	if id := RequestID(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}
	if key := IdempotencyKey(ctx); key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	if token := BearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
