// Package audit emits structured records for security-relevant actions:
// logins, registrations, catalog mutations, image uploads.
package audit

import (
	"context"
	"errors"
	"strings"

	"larrosacamiones.com/internal/auth"
	"larrosacamiones.com/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit log entry enriched with request and user context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}

	logger := obs.Logger()
	evt := logger.Info().
		Str("type", "audit").
		Str("event", event)
	if rid := RequestIDFromContext(ctx); rid != "" {
		evt = evt.Str("request_id", rid)
	}
	if u, ok := auth.UserFromContext(ctx); ok {
		evt = evt.Int64("user_id", u.ID)
	}
	if len(fields) > 0 {
		evt = evt.Fields(fields)
	}
	evt.Msg("audit")
	return nil
}
