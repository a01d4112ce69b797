package ctxutil

import (
	"context"
	"strings"
)

type ctxKey string

const (
	tenantIDKey  ctxKey = "tenant_id"
	userIDKey    ctxKey = "user_id"
	requestIDKey ctxKey = "request_id"
)

// WithTenantID stores the caller's tenant in the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantIDFromCtx extracts the tenant ID from the context.
// Returns "" and false if the value is missing, blank, or of the wrong type.
func TenantIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantIDKey).(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

// WithUserID stores the acting user in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromCtx extracts the user ID from the context.
// Returns "" and false if the value is missing, blank, or of the wrong type.
func UserIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
