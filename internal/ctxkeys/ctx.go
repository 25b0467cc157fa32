package ctxkeys

import (
	"context"

	"github.com/studyshare/backend/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	PrincipalKey contextKey = "principal"
	AuthErrorKey contextKey = "auth_error"
	RequestIDKey contextKey = "request_id"
)

func Principal(ctx context.Context) *model.Principal {
	principal, _ := ctx.Value(PrincipalKey).(*model.Principal)
	return principal
}

func WithPrincipal(ctx context.Context, principal *model.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// AuthError is why a presented credential was rejected, nil if none was presented
func AuthError(ctx context.Context) error {
	err, _ := ctx.Value(AuthErrorKey).(error)
	return err
}

func WithAuthError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, AuthErrorKey, err)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
