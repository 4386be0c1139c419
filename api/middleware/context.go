package middleware

import "context"

type contextKey string

const (
	ctxUserID  contextKey = "user_id"
	ctxRoles   contextKey = "roles"
	ctxTokenID contextKey = "token_id"
)

// UserIDFromContext returns the authenticated user id, or false when the
// request did not pass through Auth.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	if ctx == nil {
		return 0, false
	}
	v, ok := ctx.Value(ctxUserID).(uint)
	return v, ok && v != 0
}

func RolesFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxRoles).([]string); ok {
		return v
	}
	return nil
}

// TokenIDFromContext returns the jti of the presented access token.
func TokenIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTokenID).(string); ok {
		return v
	}
	return ""
}

// WithIdentity injects an authenticated identity into the context.
func WithIdentity(ctx context.Context, userID uint, roles []string, tokenID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRoles, roles)
	return context.WithValue(ctx, ctxTokenID, tokenID)
}
