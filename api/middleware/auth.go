package middleware

import (
	"net/http"
	"strings"

	"github.com/novatech/management-backend/api/responses"
	pkgAuth "github.com/novatech/management-backend/pkg/auth"
	"github.com/novatech/management-backend/pkg/auth/session"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
	"github.com/novatech/management-backend/pkg/logger"
)

// TokenParser validates a raw bearer token.
type TokenParser interface {
	Parse(token string) (*pkgAuth.Claims, error)
}

// Auth validates a bearer token, checks that its session is still live and
// seeds the request context with the caller's identity.
func Auth(parser TokenParser, verifier session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := parser.Parse(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			userID, err := claims.UserID()
			if err != nil || userID == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token subject"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := WithIdentity(r.Context(), userID, claims.Roles, claims.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
				ctx = logg.WithRoles(ctx, claims.Roles)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
