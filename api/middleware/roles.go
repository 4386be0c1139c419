package middleware

import (
	"net/http"

	"github.com/novatech/management-backend/api/responses"
	"github.com/novatech/management-backend/pkg/enums"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
	"github.com/novatech/management-backend/pkg/logger"
)

// RequireAnyRole admits callers holding at least one of the given roles.
// Role names compare exactly. Unauthenticated requests get 401.
func RequireAnyRole(logg *logger.Logger, roles ...enums.RoleName) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role.String()] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			for _, held := range RolesFromContext(r.Context()) {
				if _, ok := allowed[held]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
		})
	}
}
