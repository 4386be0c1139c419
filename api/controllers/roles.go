package controllers

import (
	"net/http"

	"github.com/novatech/management-backend/api/responses"
	"github.com/novatech/management-backend/api/validators"
	"github.com/novatech/management-backend/internal/roles"
	"github.com/novatech/management-backend/pkg/logger"
)

func RoleList(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "role")
			return
		}
		result, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func RoleAssign(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "role")
			return
		}
		userID, roleID, err := userRoleParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Assign(r.Context(), userID, roleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Role assigned successfully.")
	}
}

func RoleRevoke(svc roles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "role")
			return
		}
		userID, roleID, err := userRoleParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Revoke(r.Context(), userID, roleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Role revoked successfully.")
	}
}

func userRoleParams(r *http.Request) (uint, uint, error) {
	userID, err := validators.ParsePathID(r, "userId")
	if err != nil {
		return 0, 0, err
	}
	roleID, err := validators.ParsePathID(r, "roleId")
	if err != nil {
		return 0, 0, err
	}
	return userID, roleID, nil
}
