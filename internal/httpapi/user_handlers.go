package httpapi

import (
	"net/http"
	"strings"

	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/tenant"
)

type updateUserRequest struct {
	Role string `json:"role"`
}

// handleUsers lists the resolved tenant's users. User management stays
// tenant-scoped; super-admins work through the tenant endpoints instead.
func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensureCapability(w, r, auth.CapManageUsers) {
		return
	}
	tenantID, err := tenant.FromContext(r.Context()).TenantID()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	users, err := a.accounts.ListUsers(r.Context(), tenantID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, viewUser(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": views})
}

func (a *API) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if !a.ensureCapability(w, r, auth.CapManageUsers) {
		return
	}
	tenantID, err := tenant.FromContext(r.Context()).TenantID()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		u, err := a.accounts.GetUser(r.Context(), tenantID, id)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, viewUser(u))
	case http.MethodPut:
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		before, err := a.accounts.GetUser(r.Context(), tenantID, id)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		after, err := a.accounts.UpdateUserRole(r.Context(), tenantID, id, req.Role)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		if a.auditor != nil {
			a.auditor.Record(r.Context(), "user.update", "user", id, viewUser(before), viewUser(after))
		}
		writeJSON(w, http.StatusOK, viewUser(after))
	case http.MethodDelete:
		before, err := a.accounts.GetUser(r.Context(), tenantID, id)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		if err := a.accounts.DeleteUser(r.Context(), tenantID, id); err != nil {
			handleDomainError(w, r, err)
			return
		}
		if a.auditor != nil {
			a.auditor.Record(r.Context(), "user.delete", "user", id, viewUser(before), nil)
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
