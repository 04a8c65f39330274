package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/tenant"
)

type createTenantRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

type updateTenantRequest struct {
	Name   *string `json:"name"`
	Domain *string `json:"domain"`
}

type tenantView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Domain    string `json:"domain,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func viewTenant(t *tenant.Tenant) tenantView {
	return tenantView{
		ID:        t.ID.String(),
		Name:      t.Name,
		Domain:    t.Domain,
		CreatedAt: t.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt: t.UpdatedAt.UTC().Format(timeLayout),
	}
}

func (a *API) handleTenants(w http.ResponseWriter, r *http.Request) {
	if !a.ensureCapability(w, r, auth.CapManageTenants) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		page, pageSize := pagination(r)
		items, err := a.tenants.List(r.Context(), page, pageSize)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		views := make([]tenantView, 0, len(items))
		for _, t := range items {
			views = append(views, viewTenant(t))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": views, "page": page})
	case http.MethodPost:
		var req createTenantRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.tenants.Create(r.Context(), tenant.CreateInput{Name: req.Name, Domain: req.Domain})
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		w.Header().Set("Location", "/api/tenants/"+t.ID.String())
		writeJSON(w, http.StatusCreated, viewTenant(t))
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTenantByID(w http.ResponseWriter, r *http.Request) {
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tenants/"), "/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if !a.allowTenantAccess(w, r, id) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := a.tenants.Get(r.Context(), id)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, viewTenant(t))
	case http.MethodPut:
		var req updateTenantRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.tenants.Update(r.Context(), id, tenant.Update{Name: req.Name, Domain: req.Domain})
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, viewTenant(t))
	case http.MethodDelete:
		if err := a.tenants.Delete(r.Context(), id); err != nil {
			handleDomainError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// allowTenantAccess admits super-admins to any tenant and tenant admins to
// their own, except for deletion, which stays super-admin only.
func (a *API) allowTenantAccess(w http.ResponseWriter, r *http.Request, id uuid.UUID) bool {
	p, err := principalOrError(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return false
	}
	if p.Can(auth.CapManageTenants) {
		return true
	}
	if p.Can(auth.CapManageTenant) && r.Method != http.MethodDelete &&
		p.TenantID != nil && *p.TenantID == id {
		return true
	}
	writeError(w, r, http.StatusForbidden, "insufficient permissions")
	return false
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func pagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 50
	}
	return page, size
}
