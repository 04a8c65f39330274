package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"taskgrid.org/internal/audit"
	"taskgrid.org/internal/auth"
)

type auditEntryView struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenantId,omitempty"`
	ActorID    string          `json:"actorId,omitempty"`
	ActorEmail string          `json:"actorEmail,omitempty"`
	Action     string          `json:"action"`
	Entity     string          `json:"entity"`
	EntityID   string          `json:"entityId"`
	Changes    json.RawMessage `json:"changes"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func viewAuditEntry(e *audit.Entry) auditEntryView {
	v := auditEntryView{
		ID:         e.ID,
		ActorID:    e.ActorID,
		ActorEmail: e.ActorEmail,
		Action:     e.Action,
		Entity:     e.Entity,
		EntityID:   e.EntityID,
		Changes:    e.Changes,
		CreatedAt:  e.CreatedAt,
	}
	if e.TenantID != nil {
		v.TenantID = e.TenantID.String()
	}
	return v
}

// handleAuditLog serves the audit trail. Super-admin surface only; the whole
// log spans tenants and may be narrowed with ?tenant=<id>.
func (a *API) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !a.ensureCapability(w, r, auth.CapManageTenants) {
		return
	}

	var filter *uuid.UUID
	if raw := r.URL.Query().Get("tenant"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid tenant filter")
			return
		}
		filter = &id
	}

	page, pageSize := pagination(r)
	entries, err := a.auditor.List(r.Context(), filter, page, pageSize)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	views := make([]auditEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, viewAuditEntry(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": views, "page": page})
}
