package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"taskgrid.org/internal/audit"
	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/notify"
	"taskgrid.org/internal/task"
	"taskgrid.org/internal/tenant"
)

// handleDomainError maps domain sentinels to status codes. Cross-tenant and
// missing-scope failures are forbidden, never not-found; the boundary itself
// must stay visible.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tenant.ErrResolution):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, tenant.ErrCrossTenant),
		errors.Is(err, tenant.ErrNoTenantContext),
		errors.Is(err, tenant.ErrNotResolved):
		writeError(w, r, http.StatusForbidden, "tenant access denied")
	case errors.Is(err, task.ErrNotAuthor):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, task.ErrInvalidTransition),
		errors.Is(err, task.ErrNotAssignable),
		errors.Is(err, task.ErrInvalidInput),
		errors.Is(err, tenant.ErrInvalidInput),
		errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, task.ErrStaleStatus),
		errors.Is(err, task.ErrConflict),
		errors.Is(err, tenant.ErrConflict),
		errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, task.ErrNotFound),
		errors.Is(err, tenant.ErrNotFound),
		errors.Is(err, auth.ErrNotFound),
		errors.Is(err, notify.ErrNotFound),
		errors.Is(err, audit.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "operation failed")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
