package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"taskgrid.org/internal/auth"
	"taskgrid.org/internal/tenant"
)

const tenantHeader = "X-Tenant-ID"

// exemptPaths skip tenant resolution entirely: tenant management runs in
// super-admin scope, registration may precede any tenant, and the probe
// endpoints carry no identity at all.
var exemptPaths = []string{
	"/api/account/register",
	"/api/tenants",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

func isExemptPath(path string) bool {
	for _, p := range exemptPaths {
		if path == p {
			return true
		}
	}
	return strings.HasPrefix(path, "/api/tenants/")
}

// withTenant resolves the tenant for the request and enforces the same-tenant
// rule before any handler runs. The resolved context rides the request
// context; handlers and services read it from there.
func (a *API) withTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || a.resolver == nil {
			next.ServeHTTP(w, r)
			return
		}

		req := tenant.Request{
			HeaderTenantID: strings.TrimSpace(r.Header.Get(tenantHeader)),
			Exempt:         isExemptPath(r.URL.Path),
			Handshake:      r.URL.Path == "/api/notifications/stream",
		}
		if p, ok := auth.PrincipalFromContext(r.Context()); ok {
			req.Principal = &p
		}
		if r.URL.Path == "/api/account/login" && r.Method == http.MethodPost {
			req.LoginEmail = peekLoginEmail(r)
		}

		tc, err := a.resolver.Resolve(r.Context(), req)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		// Authenticated, tenant-resolved requests must match their claim.
		if req.Principal != nil && tc.Resolved() {
			if err := tenant.Authorize(*req.Principal, tc); err != nil {
				writeError(w, r, http.StatusForbidden, "tenant access denied")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(tenant.WithContext(r.Context(), tc)))
	})
}

// peekLoginEmail reads the submitted email without consuming the body the
// login handler will decode.
func peekLoginEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Email)
}
