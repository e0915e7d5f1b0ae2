// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/workhub/internal/app/system/auth"
	"github.com/dalemusser/workhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted at /admin/audit. System admins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(authz.RoleAdmin))

	r.Get("/", h.ServeList)
	r.Get("/failed-logins", h.ServeFailedLogins)
	return r
}
