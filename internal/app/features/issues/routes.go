// internal/app/features/issues/routes.go
package issues

import (
	"github.com/dalemusser/workhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted at /projects/{projectID}/issues.
// Reads need tasks view access; writes need tasks edit access.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Patch("/{issueID}/status", h.HandleStatus)
	r.Post("/{issueID}/critical", h.HandleCritical)
	r.Post("/{issueID}/approve", h.HandleApprove)
	r.Delete("/{issueID}", h.HandleDelete)
	return r
}
