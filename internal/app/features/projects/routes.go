// internal/app/features/projects/routes.go
package projects

import (
	"github.com/dalemusser/workhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /projects subrouter. Every route requires a signed-in user;
// per-project checks happen in the handlers.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	r.Route("/{projectID}", func(r chi.Router) {
		r.Get("/", h.ServeProject)
		r.Put("/", h.HandleUpdate)
		r.Delete("/", h.HandleDelete)
		r.Patch("/status", h.HandleStatus)
		r.Get("/summary", h.ServeSummary)

		r.Get("/members", h.ServeMembers)
		r.Post("/members", h.HandleAddMember)
		r.Delete("/members/{userID}", h.HandleRemoveMember)
		r.Put("/admins/{userID}", h.HandleGrantAdmin)
		r.Delete("/admins/{userID}", h.HandleRevokeAdmin)
	})
	return r
}
