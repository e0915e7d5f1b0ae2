// internal/app/features/projectaccess/routes.go
package projectaccess

import (
	"github.com/dalemusser/workhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted at /projects/{projectID}/access.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleSet)
	r.Get("/me", h.ServeMine)
	r.Get("/history", h.ServeHistory)
	r.Post("/bulk", h.HandleBulk)
	r.Put("/{userID}/{module}", h.HandleEdit)
	r.Delete("/{userID}/{module}", h.HandleRemove)
	return r
}
