// internal/app/features/discussion/routes.go
package discussion

import (
	"github.com/dalemusser/workhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted at /projects/{projectID}/discussion.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeThread)
	r.Post("/", h.HandlePost)
	r.Put("/{messageID}", h.HandleEdit)
	r.Delete("/{messageID}", h.HandleDelete)
	return r
}
