// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns the /login subrouter. Neither route requires a session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/code", h.HandleRequestCode)
	r.Post("/verify", h.HandleVerify)
	return r
}
