// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/workhub/internal/app/system/apierr"
)

// Handler serves the router-level error responses in the API's JSON shape.
// No DB needed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	apierr.NotFound(w, "no route for "+r.Method+" "+r.URL.Path)
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apierr.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" is not allowed on "+r.URL.Path)
}
