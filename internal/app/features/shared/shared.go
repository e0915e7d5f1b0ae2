// Package shared holds request helpers used by the project-scoped features.
package shared

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/workhub/internal/app/policy/projectpolicy"
	projectstore "github.com/dalemusser/workhub/internal/app/store/projects"
	"github.com/dalemusser/workhub/internal/app/system/apierr"
	"github.com/dalemusser/workhub/internal/app/system/inputval"
	"github.com/dalemusser/workhub/internal/app/system/limits"
	"github.com/dalemusser/workhub/internal/app/system/timeouts"
	"github.com/dalemusser/workhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReadBody reads the request body up to limits.MaxJSONBody.
// On failure it writes the error response and returns false.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	return ReadBodyLimit(w, r, limits.MaxJSONBody)
}

// ReadBodyLimit reads at most n bytes of the request body. A larger body
// gets a 413; any other read failure a 400.
func ReadBodyLimit(w http.ResponseWriter, r *http.Request, n int64) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, n))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		apierr.TooLarge(w, "request body too large")
		return nil, false
	}
	if err != nil {
		apierr.Validation(w, inputval.Invalid("body", "could not be read"))
		return nil, false
	}
	return raw, true
}

// PathID parses the chi URL parameter name as an ObjectID.
// On failure it writes a 400 and returns false.
func PathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	oid, err := inputval.ObjectID(name, chi.URLParam(r, name))
	if err != nil {
		apierr.Validation(w, err)
		return primitive.NilObjectID, false
	}
	return oid, true
}

// LoadProject resolves {projectID}, loads the project and checks that the
// current user can see it. On failure it writes the response and returns false.
func LoadProject(w http.ResponseWriter, r *http.Request, projects *projectstore.Store, log *zap.Logger) (models.Project, bool) {
	pid, ok := PathID(w, r, "projectID")
	if !ok {
		return models.Project{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := projects.GetByID(ctx, pid)
	if errors.Is(err, projectstore.ErrNotFound) {
		apierr.NotFound(w, "project not found")
		return models.Project{}, false
	}
	if err != nil {
		apierr.Internal(w, log, "load project", err, zap.String("project_id", pid.Hex()))
		return models.Project{}, false
	}
	if !projectpolicy.CanView(r, p) {
		apierr.Forbidden(w, "you are not a member of this project")
		return models.Project{}, false
	}
	return p, true
}
