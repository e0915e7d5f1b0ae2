// internal/app/features/projects/projects.go
package projects

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/workhub/internal/app/features/shared"
	"github.com/dalemusser/workhub/internal/app/policy/projectpolicy"
	projectstore "github.com/dalemusser/workhub/internal/app/store/projects"
	"github.com/dalemusser/workhub/internal/app/system/apierr"
	"github.com/dalemusser/workhub/internal/app/system/authz"
	"github.com/dalemusser/workhub/internal/app/system/paging"
	"github.com/dalemusser/workhub/internal/app/system/payload"
	"github.com/dalemusser/workhub/internal/app/system/timeouts"
	"github.com/dalemusser/workhub/internal/app/system/txn"
	"github.com/dalemusser/workhub/internal/domain/models"
	"go.uber.org/zap"
)

// projectResponse is a project plus the caller's rights on it.
type projectResponse struct {
	models.Project
	CanManage bool `json:"canManage"`
}

// ServeList handles GET /projects?before=&after=.
// System admins see every active project; everyone else sees their own.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	before, after := paging.ParseCursors(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Projects.PageForUser(ctx, uid, authz.IsAdmin(r), before, after)
	if err != nil {
		apierr.Internal(w, h.Log, "list projects", err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, page)
}

// HandleCreate handles POST /projects. The caller becomes the owner.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	raw, ok := shared.ReadBody(w, r)
	if !ok {
		return
	}
	in, err := payload.Project(raw)
	if err != nil {
		apierr.Validation(w, err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Projects.Create(ctx, models.Project{Name: in.Name, Description: in.Description, OwnerID: uid})
	if err != nil {
		apierr.Internal(w, h.Log, "create project", err)
		return
	}
	h.Log.Info("project created", zap.String("project_id", p.ID.Hex()), zap.String("owner_id", uid.Hex()))
	h.Audit.ProjectCreated(ctx, r, uid, p.ID, p.Name)
	apierr.WriteJSON(w, http.StatusCreated, projectResponse{Project: p, CanManage: true})
}

// ServeProject handles GET /projects/{projectID}.
func (h *Handler) ServeProject(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.LoadProject(w, r, h.Projects, h.Log)
	if !ok {
		return
	}
	apierr.WriteJSON(w, http.StatusOK, projectResponse{Project: p, CanManage: projectpolicy.CanManage(r, p)})
}

// HandleUpdate handles PUT /projects/{projectID} (name and description).
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	raw, ok := shared.ReadBody(w, r)
	if !ok {
		return
	}
	in, err := payload.Project(raw)
	if err != nil {
		apierr.Validation(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Projects.UpdateInfo(ctx, p.ID, in.Name, in.Description); err != nil {
		h.writeStoreError(w, "update project", err)
		return
	}
	h.writeProject(ctx, w, r, p)
}

// HandleStatus handles PATCH /projects/{projectID}/status (archive or restore).
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	raw, ok := shared.ReadBody(w, r)
	if !ok {
		return
	}
	st, err := payload.ProjectStatus(raw)
	if err != nil {
		apierr.Validation(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Projects.SetStatus(ctx, p.ID, st); err != nil {
		h.writeStoreError(w, "set project status", err)
		return
	}
	h.writeProject(ctx, w, r, p)
}

// HandleDelete handles DELETE /projects/{projectID}. Only the owner or a
// system admin may delete; issues, restrictions and the discussion go too.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.LoadProject(w, r, h.Projects, h.Log)
	if !ok {
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	if p.OwnerID != uid && !authz.IsAdmin(r) {
		apierr.Forbidden(w, "only the project owner can delete a project")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := h.Issues.DeleteByProject(ctx, p.ID); err != nil {
			return err
		}
		if _, err := h.Access.DeleteByProject(ctx, p.ID); err != nil {
			return err
		}
		if _, err := h.Discussions.DeleteByProject(ctx, p.ID); err != nil {
			return err
		}
		_, err := h.Projects.Delete(ctx, p.ID)
		return err
	}); err != nil {
		apierr.Internal(w, h.Log, "delete project", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	h.Cache.InvalidateProject(p.ID)

	h.Log.Info("project deleted", zap.String("project_id", p.ID.Hex()), zap.String("actor_id", uid.Hex()))
	h.Audit.ProjectDeleted(ctx, r, uid, p.ID, p.Name)
	w.WriteHeader(http.StatusNoContent)
}

// loadManaged loads {projectID} and requires the caller to manage it.
func (h *Handler) loadManaged(w http.ResponseWriter, r *http.Request) (models.Project, bool) {
	p, ok := shared.LoadProject(w, r, h.Projects, h.Log)
	if !ok {
		return models.Project{}, false
	}
	if !projectpolicy.CanManage(r, p) {
		apierr.Forbidden(w, "only project admins can do that")
		return models.Project{}, false
	}
	return p, true
}

// writeProject reloads p and writes it.
func (h *Handler) writeProject(ctx context.Context, w http.ResponseWriter, r *http.Request, p models.Project) {
	fresh, err := h.Projects.GetByID(ctx, p.ID)
	if err != nil {
		h.writeStoreError(w, "reload project", err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, projectResponse{Project: fresh, CanManage: projectpolicy.CanManage(r, fresh)})
}

func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, projectstore.ErrNotFound):
		apierr.NotFound(w, "project not found")
	case errors.Is(err, projectstore.ErrOwnerRemoval):
		apierr.Conflict(w, err.Error())
	default:
		apierr.Internal(w, h.Log, op, err)
	}
}
