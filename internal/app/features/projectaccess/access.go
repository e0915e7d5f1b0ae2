// internal/app/features/projectaccess/access.go
package projectaccess

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/workhub/internal/app/features/shared"
	"github.com/dalemusser/workhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/workhub/internal/app/policy/projectpolicy"
	projectaccessstore "github.com/dalemusser/workhub/internal/app/store/projectaccess"
	"github.com/dalemusser/workhub/internal/app/system/apierr"
	"github.com/dalemusser/workhub/internal/app/system/authz"
	"github.com/dalemusser/workhub/internal/app/system/inputval"
	"github.com/dalemusser/workhub/internal/app/system/paging"
	"github.com/dalemusser/workhub/internal/app/system/payload"
	"github.com/dalemusser/workhub/internal/app/system/timeouts"
	"github.com/dalemusser/workhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /projects/{projectID}/access.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadManaged(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	recs, err := h.Access.ListByProject(ctx, p.ID)
	if err != nil {
		apierr.Internal(w, h.Log, "list restrictions", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"restrictions": recs})
}

// ServeMine handles GET /projects/{projectID}/access/me?module=.
// Without a module it reports every module.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.LoadProject(w, r, h.Projects, h.Log)
	if !ok {
		return
	}

	modules := models.AllModules
	if raw := r.URL.Query().Get("module"); raw != "" {
		m, err := accesspolicy.ParseModule(raw)
		if err != nil {
			apierr.Validation(w, err)
			return
		}
		modules = []string{m}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	out := make(map[string]accesspolicy.AccessFlags, len(modules))
	for _, m := range modules {
		flags, err := projectpolicy.Effective(ctx, h.Cache, r, p, m)
		if err != nil {
			apierr.Internal(w, h.Log, "resolve access", err, zap.String("project_id", p.ID.Hex()))
			return
		}
		out[m] = flags
	}

	if len(modules) == 1 {
		apierr.WriteJSON(w, http.StatusOK, map[string]any{"module": modules[0], "access": out[modules[0]]})
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"access": out})
}

// HandleSet handles POST /projects/{projectID}/access. It creates the
// restriction or overwrites the existing one for (user, module).
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	raw, ok := shared.ReadBody(w, r)
	if !ok {
		return
	}
	in, err := payload.Restriction(raw)
	if err != nil {
		apierr.Validation(w, err)
		return
	}
	if !p.IsMember(in.UserID) {
		apierr.Validation(w, inputval.Invalid("userId", "is not a member of this project"))
		return
	}
	_, _, actor, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, err := h.Access.Set(ctx, models.ProjectAccess{
		ProjectID: p.ID,
		UserID:    in.UserID,
		Module:    in.Module,
		CanView:   in.Flags.CanView,
		CanReply:  in.Flags.CanReply,
		CanEdit:   in.Flags.CanEdit,
	}, actor)
	if err != nil {
		apierr.Internal(w, h.Log, "set restriction", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	h.Cache.Invalidate(p.ID, in.UserID)

	h.Log.Info("restriction set",
		zap.String("project_id", p.ID.Hex()),
		zap.String("user_id", in.UserID.Hex()),
		zap.String("module", in.Module),
		zap.String("actor_id", actor.Hex()))
	h.Audit.RestrictionSet(ctx, r, actor, p.ID, in.UserID, in.Module, in.Flags)
	apierr.WriteJSON(w, http.StatusOK, rec)
}

// HandleEdit handles PUT /projects/{projectID}/access/{userID}/{module}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	uid, module, ok := pathKey(w, r)
	if !ok {
		return
	}
	raw, ok := shared.ReadBody(w, r)
	if !ok {
		return
	}
	flags, err := payload.Flags(raw)
	if err != nil {
		apierr.Validation(w, err)
		return
	}
	_, _, actor, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, err := h.Access.Update(ctx, models.ProjectAccess{
		ProjectID: p.ID,
		UserID:    uid,
		Module:    module,
		CanView:   flags.CanView,
		CanReply:  flags.CanReply,
		CanEdit:   flags.CanEdit,
	}, actor)
	if errors.Is(err, projectaccessstore.ErrNotFound) {
		apierr.NotFound(w, "restriction not found")
		return
	}
	if err != nil {
		apierr.Internal(w, h.Log, "edit restriction", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	h.Cache.Invalidate(p.ID, uid)
	h.Audit.RestrictionUpdated(ctx, r, actor, p.ID, uid, module, flags)
	apierr.WriteJSON(w, http.StatusOK, rec)
}

// HandleRemove handles DELETE /projects/{projectID}/access/{userID}/{module}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	uid, module, ok := pathKey(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Access.Remove(ctx, p.ID, uid, module)
	if errors.Is(err, projectaccessstore.ErrNotFound) {
		apierr.NotFound(w, "restriction not found")
		return
	}
	if err != nil {
		apierr.Internal(w, h.Log, "remove restriction", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	h.Cache.Invalidate(p.ID, uid)
	_, _, actor, _ := authz.UserCtx(r)
	h.Audit.RestrictionRemoved(ctx, r, actor, p.ID, uid, module)
	w.WriteHeader(http.StatusNoContent)
}

// HandleBulk handles POST /projects/{projectID}/access/bulk. Every
// (user, module) pair gets the same flags; all users must be project members.
func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	raw, ok := shared.ReadBody(w, r)
	if !ok {
		return
	}
	in, err := payload.BulkRestriction(raw)
	if err != nil {
		apierr.Validation(w, err)
		return
	}
	for _, uid := range in.UserIDs {
		if !p.IsMember(uid) {
			apierr.Validation(w, inputval.Invalid("userIds", "%s is not a member of this project", uid.Hex()))
			return
		}
	}
	_, _, actor, _ := authz.UserCtx(r)

	recs := accesspolicy.ResolveBulkAccess(in.UserIDs, in.Modules, in.Settings)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Access.BulkSet(ctx, p.ID, recs, actor)
	if err != nil {
		apierr.Internal(w, h.Log, "bulk set restrictions", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	for _, uid := range in.UserIDs {
		h.Cache.Invalidate(p.ID, uid)
	}

	h.Log.Info("restrictions bulk set",
		zap.String("project_id", p.ID.Hex()),
		zap.String("batch_id", res.BatchID),
		zap.Int("records", len(recs)),
		zap.String("actor_id", actor.Hex()))
	h.Audit.RestrictionBulkSet(ctx, r, actor, p.ID, res.BatchID, len(in.UserIDs), in.Modules, in.Settings)
	apierr.WriteJSON(w, http.StatusOK, map[string]any{
		"result":  res,
		"records": len(recs),
	})
}

// ServeHistory handles GET /projects/{projectID}/access/history?limit=.
// It lists the project's audit events newest first.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadManaged(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.GetByProject(ctx, p.ID, int64(paging.ParseLimit(r)))
	if err != nil {
		apierr.Internal(w, h.Log, "list access history", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

// loadManaged loads {projectID} and requires the caller to manage it.
func (h *Handler) loadManaged(w http.ResponseWriter, r *http.Request) (models.Project, bool) {
	p, ok := shared.LoadProject(w, r, h.Projects, h.Log)
	if !ok {
		return models.Project{}, false
	}
	if !projectpolicy.CanManage(r, p) {
		apierr.Forbidden(w, "only project admins can manage restrictions")
		return models.Project{}, false
	}
	return p, true
}

// pathKey parses {userID} and {module}.
func pathKey(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, string, bool) {
	uid, ok := shared.PathID(w, r, "userID")
	if !ok {
		return primitive.NilObjectID, "", false
	}
	module, err := accesspolicy.ParseModule(chi.URLParam(r, "module"))
	if err != nil {
		apierr.Validation(w, err)
		return primitive.NilObjectID, "", false
	}
	return uid, module, true
}
