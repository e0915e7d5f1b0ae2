// internal/app/features/issues/issues.go
package issues

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/workhub/internal/app/features/shared"
	"github.com/dalemusser/workhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/workhub/internal/app/policy/projectpolicy"
	issuestore "github.com/dalemusser/workhub/internal/app/store/issues"
	"github.com/dalemusser/workhub/internal/app/system/apierr"
	"github.com/dalemusser/workhub/internal/app/system/authz"
	"github.com/dalemusser/workhub/internal/app/system/inputval"
	"github.com/dalemusser/workhub/internal/app/system/payload"
	"github.com/dalemusser/workhub/internal/app/system/timeouts"
	"github.com/dalemusser/workhub/internal/domain/models"
	"go.uber.org/zap"
)

// HandleCreate handles POST /projects/{projectID}/issues.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.gate(w, r, accesspolicy.ActionEdit)
	if !ok {
		return
	}
	raw, ok := shared.ReadBody(w, r)
	if !ok {
		return
	}
	in, err := payload.Issue(raw)
	if err != nil {
		apierr.Validation(w, err)
		return
	}
	if in.Title == "" {
		apierr.Validation(w, inputval.Invalid("title", "is required"))
		return
	}
	if in.Kind, err = parseKind(in.Kind); err != nil {
		apierr.Validation(w, err)
		return
	}
	if in.Status != "" && !issuestore.IsCanonicalStatus(in.Status) {
		apierr.Validation(w, inputval.Invalid("status", "must be Pending, In Progress or Completed"))
		return
	}

	_, name, uid, _ := authz.UserCtx(r)
	in.ProjectID = p.ID
	in.CreatorID = uid
	in.CreatorName = name
	// Only managers may create an issue that is already approved.
	if !projectpolicy.CanManage(r, p) {
		in.IsApproved = false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	is, err := h.Issues.Create(ctx, in)
	if err != nil {
		apierr.Internal(w, h.Log, "create issue", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	h.Log.Info("issue created",
		zap.String("project_id", p.ID.Hex()),
		zap.String("issue_id", is.ID.Hex()),
		zap.String("kind", is.Kind))
	apierr.WriteJSON(w, http.StatusCreated, decorate(is, uid))
}

// HandleStatus handles PATCH /projects/{projectID}/issues/{issueID}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	p, is, ok := h.loadIssue(w, r, accesspolicy.ActionEdit)
	if !ok {
		return
	}
	raw, ok := shared.ReadBody(w, r)
	if !ok {
		return
	}
	st, err := payload.Status(raw)
	if err != nil {
		apierr.Validation(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Issues.UpdateStatus(ctx, is.ID, st)
	if err != nil {
		h.writeStoreError(w, p, "update issue status", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	apierr.WriteJSON(w, http.StatusOK, decorate(updated, uid))
}

// HandleCritical handles POST /projects/{projectID}/issues/{issueID}/critical.
// Only the issue's creator may toggle it.
func (h *Handler) HandleCritical(w http.ResponseWriter, r *http.Request) {
	p, is, ok := h.loadIssue(w, r, accesspolicy.ActionEdit)
	if !ok {
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	if is.CreatorID != uid {
		apierr.Forbidden(w, "only the creator can change whether an issue is critical")
		return
	}
	raw, ok := shared.ReadBody(w, r)
	if !ok {
		return
	}
	critical, err := payload.Critical(raw)
	if err != nil {
		apierr.Validation(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Issues.SetCritical(ctx, is.ID, critical)
	if err != nil {
		h.writeStoreError(w, p, "set issue critical", err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, decorate(updated, uid))
}

// HandleApprove handles POST /projects/{projectID}/issues/{issueID}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	p, is, ok := h.loadIssue(w, r, accesspolicy.ActionView)
	if !ok {
		return
	}
	if !projectpolicy.CanManage(r, p) {
		apierr.Forbidden(w, "only project admins can approve issues")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Issues.Approve(ctx, is.ID)
	if err != nil {
		h.writeStoreError(w, p, "approve issue", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	h.Log.Info("issue approved",
		zap.String("project_id", p.ID.Hex()),
		zap.String("issue_id", is.ID.Hex()),
		zap.String("actor_id", uid.Hex()))
	apierr.WriteJSON(w, http.StatusOK, decorate(updated, uid))
}

// HandleDelete handles DELETE /projects/{projectID}/issues/{issueID}.
// The creator or a project admin may delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, is, ok := h.loadIssue(w, r, accesspolicy.ActionEdit)
	if !ok {
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	if is.CreatorID != uid && !projectpolicy.CanManage(r, p) {
		apierr.Forbidden(w, "only the creator or a project admin can delete an issue")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Issues.Delete(ctx, is.ID); err != nil {
		h.writeStoreError(w, p, "delete issue", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadIssue gates the request and loads {issueID}, which must belong to the project.
func (h *Handler) loadIssue(w http.ResponseWriter, r *http.Request, action accesspolicy.Action) (models.Project, models.Issue, bool) {
	p, ok := h.gate(w, r, action)
	if !ok {
		return models.Project{}, models.Issue{}, false
	}
	id, ok := shared.PathID(w, r, "issueID")
	if !ok {
		return models.Project{}, models.Issue{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	is, err := h.Issues.GetByID(ctx, id)
	if err == nil && is.ProjectID != p.ID {
		err = issuestore.ErrNotFound
	}
	if err != nil {
		h.writeStoreError(w, p, "load issue", err)
		return models.Project{}, models.Issue{}, false
	}
	return p, is, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, p models.Project, op string, err error) {
	switch {
	case errors.Is(err, issuestore.ErrNotFound):
		apierr.NotFound(w, "issue not found")
	case errors.Is(err, issuestore.ErrNotCompleted):
		apierr.Conflict(w, err.Error())
	default:
		apierr.Internal(w, h.Log, op, err, zap.String("project_id", p.ID.Hex()))
	}
}
