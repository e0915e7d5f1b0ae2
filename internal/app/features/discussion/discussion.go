// internal/app/features/discussion/discussion.go
package discussion

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/workhub/internal/app/features/shared"
	"github.com/dalemusser/workhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/workhub/internal/app/policy/projectpolicy"
	discussionstore "github.com/dalemusser/workhub/internal/app/store/discussions"
	"github.com/dalemusser/workhub/internal/app/system/apierr"
	"github.com/dalemusser/workhub/internal/app/system/authz"
	"github.com/dalemusser/workhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/workhub/internal/app/system/inputval"
	"github.com/dalemusser/workhub/internal/app/system/limits"
	"github.com/dalemusser/workhub/internal/app/system/paging"
	"github.com/dalemusser/workhub/internal/app/system/payload"
	"github.com/dalemusser/workhub/internal/app/system/timeouts"
	"github.com/dalemusser/workhub/internal/domain/models"
	"go.uber.org/zap"
)

// ServeThread handles GET /projects/{projectID}/discussion?before=&limit=.
func (h *Handler) ServeThread(w http.ResponseWriter, r *http.Request) {
	p, ok := h.gate(w, r, accesspolicy.ActionView)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Discussions.ListByProject(ctx, p.ID, query.Get(r, "before"), paging.ParseLimit(r))
	if errors.Is(err, discussionstore.ErrNotFound) {
		apierr.Validation(w, inputval.Invalid("before", "does not name a message"))
		return
	}
	if err != nil {
		apierr.Internal(w, h.Log, "list messages", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, page)
}

// HandlePost handles POST /projects/{projectID}/discussion.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	p, ok := h.gate(w, r, accesspolicy.ActionReply)
	if !ok {
		return
	}
	body, ok := readMessage(w, r)
	if !ok {
		return
	}
	_, name, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Discussions.Post(ctx, models.DiscussionMessage{
		ProjectID:  p.ID,
		AuthorID:   uid,
		AuthorName: name,
		Body:       body,
	})
	if err != nil {
		apierr.Internal(w, h.Log, "post message", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, m)
}

// HandleEdit handles PUT /projects/{projectID}/discussion/{messageID}.
// Only the author may edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.loadMessage(w, r, accesspolicy.ActionEdit)
	if !ok {
		return
	}
	body, ok := readMessage(w, r)
	if !ok {
		return
	}
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Discussions.Edit(ctx, m.ID, uid, body)
	switch {
	case errors.Is(err, discussionstore.ErrNotAuthor):
		apierr.Forbidden(w, err.Error())
		return
	case errors.Is(err, discussionstore.ErrNotFound):
		apierr.NotFound(w, "message not found")
		return
	case err != nil:
		apierr.Internal(w, h.Log, "edit message", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /projects/{projectID}/discussion/{messageID}.
// The author or a project admin may delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, m, ok := h.loadMessage(w, r, accesspolicy.ActionView)
	if !ok {
		return
	}
	_, _, uid, _ := authz.UserCtx(r)
	if m.AuthorID != uid && !projectpolicy.CanManage(r, p) {
		apierr.Forbidden(w, "only the author or a project admin can delete a message")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Discussions.Delete(ctx, m.ID)
	if errors.Is(err, discussionstore.ErrNotFound) {
		apierr.NotFound(w, "message not found")
		return
	}
	if err != nil {
		apierr.Internal(w, h.Log, "delete message", err, zap.String("project_id", p.ID.Hex()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readMessage decodes and sanitizes a message body.
func readMessage(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw, ok := shared.ReadBodyLimit(w, r, limits.MaxMessageBody)
	if !ok {
		return "", false
	}
	body, err := payload.Message(raw)
	if err != nil {
		apierr.Validation(w, err)
		return "", false
	}
	body = htmlsanitize.Sanitize(body)
	if body == "" {
		apierr.Validation(w, inputval.Invalid("body", "has no content after formatting was removed"))
		return "", false
	}
	return body, true
}

// gate loads {projectID} and checks the caller may perform action on the discussion.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request, action accesspolicy.Action) (models.Project, bool) {
	p, ok := shared.LoadProject(w, r, h.Projects, h.Log)
	if !ok {
		return models.Project{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	allowed, err := projectpolicy.Allowed(ctx, h.Cache, r, p, models.ModuleDiscussion, action)
	if err != nil {
		apierr.Internal(w, h.Log, "check discussion access", err, zap.String("project_id", p.ID.Hex()))
		return models.Project{}, false
	}
	if !allowed {
		apierr.Forbidden(w, "your access to this discussion is restricted")
		return models.Project{}, false
	}
	return p, true
}

// loadMessage gates the request and loads {messageID}, which must belong to the project.
func (h *Handler) loadMessage(w http.ResponseWriter, r *http.Request, action accesspolicy.Action) (models.Project, models.DiscussionMessage, bool) {
	p, ok := h.gate(w, r, action)
	if !ok {
		return models.Project{}, models.DiscussionMessage{}, false
	}
	id, ok := shared.PathID(w, r, "messageID")
	if !ok {
		return models.Project{}, models.DiscussionMessage{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Discussions.GetByID(ctx, id)
	if errors.Is(err, discussionstore.ErrNotFound) || (err == nil && m.ProjectID != p.ID) {
		apierr.NotFound(w, "message not found")
		return models.Project{}, models.DiscussionMessage{}, false
	}
	if err != nil {
		apierr.Internal(w, h.Log, "load message", err, zap.String("project_id", p.ID.Hex()))
		return models.Project{}, models.DiscussionMessage{}, false
	}
	return p, m, true
}
