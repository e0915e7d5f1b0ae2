// internal/app/features/issues/list.go
package issues

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/workhub/internal/app/features/shared"
	"github.com/dalemusser/workhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/workhub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/workhub/internal/app/system/apierr"
	"github.com/dalemusser/workhub/internal/app/system/authz"
	"github.com/dalemusser/workhub/internal/app/system/inputval"
	"github.com/dalemusser/workhub/internal/app/system/issuerank"
	"github.com/dalemusser/workhub/internal/app/system/timeouts"
	"github.com/dalemusser/workhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// issueItem is an issue as shown in a list.
type issueItem struct {
	models.Issue
	DisplayStatus     string `json:"displayStatus"`
	CanToggleCritical bool   `json:"canToggleCritical"`
}

func decorate(is models.Issue, viewer primitive.ObjectID) issueItem {
	return issueItem{
		Issue:             is,
		DisplayStatus:     issuerank.DisplayStatus(is),
		CanToggleCritical: is.CreatorID == viewer,
	}
}

// parseKind accepts "", "issue" or "task".
func parseKind(s string) (string, error) {
	switch k := strings.ToLower(strings.TrimSpace(s)); k {
	case "", models.KindIssue, models.KindTask:
		return k, nil
	}
	return "", inputval.Invalid("kind", "must be issue or task")
}

// ServeList handles GET /projects/{projectID}/issues?kind=&status=&q=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p, ok := h.gate(w, r, accesspolicy.ActionView)
	if !ok {
		return
	}

	kind, err := parseKind(query.Get(r, "kind"))
	if err != nil {
		apierr.Validation(w, err)
		return
	}
	filter, err := issuerank.ParseStatusFilter(query.Get(r, "status"))
	if err != nil {
		apierr.Validation(w, err)
		return
	}
	search := query.Get(r, "q")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	all, err := h.Issues.ListByProject(ctx, p.ID, kind)
	if err != nil {
		apierr.Internal(w, h.Log, "list issues", err, zap.String("project_id", p.ID.Hex()))
		return
	}

	_, _, uid, _ := authz.UserCtx(r)
	ranked := issuerank.RankIssues(all, filter, search)
	items := make([]issueItem, 0, len(ranked))
	for _, is := range ranked {
		items = append(items, decorate(is, uid))
	}

	apierr.WriteJSON(w, http.StatusOK, map[string]any{
		"issues": items,
		"total":  len(all),
		"status": filter,
		"q":      search,
	})
}

// gate loads {projectID} and checks the caller may perform action on tasks.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request, action accesspolicy.Action) (models.Project, bool) {
	p, ok := shared.LoadProject(w, r, h.Projects, h.Log)
	if !ok {
		return models.Project{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	allowed, err := projectpolicy.Allowed(ctx, h.Cache, r, p, models.ModuleTasks, action)
	if err != nil {
		apierr.Internal(w, h.Log, "check task access", err, zap.String("project_id", p.ID.Hex()))
		return models.Project{}, false
	}
	if !allowed {
		apierr.Forbidden(w, "your access to tasks in this project is restricted")
		return models.Project{}, false
	}
	return p, true
}
