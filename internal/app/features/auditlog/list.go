// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	auditstore "github.com/dalemusser/workhub/internal/app/store/audit"
	"github.com/dalemusser/workhub/internal/app/system/apierr"
	"github.com/dalemusser/workhub/internal/app/system/inputval"
	"github.com/dalemusser/workhub/internal/app/system/paging"
	"github.com/dalemusser/workhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// defaultFailedWindow is how far back /failed-logins looks without ?since=.
const defaultFailedWindow = 24 * time.Hour

type listResponse struct {
	Events   []auditstore.Event `json:"events"`
	Names    map[string]string  `json:"names"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

// parseFilter reads category, event_type, user_id, project_id, start_date,
// end_date, page and limit. Dates are whole UTC days; end_date is inclusive.
func parseFilter(r *http.Request) (auditstore.QueryFilter, int, error) {
	size := paging.ParseLimit(r)
	page := 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}

	f := auditstore.QueryFilter{
		Category:  query.Get(r, "category"),
		EventType: query.Get(r, "event_type"),
		Limit:     int64(size),
		Offset:    int64((page - 1) * size),
	}
	if s := query.Get(r, "user_id"); s != "" {
		oid, err := inputval.ObjectID("user_id", s)
		if err != nil {
			return f, 0, err
		}
		f.UserID = &oid
	}
	if s := query.Get(r, "project_id"); s != "" {
		oid, err := inputval.ObjectID("project_id", s)
		if err != nil {
			return f, 0, err
		}
		f.ProjectID = &oid
	}
	if s := query.Get(r, "start_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, 0, inputval.Invalid("start_date", "must be YYYY-MM-DD")
		}
		f.StartTime = &t
	}
	if s := query.Get(r, "end_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, 0, inputval.Invalid("end_date", "must be YYYY-MM-DD")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &end
	}
	return f, page, nil
}

// ServeList handles GET /admin/audit.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseFilter(r)
	if err != nil {
		apierr.Validation(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		apierr.Internal(w, h.Log, "query audit events", err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		apierr.Internal(w, h.Log, "count audit events", err)
		return
	}

	apierr.WriteJSON(w, http.StatusOK, listResponse{
		Events:   events,
		Names:    h.names(ctx, events),
		Total:    total,
		Page:     page,
		PageSize: int(filter.Limit),
	})
}

// ServeFailedLogins handles GET /admin/audit/failed-logins?since=24h&limit=.
func (h *Handler) ServeFailedLogins(w http.ResponseWriter, r *http.Request) {
	window := defaultFailedWindow
	if s := query.Get(r, "since"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			apierr.Validation(w, inputval.Invalid("since", "must be a positive duration such as 24h"))
			return
		}
		window = d
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.GetFailedLogins(ctx, time.Now().UTC().Add(-window), int64(paging.ParseLimit(r)))
	if err != nil {
		apierr.Internal(w, h.Log, "list failed logins", err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

// names resolves actor and affected user IDs to display names. A lookup
// failure only costs the names, so it is logged and an empty map returned.
func (h *Handler) names(ctx context.Context, events []auditstore.Event) map[string]string {
	seen := map[primitive.ObjectID]struct{}{}
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; !ok {
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}
	for _, e := range events {
		add(e.ActorID)
		add(e.UserID)
	}

	out := map[string]string{}
	users, err := h.Users.ListByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("resolve audit user names", zap.Error(err))
		return out
	}
	for _, u := range users {
		out[u.ID.Hex()] = u.FullName
	}
	return out
}
