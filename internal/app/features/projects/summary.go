// internal/app/features/projects/summary.go
package projects

import (
	"context"
	"net/http"

	"github.com/dalemusser/workhub/internal/app/features/shared"
	metricsstore "github.com/dalemusser/workhub/internal/app/store/metrics"
	"github.com/dalemusser/workhub/internal/app/system/apierr"
	"github.com/dalemusser/workhub/internal/app/system/timeouts"
)

// ServeSummary handles GET /projects/{projectID}/summary.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.LoadProject(w, r, h.Projects, h.Log)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	counts := metricsstore.FetchProjectCounts(ctx, h.DB, p)
	apierr.WriteJSON(w, http.StatusOK, map[string]any{
		"projectId":   p.ID,
		"projectName": p.Name,
		"counts":      counts,
	})
}
