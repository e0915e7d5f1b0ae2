// Package issuerank filters and orders issue/task lists for display.
//
// Ordering is by priority bucket, then most recent first:
//
//	0  Pending, critical
//	1  Pending
//	2  Completed, critical
//	3  Completed
//	4  everything else (In Progress, unknown)
//
// The sort is stable, so equal bucket and CreatedAt keep input order.
package issuerank

import (
	"slices"
	"strings"

	"github.com/dalemusser/workhub/internal/app/system/inputval"
	"github.com/dalemusser/workhub/internal/domain/models"
)

// StatusFilter selects which statuses RankIssues keeps.
type StatusFilter string

const (
	FilterAll        StatusFilter = "all"
	FilterPending    StatusFilter = "pending"
	FilterInProgress StatusFilter = "in_progress"
	FilterCompleted  StatusFilter = "completed"
)

// ParseStatusFilter accepts the filter names case-insensitively.
// An empty string means FilterAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPending, FilterInProgress, FilterCompleted:
		return f, nil
	}
	return "", inputval.Invalid("status", "must be one of all, pending, in_progress, completed")
}

func (f StatusFilter) keep(status string) bool {
	switch f {
	case FilterPending:
		return status == models.StatusPending
	case FilterInProgress:
		return status == models.StatusInProgress
	case FilterCompleted:
		return status == models.StatusCompleted
	}
	return true
}

// RankIssues returns a new slice holding the issues that pass filter and
// search, in display order. The input slice is not modified.
func RankIssues(issues []models.Issue, filter StatusFilter, search string) []models.Issue {
	needle := strings.ToLower(search)

	out := make([]models.Issue, 0, len(issues))
	for _, is := range issues {
		if !filter.keep(is.Status) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(is.Title), needle) {
			continue
		}
		out = append(out, is)
	}

	slices.SortStableFunc(out, func(a, b models.Issue) int {
		if ba, bb := Bucket(a), Bucket(b); ba != bb {
			return ba - bb
		}
		ta, tb := createdMillis(a), createdMillis(b)
		switch {
		case ta > tb:
			return -1
		case ta < tb:
			return 1
		}
		return 0
	})
	return out
}

// Bucket returns the priority bucket for is; lower sorts first.
func Bucket(is models.Issue) int {
	switch is.Status {
	case models.StatusPending:
		if is.IsCritical {
			return 0
		}
		return 1
	case models.StatusCompleted:
		if is.IsCritical {
			return 2
		}
		return 3
	}
	return 4
}

// createdMillis treats a missing CreatedAt as the Unix epoch.
func createdMillis(is models.Issue) int64 {
	if is.CreatedAt.IsZero() {
		return 0
	}
	return is.CreatedAt.UnixMilli()
}

// DisplayStatus maps an issue to the label shown in lists.
func DisplayStatus(is models.Issue) string {
	switch {
	case is.Status == models.StatusCompleted && is.IsApproved:
		return "resolved"
	case is.Status == models.StatusCompleted && is.IsApprovalNeeded && !is.IsApproved:
		return "pending approval"
	case is.Status == models.StatusInProgress:
		return "in progress"
	case is.Status == "":
		return "pending"
	}
	return strings.ToLower(is.Status)
}
