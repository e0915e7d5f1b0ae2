package issuerank_test

import (
	"testing"
	"time"

	"github.com/dalemusser/workhub/internal/app/system/issuerank"
	"github.com/dalemusser/workhub/internal/domain/models"
	"github.com/google/go-cmp/cmp"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func ids(issues []models.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Title)
	}
	return out
}

func TestRankIssues_Empty(t *testing.T) {
	for _, f := range []issuerank.StatusFilter{issuerank.FilterAll, issuerank.FilterPending, issuerank.FilterCompleted} {
		got := issuerank.RankIssues(nil, f, "anything")
		if got == nil || len(got) != 0 {
			t.Errorf("filter %q: expected empty non-nil slice, got %v", f, got)
		}
	}
}

func TestRankIssues_BucketOrder(t *testing.T) {
	a := models.Issue{Title: "A", Status: models.StatusPending, IsCritical: true, CreatedAt: day(1)}
	b := models.Issue{Title: "B", Status: models.StatusPending, CreatedAt: day(2)}
	c := models.Issue{Title: "C", Status: models.StatusCompleted, IsCritical: true, CreatedAt: day(3)}
	d := models.Issue{Title: "D", Status: models.StatusInProgress, CreatedAt: day(4)}

	inputs := [][]models.Issue{
		{b, d, c, a},
		{d, c, b, a},
		{a, b, c, d},
	}
	for _, in := range inputs {
		got := ids(issuerank.RankIssues(in, issuerank.FilterAll, ""))
		if diff := cmp.Diff([]string{"A", "B", "C", "D"}, got); diff != "" {
			t.Errorf("input %v: order mismatch (-want +got):\n%s", ids(in), diff)
		}
	}
}

func TestRankIssues_AllBuckets(t *testing.T) {
	in := []models.Issue{
		{Title: "progress", Status: models.StatusInProgress, IsCritical: true, CreatedAt: day(9)},
		{Title: "done", Status: models.StatusCompleted, CreatedAt: day(9)},
		{Title: "done-critical", Status: models.StatusCompleted, IsCritical: true, CreatedAt: day(1)},
		{Title: "pending", Status: models.StatusPending, CreatedAt: day(9)},
		{Title: "pending-critical", Status: models.StatusPending, IsCritical: true, CreatedAt: day(1)},
		{Title: "no-status", CreatedAt: day(10)},
	}

	got := ids(issuerank.RankIssues(in, issuerank.FilterAll, ""))
	want := []string{"pending-critical", "pending", "done-critical", "done", "no-status", "progress"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRankIssues_RecencyWithinBucket(t *testing.T) {
	older := models.Issue{Title: "older", Status: models.StatusPending, IsCritical: true, CreatedAt: day(1)}
	newer := models.Issue{Title: "newer", Status: models.StatusPending, IsCritical: true, CreatedAt: day(2)}

	got := ids(issuerank.RankIssues([]models.Issue{older, newer}, issuerank.FilterAll, ""))
	if diff := cmp.Diff([]string{"newer", "older"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRankIssues_StableOnTies(t *testing.T) {
	in := []models.Issue{
		{Title: "first", Status: models.StatusPending, CreatedAt: day(5)},
		{Title: "second", Status: models.StatusPending, CreatedAt: day(5)},
		{Title: "third", Status: models.StatusPending, CreatedAt: day(5)},
	}

	got := ids(issuerank.RankIssues(in, issuerank.FilterAll, ""))
	if diff := cmp.Diff([]string{"first", "second", "third"}, got); diff != "" {
		t.Errorf("ties reordered (-want +got):\n%s", diff)
	}
}

func TestRankIssues_MissingCreatedAtSortsLast(t *testing.T) {
	in := []models.Issue{
		{Title: "undated", Status: models.StatusPending},
		{Title: "dated", Status: models.StatusPending, CreatedAt: day(1)},
	}

	got := ids(issuerank.RankIssues(in, issuerank.FilterAll, ""))
	if diff := cmp.Diff([]string{"dated", "undated"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRankIssues_StatusFilter(t *testing.T) {
	in := []models.Issue{
		{Title: "p1", Status: models.StatusPending, CreatedAt: day(1)},
		{Title: "ip", Status: models.StatusInProgress, CreatedAt: day(2)},
		{Title: "c1", Status: models.StatusCompleted, CreatedAt: day(3)},
		{Title: "p2", Status: models.StatusPending, IsCritical: true, CreatedAt: day(4)},
		{Title: "p3", Status: models.StatusPending, CreatedAt: day(5)},
	}

	tests := []struct {
		filter issuerank.StatusFilter
		want   []string
	}{
		{issuerank.FilterAll, []string{"p2", "p3", "p1", "c1", "ip"}},
		{issuerank.FilterPending, []string{"p2", "p3", "p1"}},
		{issuerank.FilterInProgress, []string{"ip"}},
		{issuerank.FilterCompleted, []string{"c1"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := ids(issuerank.RankIssues(in, tt.filter, ""))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRankIssues_PendingMatchesFullRankRestricted(t *testing.T) {
	in := []models.Issue{
		{Title: "a", Status: models.StatusCompleted, CreatedAt: day(1)},
		{Title: "b", Status: models.StatusPending, CreatedAt: day(2)},
		{Title: "c", Status: models.StatusPending, IsCritical: true, CreatedAt: day(3)},
		{Title: "d", Status: models.StatusInProgress, CreatedAt: day(4)},
		{Title: "e", Status: models.StatusPending, CreatedAt: day(5)},
	}

	var restricted []string
	for _, is := range issuerank.RankIssues(in, issuerank.FilterAll, "") {
		if b := issuerank.Bucket(is); b == 0 || b == 1 {
			restricted = append(restricted, is.Title)
		}
	}

	got := ids(issuerank.RankIssues(in, issuerank.FilterPending, ""))
	if diff := cmp.Diff(restricted, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRankIssues_Search(t *testing.T) {
	in := []models.Issue{
		{Title: "Urgent Fix", Status: models.StatusPending, CreatedAt: day(1)},
		{Title: "Routine cleanup", Status: models.StatusPending, CreatedAt: day(2)},
		{Title: "NOT URGENT", Status: models.StatusCompleted, CreatedAt: day(3)},
	}

	got := ids(issuerank.RankIssues(in, issuerank.FilterAll, "urgent"))
	if diff := cmp.Diff([]string{"Urgent Fix", "NOT URGENT"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	got = ids(issuerank.RankIssues(in, issuerank.FilterAll, "URGENT fix"))
	if diff := cmp.Diff([]string{"Urgent Fix"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRankIssues_DoesNotMutateInput(t *testing.T) {
	in := []models.Issue{
		{Title: "late", Status: models.StatusInProgress, CreatedAt: day(1)},
		{Title: "early", Status: models.StatusPending, IsCritical: true, CreatedAt: day(2)},
	}
	before := ids(in)

	_ = issuerank.RankIssues(in, issuerank.FilterAll, "")

	if diff := cmp.Diff(before, ids(in)); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestRankIssues_RepeatedCallsAreStable(t *testing.T) {
	in := []models.Issue{
		{Title: "x", Status: models.StatusPending, CreatedAt: day(3)},
		{Title: "y", Status: models.StatusCompleted, IsCritical: true, CreatedAt: day(3)},
		{Title: "z", Status: models.StatusPending, CreatedAt: day(3)},
		{Title: "w", Status: models.StatusInProgress},
	}

	once := issuerank.RankIssues(in, issuerank.FilterAll, "")
	twice := issuerank.RankIssues(once, issuerank.FilterAll, "")
	if diff := cmp.Diff(ids(once), ids(twice)); diff != "" {
		t.Errorf("re-ranking changed order (-once +twice):\n%s", diff)
	}
}

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    issuerank.StatusFilter
		wantErr bool
	}{
		{"", issuerank.FilterAll, false},
		{"all", issuerank.FilterAll, false},
		{"Pending", issuerank.FilterPending, false},
		{"in_progress", issuerank.FilterInProgress, false},
		{" COMPLETED ", issuerank.FilterCompleted, false},
		{"in progress", "", true},
		{"open", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := issuerank.ParseStatusFilter(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatusFilter(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatusFilter(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDisplayStatus(t *testing.T) {
	tests := []struct {
		name  string
		issue models.Issue
		want  string
	}{
		{"approved completion", models.Issue{Status: models.StatusCompleted, IsApproved: true}, "resolved"},
		{"approved without need", models.Issue{Status: models.StatusCompleted, IsApproved: true, IsApprovalNeeded: false}, "resolved"},
		{"awaiting approval", models.Issue{Status: models.StatusCompleted, IsApprovalNeeded: true}, "pending approval"},
		{"completed no approval flow", models.Issue{Status: models.StatusCompleted}, "completed"},
		{"in progress", models.Issue{Status: models.StatusInProgress, IsApproved: true}, "in progress"},
		{"pending", models.Issue{Status: models.StatusPending}, "pending"},
		{"missing status", models.Issue{}, "pending"},
		{"unknown status", models.Issue{Status: "Blocked"}, "blocked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := issuerank.DisplayStatus(tt.issue); got != tt.want {
				t.Errorf("DisplayStatus = %q, want %q", got, tt.want)
			}
		})
	}
}
