package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/workhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/workhub/internal/app/store/audit"
	"github.com/dalemusser/workhub/internal/app/system/auditlog"
	"github.com/dalemusser/workhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "a@example.com")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex())
	logger.RestrictionRemoved(ctx, req, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), "tasks")
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		stored  int
	}{
		{"off", auditlog.DestOff, 0},
		{"log only", auditlog.DestLog, 0},
		{"db only", auditlog.DestDB, 1},
		{"all", auditlog.DestAll, 1},
		{"unset defaults to all", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			userID := primitive.NewObjectID()
			logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: tt.setting})
			logger.Log(ctx, audit.Event{
				Category:  audit.CategoryAuth,
				EventType: audit.EventLoginSuccess,
				UserID:    &userID,
				Success:   true,
			})

			events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID, Limit: 10})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.stored {
				t.Errorf("stored %d events, want %d", len(events), tt.stored)
			}
		})
	}
}

func TestLogger_CategoriesAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DestOff, Project: auditlog.DestDB})
	req := httptest.NewRequest("POST", "/", nil)
	userID, projectID, actorID := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	logger.LoginSuccess(ctx, req, userID, "a@example.com")
	logger.MemberAdded(ctx, req, actorID, projectID, userID)

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID, Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventMemberAdded {
		t.Errorf("events = %+v, want only member_added", events)
	}
}

func TestLogger_LoginSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DestDB})

	req := httptest.NewRequest("POST", "/login/verify", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "WorkHubMobile/3.2")

	logger.LoginSuccess(ctx, req, userID, "a@example.com")

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID, Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.EventType != audit.EventLoginSuccess {
		t.Errorf("EventType: got %q, want %q", event.EventType, audit.EventLoginSuccess)
	}
	if !event.Success {
		t.Error("expected Success to be true")
	}
	if event.IP != "192.168.1.1" {
		t.Errorf("IP: got %q, want 192.168.1.1", event.IP)
	}
	if event.UserAgent != "WorkHubMobile/3.2" {
		t.Errorf("UserAgent: got %q", event.UserAgent)
	}
	if event.Details["email"] != "a@example.com" {
		t.Errorf("email detail: got %q", event.Details["email"])
	}
}

func TestLogger_LoginFailedUserNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DestDB})

	req := httptest.NewRequest("POST", "/login/code", nil)
	logger.LoginFailedUserNotFound(ctx, req, "unknown@example.com")

	events, err := store.Query(ctx, audit.QueryFilter{Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.EventType != audit.EventLoginFailedUserNotFound {
		t.Errorf("EventType: got %q, want %q", event.EventType, audit.EventLoginFailedUserNotFound)
	}
	if event.Success {
		t.Error("expected Success to be false")
	}
	if event.FailureReason != "user not found" {
		t.Errorf("FailureReason: got %q, want %q", event.FailureReason, "user not found")
	}
}

func TestLogger_Logout_BadID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DestDB})
	logger.Logout(ctx, httptest.NewRequest("POST", "/logout", nil), "not-an-id")

	events, err := store.Query(ctx, audit.QueryFilter{Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].UserID != nil {
		t.Errorf("UserID = %v, want nil for an unparseable id", events[0].UserID)
	}
}

func TestLogger_RestrictionEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Project: auditlog.DestDB})
	req := httptest.NewRequest("POST", "/", nil)
	actorID, projectID, userID := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	flags := accesspolicy.AccessFlags{CanView: true}

	logger.RestrictionSet(ctx, req, actorID, projectID, userID, "tasks", flags)
	logger.RestrictionBulkSet(ctx, req, actorID, projectID, "batch-1", 3, []string{"tasks", "files"}, flags)

	events, err := store.GetByProject(ctx, projectID, 10)
	if err != nil {
		t.Fatalf("GetByProject failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	byType := map[string]audit.Event{}
	for _, e := range events {
		byType[e.EventType] = e
	}

	set := byType[audit.EventRestrictionSet]
	if set.Details["module"] != "tasks" || set.Details["can_view"] != "true" || set.Details["can_edit"] != "false" {
		t.Errorf("restriction_set details = %v", set.Details)
	}
	if set.ActorID == nil || *set.ActorID != actorID {
		t.Errorf("ActorID = %v, want %v", set.ActorID, actorID)
	}

	bulk := byType[audit.EventRestrictionBulkSet]
	if bulk.Details["batch_id"] != "batch-1" || bulk.Details["user_count"] != "3" || bulk.Details["modules"] != "tasks,files" {
		t.Errorf("restriction_bulk_set details = %v", bulk.Details)
	}
}
