package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dalemusser/workhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it again on the same request adds to the existing params.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active test user.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateProject creates an active project owned by ownerID with the given members.
func (f *Fixtures) CreateProject(ctx context.Context, name string, ownerID primitive.ObjectID, memberIDs ...primitive.ObjectID) models.Project {
	f.t.Helper()

	if memberIDs == nil {
		memberIDs = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	p := models.Project{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   ownerID,
		MemberIDs: memberIDs,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

// CreateIssue creates an issue in projectID. A zero createdAt means now.
func (f *Fixtures) CreateIssue(ctx context.Context, projectID, creatorID primitive.ObjectID, title, status string, critical bool, createdAt time.Time) models.Issue {
	f.t.Helper()

	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	is := models.Issue{
		ID:          primitive.NewObjectID(),
		ProjectID:   projectID,
		Kind:        models.KindIssue,
		Title:       title,
		TitleCI:     text.Fold(title),
		Status:      status,
		IsCritical:  critical,
		CreatorID:   creatorID,
		CreatorName: "Test Creator",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	if _, err := f.db.Collection("issues").InsertOne(ctx, is); err != nil {
		f.t.Fatalf("failed to create test issue: %v", err)
	}
	return is
}

// CreateTask creates a task in projectID. A zero createdAt means now.
func (f *Fixtures) CreateTask(ctx context.Context, projectID, creatorID primitive.ObjectID, title, status string, critical bool, createdAt time.Time) models.Issue {
	f.t.Helper()

	is := f.CreateIssue(ctx, projectID, creatorID, title, status, critical, createdAt)
	if _, err := f.db.Collection("issues").UpdateByID(ctx, is.ID, bson.M{"$set": bson.M{"kind": models.KindTask}}); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	is.Kind = models.KindTask
	return is
}

// CreateRestriction stores a restriction for (projectID, userID, module).
// The flags keep their stored meaning: true blocks the action.
func (f *Fixtures) CreateRestriction(ctx context.Context, projectID, userID primitive.ObjectID, module string, view, reply, edit bool) models.ProjectAccess {
	f.t.Helper()

	now := time.Now().UTC()
	rec := models.ProjectAccess{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		UserID:    userID,
		Module:    module,
		CanView:   view,
		CanReply:  reply,
		CanEdit:   edit,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("project_access").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("failed to create test restriction: %v", err)
	}
	return rec
}

// CreateMessage posts a discussion message.
func (f *Fixtures) CreateMessage(ctx context.Context, projectID, authorID primitive.ObjectID, body string) models.DiscussionMessage {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.DiscussionMessage{
		ID:         primitive.NewObjectID(),
		ProjectID:  projectID,
		AuthorID:   authorID,
		AuthorName: "Test Author",
		Body:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("discussion_messages").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return m
}
