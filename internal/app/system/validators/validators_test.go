package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/workhub/internal/app/system/validators"
	"github.com/dalemusser/workhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "projects", "project_access", "issues", "discussion_messages", "audit_events", "login_codes"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestValidators(t *testing.T) {
	db := setup(t)
	now := time.Now()
	oid := primitive.NewObjectID

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"user missing fields", "users", bson.M{"full_name": "x"}, true},
		{"user bad role", "users", bson.M{"full_name": "A", "email": "a@x.io", "role": "superadmin", "status": "active"}, true},
		{"user valid", "users", bson.M{"full_name": "A", "full_name_ci": "a", "email": "a@x.io", "role": "user", "status": "active"}, false},

		{"project blank name", "projects", bson.M{"name": "  ", "name_ci": "x", "owner_id": oid(), "status": "active"}, true},
		{"project valid", "projects", bson.M{"name": "P", "name_ci": "p", "owner_id": oid(), "member_ids": bson.A{oid()}, "status": "active"}, false},

		{"access unknown module", "project_access", bson.M{"project_id": oid(), "user_id": oid(), "module": "wiki", "can_view": true, "can_reply": false, "can_edit": false}, true},
		{"access string flag", "project_access", bson.M{"project_id": oid(), "user_id": oid(), "module": "tasks", "can_view": "true", "can_reply": false, "can_edit": false}, true},
		{"access valid", "project_access", bson.M{"project_id": oid(), "user_id": oid(), "module": "tasks", "can_view": true, "can_reply": false, "can_edit": false}, false},

		{"issue bad kind", "issues", bson.M{"project_id": oid(), "kind": "bug", "title": "t", "status": "Pending", "creator_id": oid()}, true},
		{"issue legacy status", "issues", bson.M{"project_id": oid(), "kind": "issue", "title": "t", "status": "Blocked", "creator_id": oid(), "created_at": now}, false},

		{"message empty body", "discussion_messages", bson.M{"project_id": oid(), "author_id": oid(), "body": "", "created_at": now}, true},
		{"message valid", "discussion_messages", bson.M{"project_id": oid(), "author_id": oid(), "body": "hi", "created_at": now}, false},

		{"audit missing category", "audit_events", bson.M{"timestamp": now, "event_type": "login_success", "success": true}, true},
		{"audit string time", "audit_events", bson.M{"timestamp": "2024-01-01", "category": "auth", "event_type": "login_success", "success": true}, true},
		{"audit valid", "audit_events", bson.M{"timestamp": now, "category": "auth", "event_type": "login_success", "success": true, "ip": "10.0.0.1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.TestContext()
			defer cancel()

			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("insert err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoginCodes_NoValidator(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := db.Collection("login_codes").InsertOne(ctx, bson.M{"anything": 1}); err != nil {
		t.Errorf("insert into login_codes failed: %v", err)
	}
}
