// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/workhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates every WorkHub collection that is missing and attaches its
// $jsonSchema validator. Servers without collMod validator support (some
// DocumentDB versions) get the collections only.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		zap.L().Warn("list collections failed; creating blindly", zap.Error(err))
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	var problems []string
	for _, c := range []struct {
		name   string
		schema bson.M
	}{
		{"users", usersSchema()},
		{"projects", projectsSchema()},
		{"project_access", projectAccessSchema()},
		{"issues", issuesSchema()},
		{"discussion_messages", discussionSchema()},
		{"audit_events", auditSchema()},
		// short-lived; the TTL index is enough
		{"login_codes", nil},
	} {
		if err := ensureCollection(ctx, db, c.name, have[c.name]); err != nil {
			problems = append(problems, c.name+": "+err.Error())
			continue
		}
		if c.schema == nil {
			continue
		}
		if err := setValidator(ctx, db, c.name, c.schema); err != nil {
			if commandFailed(err, []int32{59, 115}, "no such command", "not implemented", "not supported") {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", c.name))
				continue
			}
			problems = append(problems, c.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, exists bool) error {
	if exists {
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		// created concurrently or listing failed
		if commandFailed(err, []int32{48}, "already exists", "namespace exists") {
			return nil
		}
		return err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

// commandFailed reports whether err is a command error with one of codes or
// whose message contains one of phrases (case-insensitive).
func commandFailed(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role", "status"},
			"properties": bson.M{
				"full_name":    nonBlank,
				"full_name_ci": nonBlank,
				"email":        nonBlank,
				"role":         bson.M{"enum": bson.A{"admin", "user"}},
				"status":       bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}

func projectsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "owner_id", "status"},
			"properties": bson.M{
				"name":       nonBlank,
				"name_ci":    nonBlank,
				"owner_id":   bson.M{"bsonType": "objectId"},
				"admin_ids":  bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"member_ids": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"status":     bson.M{"enum": bson.A{"active", "archived"}},
			},
		},
	}
}

func projectAccessSchema() bson.M {
	moduleEnum := bson.A{}
	for _, m := range models.AllModules {
		moduleEnum = append(moduleEnum, m)
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"project_id", "user_id", "module", "can_view", "can_reply", "can_edit"},
			"properties": bson.M{
				"project_id": bson.M{"bsonType": "objectId"},
				"user_id":    bson.M{"bsonType": "objectId"},
				"module":     bson.M{"bsonType": "string", "enum": moduleEnum},
				"can_view":   bson.M{"bsonType": "bool"},
				"can_reply":  bson.M{"bsonType": "bool"},
				"can_edit":   bson.M{"bsonType": "bool"},
				"set_by":     bson.M{"bsonType": "objectId"},
				"batch_id":   bson.M{"bsonType": "string"},
			},
		},
	}
}

func issuesSchema() bson.M {
	// status stays an open string: older records carry values outside the
	// canonical three and must still load and rank.
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"project_id", "kind", "title", "status", "creator_id"},
			"properties": bson.M{
				"project_id":         bson.M{"bsonType": "objectId"},
				"kind":               bson.M{"enum": bson.A{models.KindIssue, models.KindTask}},
				"title":              nonBlank,
				"status":             bson.M{"bsonType": "string"},
				"is_critical":        bson.M{"bsonType": "bool"},
				"is_approved":        bson.M{"bsonType": "bool"},
				"is_approval_needed": bson.M{"bsonType": "bool"},
				"creator_id":         bson.M{"bsonType": "objectId"},
				"created_at":         bson.M{"bsonType": "date"},
			},
		},
	}
}

func discussionSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"project_id", "author_id", "body", "created_at"},
			"properties": bson.M{
				"project_id": bson.M{"bsonType": "objectId"},
				"author_id":  bson.M{"bsonType": "objectId"},
				"body":       nonBlank,
				"edited":     bson.M{"bsonType": "bool"},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func auditSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"timestamp", "category", "event_type", "success"},
			"properties": bson.M{
				"timestamp":  bson.M{"bsonType": "date"},
				"category":   nonBlank,
				"event_type": nonBlank,
				"success":    bson.M{"bsonType": "bool"},
				"project_id": bson.M{"bsonType": "objectId"},
				"user_id":    bson.M{"bsonType": "objectId"},
				"actor_id":   bson.M{"bsonType": "objectId"},
			},
		},
	}
}
