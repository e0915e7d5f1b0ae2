// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureProjects(ctx, db); err != nil {
		problems = append(problems, "projects: "+err.Error())
	}
	// one restriction per (project, user, module); upserts rely on it
	if err := ensureProjectAccess(ctx, db); err != nil {
		problems = append(problems, "project_access: "+err.Error())
	}
	if err := ensureIssues(ctx, db); err != nil {
		problems = append(problems, "issues: "+err.Error())
	}
	if err := ensureDiscussionMessages(ctx, db); err != nil {
		problems = append(problems, "discussion_messages: "+err.Error())
	}
	if err := ensureLoginCodes(ctx, db); err != nil {
		problems = append(problems, "login_codes: "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// existingIndex is the subset of listIndexes output compared against a desired model.
type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

// dupHint points operators at an aggregation that finds the offending
// documents when a unique index cannot be built.
func dupHint(coll, sig string) string {
	switch {
	case coll == "users" && strings.Contains(sig, "email:1"):
		return "; duplicates exist on users.email. Example finder:\n" +
			`db.users.aggregate([{ $group: { _id: "$email", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	case coll == "project_access":
		return "; duplicate restrictions exist. Example finder:\n" +
			`db.project_access.aggregate([{ $group: { _id: { p: "$project_id", u: "$user_id", m: "$module" }, n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	}
	return ""
}

// listIndexes returns the collection's indexes keyed by key signature.
func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexSet reconciles the desired indexes for one collection. An index
// with the same keys is reused when its uniqueness matches and its name does;
// otherwise it is dropped and recreated under the desired name and options.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var name string
		var unique bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique != nil && *m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique))
		start := time.Now()

		existing, err := listIndexes(ctx, coll)
		if err != nil {
			// A collection that doesn't exist yet has no indexes to reconcile.
			log.Debug("list indexes failed", zap.Error(err))
		}

		if ex, ok := existing[sig]; ok {
			if ex.Unique == unique && (name == "" || ex.Name == name) {
				log.Info("reusing existing index", zap.Duration("took", time.Since(start)))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop %s failed: %v", coll.Name(), name, ex.Name, err))
				continue
			}
			log.Info("dropped index for recreate", zap.String("existing", ex.Name))
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			if isDuplicateKeyErr(err) && unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)%s",
					coll.Name(), name, dupHint(coll.Name(), sig)))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email is the sign-in identifier and must be unique.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Member pickers: filter by status, sort by folded name.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_status_fullnameci_id"),
		},
	})
}

func ensureProjects(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("projects")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_projects_owner_nameci"),
		},
		// "my projects": multikey over members
		{
			Keys:    bson.D{{Key: "member_ids", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_projects_members_nameci"),
		},
		{
			Keys:    bson.D{{Key: "admin_ids", Value: 1}},
			Options: options.Index().SetName("idx_projects_admins"),
		},
	})
}

func ensureProjectAccess(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("project_access")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "project_id", Value: 1},
				{Key: "user_id", Value: 1},
				{Key: "module", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_project_access_project_user_module"),
		},
		// cleanup when a user leaves every project
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_project_access_user"),
		},
		{
			Keys:    bson.D{{Key: "batch_id", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_project_access_batch"),
		},
	})
}

func ensureIssues(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("issues")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// list per project and kind, newest first; ranking happens in memory
		{
			Keys: bson.D{
				{Key: "project_id", Value: 1},
				{Key: "kind", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_issues_project_kind_created"),
		},
		// per-project status counts
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_issues_project_status"),
		},
	})
}

func ensureDiscussionMessages(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("discussion_messages")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_discussion_project_created_id"),
		},
	})
}

func ensureLoginCodes(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("login_codes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// one pending code per user; a resend replaces it
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_login_codes_user"),
		},
		// Mongo reaps expired codes
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_login_codes_expires"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("audit_events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_project_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
