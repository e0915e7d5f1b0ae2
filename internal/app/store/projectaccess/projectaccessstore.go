// internal/app/store/projectaccess/projectaccessstore.go
package projectaccessstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/workhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no restriction exists for (project, user, module).
var ErrNotFound = errors.New("restriction not found")

// Store persists per-user module restrictions. There is at most one record per
// (project_id, user_id, module); the unique index enforces it.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("project_access")}
}

func key(projectID, userID primitive.ObjectID, module string) bson.M {
	return bson.M{"project_id": projectID, "user_id": userID, "module": module}
}

// ListByProject returns every restriction in a project ordered by user then module.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.ProjectAccess, error) {
	return s.find(ctx, bson.M{"project_id": projectID})
}

// ListForUser returns userID's restrictions in a project.
func (s *Store) ListForUser(ctx context.Context, projectID, userID primitive.ObjectID) ([]models.ProjectAccess, error) {
	return s.find(ctx, bson.M{"project_id": projectID, "user_id": userID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.ProjectAccess, error) {
	opts := options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}, {Key: "module", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ProjectAccess{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flagsSet(rec models.ProjectAccess, setBy primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"can_view":   rec.CanView,
		"can_reply":  rec.CanReply,
		"can_edit":   rec.CanEdit,
		"set_by":     setBy,
		"updated_at": now,
	}
}

// Set creates or replaces the restriction for (rec.ProjectID, rec.UserID, rec.Module)
// and returns the stored record.
func (s *Store) Set(ctx context.Context, rec models.ProjectAccess, setBy primitive.ObjectID) (models.ProjectAccess, error) {
	now := time.Now().UTC()
	set := flagsSet(rec, setBy, now)
	update := bson.M{
		"$set":         set,
		"$unset":       bson.M{"batch_id": ""},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.ProjectAccess
	err := s.c.FindOneAndUpdate(ctx, key(rec.ProjectID, rec.UserID, rec.Module), update, opts).Decode(&out)
	if err != nil {
		return models.ProjectAccess{}, err
	}
	return out, nil
}

// Update changes the flags of an existing restriction. It does not create one.
func (s *Store) Update(ctx context.Context, rec models.ProjectAccess, setBy primitive.ObjectID) (models.ProjectAccess, error) {
	update := bson.M{"$set": flagsSet(rec, setBy, time.Now().UTC())}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out models.ProjectAccess
	err := s.c.FindOneAndUpdate(ctx, key(rec.ProjectID, rec.UserID, rec.Module), update, opts).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ProjectAccess{}, ErrNotFound
		}
		return models.ProjectAccess{}, err
	}
	return out, nil
}

// Remove deletes one restriction, restoring full access for that module.
func (s *Store) Remove(ctx context.Context, projectID, userID primitive.ObjectID, module string) error {
	res, err := s.c.DeleteOne(ctx, key(projectID, userID, module))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkResult summarizes a BulkSet.
type BulkResult struct {
	BatchID  string `json:"batchId"`
	Created  int64  `json:"created"`
	Modified int64  `json:"modified"`
	Matched  int64  `json:"matched"`
}

// BulkSet upserts every record in one unordered bulk write. All records share a
// fresh batch id so a bulk change can be traced back later.
func (s *Store) BulkSet(ctx context.Context, projectID primitive.ObjectID, recs []models.ProjectAccess, setBy primitive.ObjectID) (BulkResult, error) {
	batch := uuid.NewString()
	if len(recs) == 0 {
		return BulkResult{BatchID: batch}, nil
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(recs))
	for _, rec := range recs {
		set := flagsSet(rec, setBy, now)
		set["batch_id"] = batch
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(key(projectID, rec.UserID, rec.Module)).
			SetUpdate(bson.M{"$set": set, "$setOnInsert": bson.M{"created_at": now}}).
			SetUpsert(true))
	}

	res, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return BulkResult{}, err
	}
	return BulkResult{
		BatchID:  batch,
		Created:  res.UpsertedCount,
		Modified: res.ModifiedCount,
		Matched:  res.MatchedCount,
	}, nil
}

// DeleteForUser removes all of userID's restrictions in a project.
func (s *Store) DeleteForUser(ctx context.Context, projectID, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID, "user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByProject removes every restriction in a project.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
