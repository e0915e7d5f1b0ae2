// internal/app/store/issues/issuestore.go
package issuestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dalemusser/workhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no issue matches.
	ErrNotFound = errors.New("issue not found")
	// ErrNotCompleted is returned when approving an issue that is not Completed.
	ErrNotCompleted = errors.New("only completed issues can be approved")

	errNoTitle   = errors.New("title is required")
	errBadKind   = errors.New(`kind must be "issue"|"task"`)
	errBadStatus = errors.New("status must be Pending, In Progress or Completed")
)

// IsCanonicalStatus reports whether s is one of the three stored statuses.
func IsCanonicalStatus(s string) bool {
	switch s {
	case models.StatusPending, models.StatusInProgress, models.StatusCompleted:
		return true
	}
	return false
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("issues")}
}

// ListByProject returns a project's issues of kind, newest first.
// An empty kind returns issues and tasks together.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID, kind string) ([]models.Issue, error) {
	filter := bson.M{"project_id": projectID}
	if kind != "" {
		filter["kind"] = kind
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Issue{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Issue, error) {
	var is models.Issue
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&is); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Issue{}, ErrNotFound
		}
		return models.Issue{}, err
	}
	return is, nil
}

// Create inserts is. Kind defaults to issue and Status to Pending.
// A zero CreatedAt is set to now.
func (s *Store) Create(ctx context.Context, is models.Issue) (models.Issue, error) {
	is.Title = strings.TrimSpace(is.Title)
	if is.Title == "" {
		return models.Issue{}, errNoTitle
	}
	if is.Kind == "" {
		is.Kind = models.KindIssue
	}
	if is.Kind != models.KindIssue && is.Kind != models.KindTask {
		return models.Issue{}, errBadKind
	}
	if is.Status == "" {
		is.Status = models.StatusPending
	}
	if !IsCanonicalStatus(is.Status) {
		return models.Issue{}, errBadStatus
	}

	now := time.Now().UTC()
	is.ID = primitive.NewObjectID()
	is.TitleCI = text.Fold(is.Title)
	if is.CreatedAt.IsZero() {
		is.CreatedAt = now
	}
	is.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, is); err != nil {
		return models.Issue{}, err
	}
	return is, nil
}

// UpdateStatus moves an issue to st. Leaving Completed withdraws any approval.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, st string) (models.Issue, error) {
	if !IsCanonicalStatus(st) {
		return models.Issue{}, errBadStatus
	}
	set := bson.M{"status": st, "updated_at": time.Now().UTC()}
	if st != models.StatusCompleted {
		set["is_approved"] = false
	}
	return s.update(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// SetCritical flags or unflags an issue as critical.
func (s *Store) SetCritical(ctx context.Context, id primitive.ObjectID, critical bool) (models.Issue, error) {
	return s.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_critical": critical, "updated_at": time.Now().UTC()}})
}

// Approve marks a completed issue as approved.
func (s *Store) Approve(ctx context.Context, id primitive.ObjectID) (models.Issue, error) {
	is, err := s.update(ctx,
		bson.M{"_id": id, "status": models.StatusCompleted},
		bson.M{"$set": bson.M{"is_approved": true, "updated_at": time.Now().UTC()}})
	if errors.Is(err, ErrNotFound) {
		// distinguish a missing issue from one that is not completed
		if _, gerr := s.GetByID(ctx, id); gerr == nil {
			return models.Issue{}, ErrNotCompleted
		}
	}
	return is, err
}

func (s *Store) update(ctx context.Context, filter, update bson.M) (models.Issue, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Issue
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Issue{}, ErrNotFound
		}
		return models.Issue{}, err
	}
	return out, nil
}

// Delete removes an issue. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByProject removes every issue and task in a project.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
