package discussionstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/workhub/internal/app/system/paging"
	"github.com/dalemusser/workhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no message matches.
	ErrNotFound = errors.New("message not found")
	// ErrNotAuthor is returned when someone other than the author edits a message.
	ErrNotAuthor = errors.New("only the author can edit a message")

	errNoBody = errors.New("message body is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("discussion_messages")}
}

// Page is a window of a discussion thread in posting order (oldest first).
type Page struct {
	Messages []models.DiscussionMessage `json:"messages"`
	// HasMore is true when older messages exist before the first one.
	HasMore bool `json:"hasMore"`
	// Before is the cursor for the next older window.
	Before string `json:"before,omitempty"`
}

// ListByProject returns up to limit of the newest messages posted before the
// message with id before ("" for the latest), oldest first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID, before string, limit int) (Page, error) {
	if limit < 1 {
		limit = paging.PageSize
	}
	filter := bson.M{"project_id": projectID}
	if before != "" {
		oid, err := primitive.ObjectIDFromHex(before)
		if err != nil {
			return Page{}, ErrNotFound
		}
		anchor, err := s.GetByID(ctx, oid)
		if err != nil {
			return Page{}, err
		}
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": anchor.CreatedAt}},
			bson.M{"created_at": anchor.CreatedAt, "_id": bson.M{"$lt": anchor.ID}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return Page{}, err
	}
	defer cur.Close(ctx)

	rows := []models.DiscussionMessage{}
	if err := cur.All(ctx, &rows); err != nil {
		return Page{}, err
	}

	// rows are newest first here, so "next" is the older side.
	res := paging.TrimPageSize(&rows, "", "", limit)
	paging.Reverse(rows)

	page := Page{Messages: rows, HasMore: res.HasNext}
	if page.HasMore {
		page.Before = rows[0].ID.Hex()
	}
	return page, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.DiscussionMessage, error) {
	var m models.DiscussionMessage
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.DiscussionMessage{}, ErrNotFound
		}
		return models.DiscussionMessage{}, err
	}
	return m, nil
}

// Post appends m to its project's thread. The body must already be sanitized.
func (s *Store) Post(ctx context.Context, m models.DiscussionMessage) (models.DiscussionMessage, error) {
	m.Body = strings.TrimSpace(m.Body)
	if m.Body == "" {
		return models.DiscussionMessage{}, errNoBody
	}
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.Edited = false
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.DiscussionMessage{}, err
	}
	return m, nil
}

// Edit replaces the body of a message written by authorID and marks it edited.
func (s *Store) Edit(ctx context.Context, id, authorID primitive.ObjectID, body string) (models.DiscussionMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.DiscussionMessage{}, errNoBody
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.DiscussionMessage
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "author_id": authorID},
		bson.M{"$set": bson.M{"body": body, "edited": true, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&m)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.DiscussionMessage{}, err
	}
	// Distinguish a missing message from someone else's.
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return models.DiscussionMessage{}, gerr
	}
	return models.DiscussionMessage{}, ErrNotAuthor
}

// Delete removes a message. Returns ErrNotFound if it did not exist.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByProject removes a project's whole thread.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
