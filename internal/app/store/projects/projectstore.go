// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dalemusser/workhub/internal/app/system/normalize"
	"github.com/dalemusser/workhub/internal/app/system/paging"
	"github.com/dalemusser/workhub/internal/app/system/status"
	"github.com/dalemusser/workhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no project matches.
	ErrNotFound = errors.New("project not found")
	// ErrOwnerRemoval is returned when removing the owner from their own project.
	ErrOwnerRemoval = errors.New("the project owner cannot be removed")

	errNoName    = errors.New("project name is required")
	errBadStatus = errors.New(`status must be "active"|"archived"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Project{}, ErrNotFound
		}
		return models.Project{}, err
	}
	return p, nil
}

// Create inserts p owned by p.OwnerID. The name is required; status defaults to active.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	p.Name = normalize.Name(p.Name)
	if p.Name == "" {
		return models.Project{}, errNoName
	}
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.NameCI = text.Fold(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.MemberIDs == nil {
		p.MemberIDs = []primitive.ObjectID{}
	}
	if p.Status == "" {
		p.Status = status.Active
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// ListForUser returns the active projects userID owns, administers or belongs to,
// sorted by name.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	return s.find(ctx, bson.M{
		"status": status.Active,
		"$or": bson.A{
			bson.M{"owner_id": userID},
			bson.M{"admin_ids": userID},
			bson.M{"member_ids": userID},
		},
	})
}

// Page is one keyset page of projects ordered by name.
type Page struct {
	Projects []models.Project `json:"projects"`
	paging.Result
	PrevCursor string `json:"prevCursor,omitempty"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// PageForUser returns one page of the active projects visible to userID.
// When all is true (system admins) every active project is visible.
// before and after are opaque cursors from a previous page.
func (s *Store) PageForUser(ctx context.Context, userID primitive.ObjectID, all bool, before, after string) (Page, error) {
	filter := bson.M{"status": status.Active}
	if !all {
		filter["$or"] = bson.A{
			bson.M{"owner_id": userID},
			bson.M{"admin_ids": userID},
			bson.M{"member_ids": userID},
		}
	}

	cfg := paging.ConfigureKeyset(before, after)
	if window := cfg.KeysetWindow("name_ci"); window != nil {
		filter = bson.M{"$and": bson.A{filter, window}}
	}
	find := options.Find()
	cfg.ApplyToFind(find, "name_ci")

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return Page{}, err
	}
	defer cur.Close(ctx)

	rows := []models.Project{}
	if err := cur.All(ctx, &rows); err != nil {
		return Page{}, err
	}

	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	page := Page{Result: paging.TrimPage(&rows, before, after), Projects: rows}
	prev, next := paging.BuildCursors(rows,
		func(p models.Project) string { return p.NameCI },
		func(p models.Project) primitive.ObjectID { return p.ID },
	)
	if page.HasPrev {
		page.PrevCursor = prev
	}
	if page.HasNext {
		page.NextCursor = next
	}
	return page, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Project{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInfo renames a project and replaces its description.
// An empty name leaves the name unchanged.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, desc string) error {
	set := bson.M{
		"description": strings.TrimSpace(desc),
		"updated_at":  time.Now().UTC(),
	}
	if name = normalize.Name(name); name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	return s.update(ctx, id, bson.M{"$set": set})
}

// SetStatus archives or re-activates a project.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	st = normalize.Status(st)
	if !status.IsValidProject(st) {
		return errBadStatus
	}
	return s.update(ctx, id, bson.M{"$set": bson.M{"status": st, "updated_at": time.Now().UTC()}})
}

// AddMember adds userID to the project's members. Adding an existing member is a no-op.
func (s *Store) AddMember(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.update(ctx, id, bson.M{
		"$addToSet": bson.M{"member_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

// RemoveMember drops userID from members and admins. The owner cannot be removed.
func (s *Store) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.OwnerID == userID {
		return ErrOwnerRemoval
	}
	return s.update(ctx, id, bson.M{
		"$pull": bson.M{"member_ids": userID, "admin_ids": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

// SetAdmin grants or revokes project-admin rights. Admins are also members.
func (s *Store) SetAdmin(ctx context.Context, id, userID primitive.ObjectID, admin bool) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if admin {
		update["$addToSet"] = bson.M{"admin_ids": userID, "member_ids": userID}
	} else {
		update["$pull"] = bson.M{"admin_ids": userID}
	}
	return s.update(ctx, id, update)
}

// Delete removes a project. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
