package discussionstore_test

import (
	"errors"
	"fmt"
	"testing"

	discussionstore "github.com/dalemusser/workhub/internal/app/store/discussions"
	"github.com/dalemusser/workhub/internal/domain/models"
	"github.com/dalemusser/workhub/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func bodies(msgs []models.DiscussionMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Body)
	}
	return out
}

func TestStore_PostAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := discussionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid, author := primitive.NewObjectID(), primitive.NewObjectID()
	posted, err := store.Post(ctx, models.DiscussionMessage{ProjectID: pid, AuthorID: author, AuthorName: "Ada", Body: "  hello  "})
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if posted.Body != "hello" || posted.Edited {
		t.Errorf("Post = %+v", posted)
	}

	got, err := store.GetByID(ctx, posted.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.AuthorName != "Ada" || got.ProjectID != pid {
		t.Errorf("GetByID = %+v", got)
	}

	if _, err := store.Post(ctx, models.DiscussionMessage{ProjectID: pid, AuthorID: author, Body: "   "}); err == nil {
		t.Error("expected error for blank body")
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, discussionstore.ErrNotFound) {
		t.Errorf("GetByID(missing): expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListByProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := discussionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid, author := primitive.NewObjectID(), primitive.NewObjectID()
	for i := 1; i <= 5; i++ {
		fixtures.CreateMessage(ctx, pid, author, fmt.Sprintf("m%d", i))
	}
	fixtures.CreateMessage(ctx, primitive.NewObjectID(), author, "elsewhere")

	page, err := store.ListByProject(ctx, pid, "", 3)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if diff := cmp.Diff([]string{"m3", "m4", "m5"}, bodies(page.Messages)); diff != "" {
		t.Errorf("latest window mismatch (-want +got):\n%s", diff)
	}
	if !page.HasMore || page.Before == "" {
		t.Fatalf("expected more messages, got %+v", page)
	}

	older, err := store.ListByProject(ctx, pid, page.Before, 3)
	if err != nil {
		t.Fatalf("ListByProject(before) failed: %v", err)
	}
	if diff := cmp.Diff([]string{"m1", "m2"}, bodies(older.Messages)); diff != "" {
		t.Errorf("older window mismatch (-want +got):\n%s", diff)
	}
	if older.HasMore || older.Before != "" {
		t.Errorf("expected end of thread, got %+v", older)
	}

	empty, err := store.ListByProject(ctx, primitive.NewObjectID(), "", 0)
	if err != nil {
		t.Fatalf("ListByProject(empty) failed: %v", err)
	}
	if empty.Messages == nil || len(empty.Messages) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty.Messages)
	}

	if _, err := store.ListByProject(ctx, pid, "not-an-id", 3); !errors.Is(err, discussionstore.ErrNotFound) {
		t.Errorf("bad cursor: expected ErrNotFound, got %v", err)
	}
}

func TestStore_Edit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := discussionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := primitive.NewObjectID()
	m := fixtures.CreateMessage(ctx, primitive.NewObjectID(), author, "first draft")

	edited, err := store.Edit(ctx, m.ID, author, "final")
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if edited.Body != "final" || !edited.Edited {
		t.Errorf("Edit = %+v", edited)
	}

	if _, err := store.Edit(ctx, m.ID, primitive.NewObjectID(), "hijack"); !errors.Is(err, discussionstore.ErrNotAuthor) {
		t.Errorf("Edit(other): expected ErrNotAuthor, got %v", err)
	}
	if _, err := store.Edit(ctx, primitive.NewObjectID(), author, "x"); !errors.Is(err, discussionstore.ErrNotFound) {
		t.Errorf("Edit(missing): expected ErrNotFound, got %v", err)
	}
	if _, err := store.Edit(ctx, m.ID, author, " "); err == nil {
		t.Error("expected error for blank body")
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := discussionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid, author := primitive.NewObjectID(), primitive.NewObjectID()
	m := fixtures.CreateMessage(ctx, pid, author, "one")
	fixtures.CreateMessage(ctx, pid, author, "two")

	if err := store.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, m.ID); !errors.Is(err, discussionstore.ErrNotFound) {
		t.Errorf("Delete twice: expected ErrNotFound, got %v", err)
	}

	n, err := store.DeleteByProject(ctx, pid)
	if err != nil {
		t.Fatalf("DeleteByProject failed: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteByProject removed %d, want 1", n)
	}
}
