package discussion_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/workhub/internal/app/features/discussion"
	projectaccessstore "github.com/dalemusser/workhub/internal/app/store/projectaccess"
	"github.com/dalemusser/workhub/internal/app/system/accesscache"
	"github.com/dalemusser/workhub/internal/app/system/limits"
	"github.com/dalemusser/workhub/internal/domain/models"
	"github.com/dalemusser/workhub/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

type env struct {
	handler  *discussion.Handler
	fixtures *testutil.Fixtures
	owner    testutil.TestUser
	member   testutil.TestUser
	project  models.Project
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cache := accesscache.New(64, time.Minute, projectaccessstore.New(db).ListForUser)
	fixtures := testutil.NewFixtures(t, db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner, member := testutil.PlainUser(), testutil.PlainUser()
	return env{
		handler:  discussion.NewHandler(db, cache, zap.NewNop()),
		fixtures: fixtures,
		owner:    owner,
		member:   member,
		project:  fixtures.CreateProject(ctx, "Alpha", owner.ObjectID(), member.ObjectID()),
	}
}

func (e env) request(method, target, body string, user testutil.TestUser, messageID string) *http.Request {
	req := testutil.WithUser(testutil.NewJSONRequest(method, target, body), user)
	req = testutil.WithChiURLParam(req, "projectID", e.project.ID.Hex())
	if messageID != "" {
		req = testutil.WithChiURLParam(req, "messageID", messageID)
	}
	return req
}

type threadBody struct {
	Messages []models.DiscussionMessage `json:"messages"`
	HasMore  bool                       `json:"hasMore"`
	Before   string                     `json:"before"`
}

func bodies(msgs []models.DiscussionMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Body)
	}
	return out
}

func TestHandlePost_Sanitizes(t *testing.T) {
	e := newEnv(t)

	rec := testutil.NewRecorder()
	e.handler.HandlePost(rec, e.request(http.MethodPost, "/", `{"message":"<p>hi <script>alert(1)</script><strong>all</strong></p>"}`, e.member, ""))
	rec.AssertStatus(t, http.StatusCreated)

	var got models.DiscussionMessage
	rec.DecodeJSON(t, &got)
	if strings.Contains(got.Body, "script") {
		t.Errorf("script not stripped: %q", got.Body)
	}
	if !strings.Contains(got.Body, "<strong>all</strong>") {
		t.Errorf("formatting lost: %q", got.Body)
	}
	if got.AuthorID != e.member.ObjectID() || got.AuthorName != e.member.Name {
		t.Errorf("author not set: %+v", got)
	}
}

func TestHandlePost_EmptyAfterSanitize(t *testing.T) {
	e := newEnv(t)

	rec := testutil.NewRecorder()
	e.handler.HandlePost(rec, e.request(http.MethodPost, "/", `{"body":"<script>x</script>"}`, e.member, ""))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandlePost_TooLarge(t *testing.T) {
	e := newEnv(t)

	body := `{"body":"` + strings.Repeat("a", limits.MaxMessageBody) + `"}`
	rec := testutil.NewRecorder()
	e.handler.HandlePost(rec, e.request(http.MethodPost, "/", body, e.member, ""))
	rec.AssertStatus(t, http.StatusRequestEntityTooLarge)
}

func TestHandlePost_ReplyRestriction(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.CreateRestriction(ctx, e.project.ID, e.member.ObjectID(), models.ModuleDiscussion, false, true, false)

	rec := testutil.NewRecorder()
	e.handler.HandlePost(rec, e.request(http.MethodPost, "/", `{"body":"hello"}`, e.member, ""))
	rec.AssertStatus(t, http.StatusForbidden)

	// Reading is still allowed.
	rec = testutil.NewRecorder()
	e.handler.ServeThread(rec, e.request(http.MethodGet, "/", "", e.member, ""))
	rec.AssertStatus(t, http.StatusOK)
}

func TestServeThread_Paging(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 1; i <= 5; i++ {
		e.fixtures.CreateMessage(ctx, e.project.ID, e.owner.ObjectID(), fmt.Sprintf("m%d", i))
	}

	rec := testutil.NewRecorder()
	e.handler.ServeThread(rec, e.request(http.MethodGet, "/?limit=3", "", e.member, ""))
	rec.AssertStatus(t, http.StatusOK)

	var page threadBody
	rec.DecodeJSON(t, &page)
	if diff := cmp.Diff([]string{"m3", "m4", "m5"}, bodies(page.Messages)); diff != "" {
		t.Errorf("first window mismatch (-want +got):\n%s", diff)
	}
	if !page.HasMore || page.Before == "" {
		t.Fatalf("expected more messages, got %+v", page)
	}

	rec = testutil.NewRecorder()
	e.handler.ServeThread(rec, e.request(http.MethodGet, "/?limit=3&before="+page.Before, "", e.member, ""))
	rec.AssertStatus(t, http.StatusOK)

	var older threadBody
	rec.DecodeJSON(t, &older)
	if diff := cmp.Diff([]string{"m1", "m2"}, bodies(older.Messages)); diff != "" {
		t.Errorf("second window mismatch (-want +got):\n%s", diff)
	}
	if older.HasMore {
		t.Error("expected no more messages")
	}
}

func TestServeThread_BadCursor(t *testing.T) {
	e := newEnv(t)

	rec := testutil.NewRecorder()
	e.handler.ServeThread(rec, e.request(http.MethodGet, "/?before=nope", "", e.member, ""))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeThread_ViewRestriction(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.CreateRestriction(ctx, e.project.ID, e.member.ObjectID(), models.ModuleDiscussion, true, false, false)

	rec := testutil.NewRecorder()
	e.handler.ServeThread(rec, e.request(http.MethodGet, "/", "", e.member, ""))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleEdit(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := e.fixtures.CreateMessage(ctx, e.project.ID, e.member.ObjectID(), "first draft")

	tests := []struct {
		name       string
		user       testutil.TestUser
		messageID  string
		wantStatus int
	}{
		{"owner is not the author", e.owner, m.ID.Hex(), http.StatusForbidden},
		{"missing message", e.member, testutil.PlainUser().ID, http.StatusNotFound},
		{"author", e.member, m.ID.Hex(), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			e.handler.HandleEdit(rec, e.request(http.MethodPut, "/", `{"body":"final"}`, tt.user, tt.messageID))
			rec.AssertStatus(t, tt.wantStatus)
			if tt.wantStatus == http.StatusOK {
				var got models.DiscussionMessage
				rec.DecodeJSON(t, &got)
				if got.Body != "final" || !got.Edited {
					t.Errorf("edit not applied: %+v", got)
				}
			}
		})
	}
}

func TestHandleEdit_EditRestriction(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := e.fixtures.CreateMessage(ctx, e.project.ID, e.member.ObjectID(), "draft")
	e.fixtures.CreateRestriction(ctx, e.project.ID, e.member.ObjectID(), models.ModuleDiscussion, false, false, true)

	rec := testutil.NewRecorder()
	e.handler.HandleEdit(rec, e.request(http.MethodPut, "/", `{"body":"final"}`, e.member, m.ID.Hex()))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleDelete(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	other := testutil.PlainUser()
	byOther := e.fixtures.CreateMessage(ctx, e.project.ID, other.ObjectID(), "a")
	byOwner := e.fixtures.CreateMessage(ctx, e.project.ID, e.owner.ObjectID(), "b")

	rec := testutil.NewRecorder()
	e.handler.HandleDelete(rec, e.request(http.MethodDelete, "/", "", e.member, byOwner.ID.Hex()))
	rec.AssertStatus(t, http.StatusForbidden)

	// Project admins can delete anyone's message.
	rec = testutil.NewRecorder()
	e.handler.HandleDelete(rec, e.request(http.MethodDelete, "/", "", e.owner, byOther.ID.Hex()))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	e.handler.HandleDelete(rec, e.request(http.MethodDelete, "/", "", e.owner, byOther.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}
