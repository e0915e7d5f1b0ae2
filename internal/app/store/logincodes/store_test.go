package logincodes_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/workhub/internal/app/store/logincodes"
	"github.com/dalemusser/workhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNew_Expiry(t *testing.T) {
	db := testutil.SetupTestDB(t)

	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, logincodes.DefaultExpiry},
		{-time.Minute, logincodes.DefaultExpiry},
		{30 * time.Minute, 30 * time.Minute},
	}
	for _, tt := range tests {
		if got := logincodes.New(db, tt.in).Expiry(); got != tt.want {
			t.Errorf("New(%v).Expiry() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStore_IssueAndVerify(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logincodes.New(db, logincodes.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	res, err := store.Issue(ctx, uid, "a@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(res.Code) != logincodes.CodeLength {
		t.Errorf("code length: got %d", len(res.Code))
	}
	if !res.ExpiresAt.After(time.Now()) {
		t.Error("expected ExpiresAt in the future")
	}

	// only the hash is stored
	var raw bson.M
	if err := db.Collection("login_codes").FindOne(ctx, bson.M{"user_id": uid}).Decode(&raw); err != nil {
		t.Fatalf("find stored code: %v", err)
	}
	if raw["code_hash"] == res.Code {
		t.Error("code must not be stored in plain text")
	}

	lc, err := store.Verify(ctx, uid, res.Code)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if lc.Email != "a@example.com" {
		t.Errorf("Email: got %q", lc.Email)
	}

	if _, err := store.Verify(ctx, uid, res.Code); !errors.Is(err, logincodes.ErrNotFound) {
		t.Errorf("code must be single use, got %v", err)
	}
}

func TestStore_Verify_WrongCodeAndAttempts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logincodes.New(db, logincodes.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	res, err := store.Issue(ctx, uid, "a@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	wrong := "000000"
	if res.Code == wrong {
		wrong = "111111"
	}

	for i := 0; i < logincodes.MaxVerifyAttempts; i++ {
		if _, err := store.Verify(ctx, uid, wrong); !errors.Is(err, logincodes.ErrInvalidCode) {
			t.Fatalf("attempt %d: expected ErrInvalidCode, got %v", i+1, err)
		}
	}
	if _, err := store.Verify(ctx, uid, res.Code); !errors.Is(err, logincodes.ErrTooManyAttempts) {
		t.Errorf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestStore_Issue_ReplacesAndLimitsResends(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logincodes.New(db, logincodes.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	first, err := store.Issue(ctx, uid, "a@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var last *logincodes.IssueResult
	for i := 1; i <= logincodes.MaxResends; i++ {
		last, err = store.Issue(ctx, uid, "a@example.com")
		if err != nil {
			t.Fatalf("resend %d failed: %v", i, err)
		}
		if last.ResendCount != i {
			t.Errorf("resend %d: ResendCount = %d", i, last.ResendCount)
		}
	}
	if _, err := store.Issue(ctx, uid, "a@example.com"); !errors.Is(err, logincodes.ErrTooManyResends) {
		t.Errorf("expected ErrTooManyResends, got %v", err)
	}

	n, err := db.Collection("login_codes").CountDocuments(ctx, bson.M{"user_id": uid})
	if err != nil || n != 1 {
		t.Errorf("expected exactly one pending code, got %d (%v)", n, err)
	}

	if first.Code != last.Code {
		if _, err := store.Verify(ctx, uid, first.Code); !errors.Is(err, logincodes.ErrInvalidCode) {
			t.Errorf("replaced code must no longer work, got %v", err)
		}
	}
}

func TestStore_Verify_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logincodes.New(db, time.Millisecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	res, err := store.Issue(ctx, uid, "a@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := store.Verify(ctx, uid, res.Code); !errors.Is(err, logincodes.ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired code, got %v", err)
	}
}

func TestStore_DeleteByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logincodes.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	res, _ := store.Issue(ctx, uid, "a@example.com")
	if err := store.DeleteByUser(ctx, uid); err != nil {
		t.Fatalf("DeleteByUser failed: %v", err)
	}
	if _, err := store.Verify(ctx, uid, res.Code); !errors.Is(err, logincodes.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
