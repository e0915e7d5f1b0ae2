// internal/app/store/logincodes/store.go
package logincodes

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dalemusser/workhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the number of digits in a sign-in code.
	CodeLength = 6
	// DefaultExpiry is how long a code is valid.
	DefaultExpiry = 10 * time.Minute
	// BcryptCost for hashing codes.
	BcryptCost = 10
	// MaxVerifyAttempts is the number of guesses allowed per code.
	MaxVerifyAttempts = 5
	// MaxResends is the number of extra codes a user may request per ResendWindow.
	MaxResends = 3
	// ResendWindow is the period over which resends are counted.
	ResendWindow = 10 * time.Minute
)

var (
	// ErrNotFound is returned when no unexpired code exists for the user.
	ErrNotFound = errors.New("sign-in code not found or expired")
	// ErrInvalidCode is returned when the code doesn't match.
	ErrInvalidCode = errors.New("invalid sign-in code")
	// ErrTooManyAttempts is returned once MaxVerifyAttempts guesses have been made.
	ErrTooManyAttempts = errors.New("too many sign-in attempts")
	// ErrTooManyResends is returned when a user asks for codes too often.
	ErrTooManyResends = errors.New("too many code requests")
)

// Store manages pending sign-in codes. Each user has at most one; issuing a
// new code replaces the old one.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
	now    func() time.Time
}

// New creates a Store. If expiry is 0 or negative, DefaultExpiry is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("login_codes"),
		expiry: expiry,
		now:    time.Now,
	}
}

// Expiry returns how long issued codes stay valid.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// IssueResult carries the plain code to deliver to the user.
type IssueResult struct {
	Code        string
	ExpiresAt   time.Time
	ResendCount int
}

// Issue creates a fresh code for userID. A request made while an earlier code
// is still inside ResendWindow counts as a resend.
func (s *Store) Issue(ctx context.Context, userID primitive.ObjectID, email string) (*IssueResult, error) {
	now := s.now().UTC()

	var existing models.LoginCode
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&existing)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	found := err == nil

	resendCount := 0
	windowStart := now
	if found && now.Before(existing.WindowStart.Add(ResendWindow)) {
		if existing.ResendCount >= MaxResends {
			return nil, ErrTooManyResends
		}
		windowStart = existing.WindowStart
		resendCount = existing.ResendCount + 1
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}

	lc := models.LoginCode{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Email:       email,
		CodeHash:    string(hash),
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
		ResendCount: resendCount,
		WindowStart: windowStart,
	}
	if found {
		lc.ID = existing.ID
	}

	_, err = s.c.ReplaceOne(ctx, bson.M{"user_id": userID}, lc, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}

	return &IssueResult{Code: code, ExpiresAt: lc.ExpiresAt, ResendCount: resendCount}, nil
}

// Verify checks code for userID. On success the code is consumed.
// Every call, right or wrong, uses up one attempt.
func (s *Store) Verify(ctx context.Context, userID primitive.ObjectID, code string) (*models.LoginCode, error) {
	var lc models.LoginCode
	err := s.c.FindOne(ctx, bson.M{
		"user_id":    userID,
		"expires_at": bson.M{"$gt": s.now().UTC()},
	}).Decode(&lc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if lc.Attempts >= MaxVerifyAttempts {
		return nil, ErrTooManyAttempts
	}
	if _, err := s.c.UpdateByID(ctx, lc.ID, bson.M{"$inc": bson.M{"attempts": 1}}); err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(lc.CodeHash), []byte(code)); err != nil {
		return nil, ErrInvalidCode
	}

	_, _ = s.c.DeleteOne(ctx, bson.M{"_id": lc.ID})
	return &lc, nil
}

// DeleteByUser removes any pending code for userID.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

// generateCode returns a uniformly random CodeLength-digit string.
func generateCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
