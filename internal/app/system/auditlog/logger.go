// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/workhub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/workhub/internal/app/store/audit"
	"github.com/dalemusser/workhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"
	DestLog = "log"
	DestOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls sign-in, sign-out and code events.
	Auth string
	// Project controls membership and restriction changes.
	Project string
}

// Logger records audit events to MongoDB (via audit.Store) and to zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.ProjectID != nil {
		fields = append(fields, zap.String("project_id", event.ProjectID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's destination.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryProject:
		setting = l.config.Project
	default:
		setting = DestAll
	}
	if setting == "" {
		setting = DestAll
	}
	if setting == DestOff {
		return
	}

	if setting == DestAll || setting == DestLog {
		l.logToZap(event)
	}
	if setting == DestAll || setting == DestDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func request(r *http.Request, e audit.Event) audit.Event {
	e.IP = ratelimit.ClientIP(r)
	e.UserAgent = r.UserAgent()
	return e
}

func hexPtr(s string) *primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil
	}
	return &oid
}

func flagDetails(f accesspolicy.AccessFlags) map[string]string {
	return map[string]string{
		"can_view":  strconv.FormatBool(f.CanView),
		"can_reply": strconv.FormatBool(f.CanReply),
		"can_edit":  strconv.FormatBool(f.CanEdit),
	}
}

// --- Authentication Events ---

// LoginSuccess logs a verified sign-in code.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	}))
}

// LoginCodeSent logs that a sign-in code was issued and handed to the mailer.
func (l *Logger) LoginCodeSent(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginCodeSent,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	}))
}

// LoginFailedUserNotFound logs a sign-in attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, request(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_email": email},
	}))
}

// LoginFailedUserDisabled logs a sign-in attempt by a disabled account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, request(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserDisabled,
		UserID:        &userID,
		FailureReason: "user disabled",
		Details:       map[string]string{"email": email},
	}))
}

// LoginFailedInvalidCode logs a wrong, expired or exhausted sign-in code.
func (l *Logger) LoginFailedInvalidCode(ctx context.Context, r *http.Request, userID primitive.ObjectID, email, reason string) {
	l.Log(ctx, request(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedInvalidCode,
		UserID:        &userID,
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	}))
}

// LoginFailedRateLimit logs a sign-in request refused by the limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, limitType string) {
	l.Log(ctx, request(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		FailureReason: "rate limit exceeded",
		Details:       map[string]string{"email": email, "limit_type": limitType},
	}))
}

// Logout logs a sign-out. userIDStr comes from the SessionUser and may be empty.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    hexPtr(userIDStr),
		Success:   true,
	}))
}

// --- Project Events ---

// ProjectCreated logs a new project.
func (l *Logger) ProjectCreated(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID, name string) {
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryProject,
		EventType: audit.EventProjectCreated,
		ProjectID: &projectID,
		ActorID:   &actorID,
		Success:   true,
		Details:   map[string]string{"project_name": name},
	}))
}

// ProjectDeleted logs a project deletion.
func (l *Logger) ProjectDeleted(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID, name string) {
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryProject,
		EventType: audit.EventProjectDeleted,
		ProjectID: &projectID,
		ActorID:   &actorID,
		Success:   true,
		Details:   map[string]string{"project_name": name},
	}))
}

// MemberAdded logs a user joining a project.
func (l *Logger) MemberAdded(ctx context.Context, r *http.Request, actorID, projectID, userID primitive.ObjectID) {
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryProject,
		EventType: audit.EventMemberAdded,
		ProjectID: &projectID,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
	}))
}

// MemberRemoved logs a user leaving or being removed from a project.
func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actorID, projectID, userID primitive.ObjectID) {
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryProject,
		EventType: audit.EventMemberRemoved,
		ProjectID: &projectID,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
	}))
}

// RestrictionSet logs a created or overwritten module restriction.
func (l *Logger) RestrictionSet(ctx context.Context, r *http.Request, actorID, projectID, userID primitive.ObjectID, module string, flags accesspolicy.AccessFlags) {
	d := flagDetails(flags)
	d["module"] = module
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryProject,
		EventType: audit.EventRestrictionSet,
		ProjectID: &projectID,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
		Details:   d,
	}))
}

// RestrictionUpdated logs an edit to an existing restriction.
func (l *Logger) RestrictionUpdated(ctx context.Context, r *http.Request, actorID, projectID, userID primitive.ObjectID, module string, flags accesspolicy.AccessFlags) {
	d := flagDetails(flags)
	d["module"] = module
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryProject,
		EventType: audit.EventRestrictionUpdated,
		ProjectID: &projectID,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
		Details:   d,
	}))
}

// RestrictionRemoved logs a removed restriction.
func (l *Logger) RestrictionRemoved(ctx context.Context, r *http.Request, actorID, projectID, userID primitive.ObjectID, module string) {
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryProject,
		EventType: audit.EventRestrictionRemoved,
		ProjectID: &projectID,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
		Details:   map[string]string{"module": module},
	}))
}

// RestrictionBulkSet logs one bulk write as a single event.
func (l *Logger) RestrictionBulkSet(ctx context.Context, r *http.Request, actorID, projectID primitive.ObjectID, batchID string, users int, modules []string, flags accesspolicy.AccessFlags) {
	d := flagDetails(flags)
	d["batch_id"] = batchID
	d["user_count"] = strconv.Itoa(users)
	d["modules"] = strings.Join(modules, ",")
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryProject,
		EventType: audit.EventRestrictionBulkSet,
		ProjectID: &projectID,
		ActorID:   &actorID,
		Success:   true,
		Details:   d,
	}))
}
