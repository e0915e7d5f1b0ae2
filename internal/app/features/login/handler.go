// internal/app/features/login/handler.go
package login

import (
	"time"

	"github.com/dalemusser/workhub/internal/app/store/logincodes"
	userstore "github.com/dalemusser/workhub/internal/app/store/users"
	"github.com/dalemusser/workhub/internal/app/system/auditlog"
	"github.com/dalemusser/workhub/internal/app/system/auth"
	"github.com/dalemusser/workhub/internal/app/system/mailer"
	"github.com/dalemusser/workhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the one-time-code sign-in flow.
type Handler struct {
	Users      *userstore.Store
	Codes      *logincodes.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Mail       mailer.Sender
	Audit      *auditlog.Logger
	SiteName   string
	Log        *zap.Logger
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	limiter *ratelimit.LoginLimiter,
	mail mailer.Sender,
	codeExpiry time.Duration,
	siteName string,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Codes:      logincodes.New(db, codeExpiry),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		Mail:       mail,
		Audit:      audit,
		SiteName:   siteName,
		Log:        logger,
	}
}
