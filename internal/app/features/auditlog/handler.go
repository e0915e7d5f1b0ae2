// internal/app/features/auditlog/handler.go
package auditlog

import (
	auditstore "github.com/dalemusser/workhub/internal/app/store/audit"
	userstore "github.com/dalemusser/workhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the system-wide audit trail to admins.
type Handler struct {
	Events *auditstore.Store
	Users  *userstore.Store
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Events: auditstore.New(db),
		Users:  userstore.New(db),
		Log:    logger,
	}
}
