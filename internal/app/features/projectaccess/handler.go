// internal/app/features/projectaccess/handler.go
package projectaccess

import (
	auditstore "github.com/dalemusser/workhub/internal/app/store/audit"
	projectaccessstore "github.com/dalemusser/workhub/internal/app/store/projectaccess"
	projectstore "github.com/dalemusser/workhub/internal/app/store/projects"
	"github.com/dalemusser/workhub/internal/app/system/accesscache"
	"github.com/dalemusser/workhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the per-user module restrictions of a project.
type Handler struct {
	Projects *projectstore.Store
	Access   *projectaccessstore.Store
	Events   *auditstore.Store
	Cache    *accesscache.Cache
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, cache *accesscache.Cache, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Projects: projectstore.New(db),
		Access:   projectaccessstore.New(db),
		Events:   auditstore.New(db),
		Cache:    cache,
		Audit:    audit,
		Log:      logger,
	}
}
