// internal/app/features/issues/handler.go
package issues

import (
	issuestore "github.com/dalemusser/workhub/internal/app/store/issues"
	projectstore "github.com/dalemusser/workhub/internal/app/store/projects"
	"github.com/dalemusser/workhub/internal/app/system/accesscache"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves a project's issues and tasks.
type Handler struct {
	Projects *projectstore.Store
	Issues   *issuestore.Store
	Cache    *accesscache.Cache
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, cache *accesscache.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		Projects: projectstore.New(db),
		Issues:   issuestore.New(db),
		Cache:    cache,
		Log:      logger,
	}
}
