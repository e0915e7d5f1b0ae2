// internal/app/features/discussion/handler.go
package discussion

import (
	discussionstore "github.com/dalemusser/workhub/internal/app/store/discussions"
	projectstore "github.com/dalemusser/workhub/internal/app/store/projects"
	"github.com/dalemusser/workhub/internal/app/system/accesscache"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves a project's discussion thread.
type Handler struct {
	Projects    *projectstore.Store
	Discussions *discussionstore.Store
	Cache       *accesscache.Cache
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, cache *accesscache.Cache, logger *zap.Logger) *Handler {
	return &Handler{
		Projects:    projectstore.New(db),
		Discussions: discussionstore.New(db),
		Cache:       cache,
		Log:         logger,
	}
}
