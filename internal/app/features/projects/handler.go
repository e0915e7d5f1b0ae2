// internal/app/features/projects/handler.go
package projects

import (
	discussionstore "github.com/dalemusser/workhub/internal/app/store/discussions"
	issuestore "github.com/dalemusser/workhub/internal/app/store/issues"
	projectaccessstore "github.com/dalemusser/workhub/internal/app/store/projectaccess"
	projectstore "github.com/dalemusser/workhub/internal/app/store/projects"
	userstore "github.com/dalemusser/workhub/internal/app/store/users"
	"github.com/dalemusser/workhub/internal/app/system/accesscache"
	"github.com/dalemusser/workhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves project CRUD, membership and summary endpoints.
type Handler struct {
	DB          *mongo.Database
	Projects    *projectstore.Store
	Users       *userstore.Store
	Access      *projectaccessstore.Store
	Issues      *issuestore.Store
	Discussions *discussionstore.Store
	Cache       *accesscache.Cache
	Audit       *auditlog.Logger
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, cache *accesscache.Cache, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Projects:    projectstore.New(db),
		Users:       userstore.New(db),
		Access:      projectaccessstore.New(db),
		Issues:      issuestore.New(db),
		Discussions: discussionstore.New(db),
		Cache:       cache,
		Audit:       audit,
		Log:         logger,
	}
}
