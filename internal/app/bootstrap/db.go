// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/workhub/internal/app/system/indexes"
	"github.com/dalemusser/workhub/internal/app/system/validators"
	"go.uber.org/zap"
)

// EnsureSchema creates collection validators and indexes. Both steps are
// idempotent and safe to run on every start.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.WorkHubMongoDatabase

	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}

	logger.Info("schema ensured", zap.String("database", db.Name()))
	return nil
}
