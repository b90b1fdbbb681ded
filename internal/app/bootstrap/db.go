// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/rollcall/internal/app/store/editlog"
	"github.com/dalemusser/rollcall/internal/app/store/meetings"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// EnsureSchema creates the indexes the stores rely on. The partial
// unique index on open sessions is load-bearing: it is what makes
// "only one session open at a time" hold under concurrent starts.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.RollCallMongoDatabase

	if err := meetings.New(db).EnsureIndexes(ctx); err != nil {
		logger.Error("session index setup failed", zap.Error(err))
		return err
	}
	if err := editlog.New(db).EnsureIndexes(ctx); err != nil {
		logger.Error("edit log index setup failed", zap.Error(err))
		return err
	}
	return nil
}
