// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/rollcall/internal/app/system/roster"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// memberRoster is loaded once at startup and shared with the signup
// feature. A missing roster file is not fatal; it just means nobody can
// sign up until one is provided.
var memberRoster roster.Roster

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	r, err := roster.LoadFile(appCfg.RosterPath)
	if err != nil {
		logger.Warn("member roster unavailable; signup will refuse everyone",
			zap.String("path", appCfg.RosterPath),
			zap.Error(err))
		memberRoster = roster.Roster{}
		return nil
	}

	memberRoster = r
	logger.Info("member roster loaded",
		zap.String("path", appCfg.RosterPath),
		zap.Int("entries", len(r)))
	return nil
}
