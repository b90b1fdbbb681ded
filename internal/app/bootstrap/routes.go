// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/rollcall/internal/app/attendance"
	chartfeature "github.com/dalemusser/rollcall/internal/app/features/chart"
	checkinfeature "github.com/dalemusser/rollcall/internal/app/features/checkin"
	dashboardfeature "github.com/dalemusser/rollcall/internal/app/features/dashboard"
	editlogsfeature "github.com/dalemusser/rollcall/internal/app/features/editlogs"
	healthfeature "github.com/dalemusser/rollcall/internal/app/features/health"
	loginfeature "github.com/dalemusser/rollcall/internal/app/features/login"
	logoutfeature "github.com/dalemusser/rollcall/internal/app/features/logout"
	meetingsfeature "github.com/dalemusser/rollcall/internal/app/features/meetings"
	proxiesfeature "github.com/dalemusser/rollcall/internal/app/features/proxies"
	signupfeature "github.com/dalemusser/rollcall/internal/app/features/signup"
	"github.com/dalemusser/rollcall/internal/app/store/editlog"
	"github.com/dalemusser/rollcall/internal/app/system/auditlog"
	"github.com/dalemusser/rollcall/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. RollCall initializes the session
// store, builds the attendance engine over the shared database, and
// mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}
	if appCfg.SessionName != "" {
		auth.SessionName = appCfg.SessionName
	}

	db := deps.RollCallMongoDatabase
	edits := editlog.New(db)
	audit := auditlog.New(edits, logger, appCfg.AuditLogMode)
	engine := attendance.New(db, audit, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads the caller into context if signed in.
	r.Use(auth.LoadCaller)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.RollCallMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Account lifecycle
	signupHandler := signupfeature.NewHandler(engine.Members, memberRoster, logger)
	r.Mount("/signup", signupfeature.Routes(signupHandler))

	loginHandler := loginfeature.NewHandler(engine.Members, appCfg.AdminUsernames, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Everything below requires a signed-in member.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)

		checkinHandler := checkinfeature.NewHandler(engine, logger)
		r.Mount("/checkin", checkinfeature.Routes(checkinHandler))

		dashboardHandler := dashboardfeature.NewHandler(engine.Members, engine.Meetings, logger)
		r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

		meetingsHandler := meetingsfeature.NewHandler(engine, logger)
		r.Mount("/sessions", meetingsfeature.Routes(meetingsHandler))

		proxiesHandler := proxiesfeature.NewHandler(engine, logger)
		r.Mount("/proxies", proxiesfeature.Routes(proxiesHandler))

		chartHandler := chartfeature.NewHandler(engine, logger)
		r.Mount("/chart", chartfeature.Routes(chartHandler))

		editlogsHandler := editlogsfeature.NewHandler(edits, logger)
		r.Mount("/editlogs", editlogsfeature.Routes(editlogsHandler))
	})

	return r, nil
}
