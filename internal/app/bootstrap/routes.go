// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	auditlogfeature "github.com/dalemusser/taskhub/internal/app/features/auditlog"
	dashboardfeature "github.com/dalemusser/taskhub/internal/app/features/dashboard"
	healthfeature "github.com/dalemusser/taskhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/taskhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/taskhub/internal/app/features/logout"
	notificationsfeature "github.com/dalemusser/taskhub/internal/app/features/notifications"
	profilefeature "github.com/dalemusser/taskhub/internal/app/features/profile"
	realtimefeature "github.com/dalemusser/taskhub/internal/app/features/realtime"
	registerfeature "github.com/dalemusser/taskhub/internal/app/features/register"
	systemusersfeature "github.com/dalemusser/taskhub/internal/app/features/systemusers"
	tasksfeature "github.com/dalemusser/taskhub/internal/app/features/tasks"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// APIPrefix is where every JSON endpoint is mounted.
const APIPrefix = "/api/v1"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The router applies request plumbing, CORS, the
// session user and the API rate limit, then mounts the feature routers
// under APIPrefix. /health stays outside the prefix for load balancers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := deps.Runtime
	if rt == nil || rt.Users == nil {
		return nil, errors.New("build handler: startup did not run")
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on each request so role changes, deactivation and
	// soft deletes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(cors.Handler(corsOptions(appCfg.CORSAllowedOrigins)))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpjson.Error(w, logger, apperr.NotFound("route not found"))
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	apiLimiter := ratelimit.NewAPILimiter(appCfg.APIRateLimitAnon, appCfg.APIRateLimitAuthed, appCfg.APIRateWindow)
	loginLimiter := ratelimit.NewLoginLimiterWithConfig(
		appCfg.LoginRateLimit, appCfg.LoginRateWindow,
		appCfg.LoginEmailRateLimit, appCfg.LoginRateWindow,
	)

	r.Route(APIPrefix, func(api chi.Router) {
		// Loads SessionUser into context if signed in; the limiter keys on it.
		api.Use(sessionMgr.LoadSessionUser)
		api.Use(apiLimiter.Middleware)

		// Authentication
		registerHandler := registerfeature.NewHandler(rt.Users, sessionMgr, rt.AuditLog, appCfg.AdminInviteToken, logger)
		api.Mount("/auth/register", registerfeature.Routes(registerHandler))

		loginHandler := loginfeature.NewHandler(rt.Users, sessionMgr, loginLimiter, rt.AuditLog, logger)
		api.Mount("/auth/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, rt.AuditLog, logger)
		api.Mount("/auth/logout", logoutfeature.Routes(logoutHandler))

		// Self-service profile
		profileHandler := profilefeature.NewHandler(rt.Users, logger)
		api.Mount("/me", profilefeature.Routes(profileHandler, sessionMgr))

		// Account administration and lifecycle
		usersHandler := systemusersfeature.NewHandler(rt.Users, rt.Tasks, rt.Accounts, logger)
		api.Mount("/users", systemusersfeature.Routes(usersHandler, sessionMgr))

		// Audit trail
		auditHandler := auditlogfeature.NewHandler(rt.AuditEvents, rt.Users, logger)
		api.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

		// Notification inbox
		notificationsHandler := notificationsfeature.NewHandler(rt.Inbox, logger)
		api.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

		// Tasks
		tasksHandler := tasksfeature.NewHandler(rt.Taskflow, logger)
		api.Mount("/tasks", tasksfeature.Routes(tasksHandler, sessionMgr))

		// Dashboards
		dashboardHandler := dashboardfeature.NewHandler(rt.Tasks, deps.MongoDatabase, logger)
		api.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

		// Live notification push
		wsHandler := realtimefeature.NewHandler(rt.Hub, appCfg.CORSAllowedOrigins, logger)
		api.Mount("/ws", realtimefeature.Routes(wsHandler, sessionMgr))
	})

	return r, nil
}

// corsOptions allows credentialed requests from the configured origins.
// "*" (or no list) reflects any origin.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
		return opts
	}
	opts.AllowedOrigins = origins
	return opts
}
