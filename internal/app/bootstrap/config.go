// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	minSessionKeyLen = 32
	devSessionKey    = "dev-only-change-me-please-0123456789ABCDEF"
)

// appConfigKeys defines the configuration keys for TaskHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: TASKHUB_MONGO_URI, TASKHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "taskhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "taskhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session lifetime (e.g., 24h, 168h)"},

	{Name: "admin_invite_token", Default: "", Desc: "Token that makes a sign-up an admin (blank disables admin sign-up)"},
	{Name: "admin_email", Default: "", Desc: "Email of an existing account to promote to admin on startup"},
	{Name: "cors_allowed_origins", Default: "*", Desc: "Comma-separated list of allowed origins"},

	{Name: "purge_at", Default: "00:00", Desc: "UTC time of day (HH:MM) for the daily purge jobs"},

	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts per client IP per window"},
	{Name: "login_email_rate_limit", Default: 5, Desc: "Login attempts per email per window"},
	{Name: "login_rate_window", Default: "5m", Desc: "Login rate limit window"},
	{Name: "api_rate_limit_anon", Default: 60, Desc: "API requests per window for anonymous callers"},
	{Name: "api_rate_limit_authed", Default: 600, Desc: "API requests per window for signed-in users"},
	{Name: "api_rate_window", Default: "1m", Desc: "API rate limit window"},

	// Database operation timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for paged lists and notification fan-out"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for aggregations and schema setup"},
	{Name: "timeout_batch", Default: "60s", Desc: "Deadline for one run of a purge sweep"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig reads .env files, config files,
// TASKHUB_* environment variables and flags, merged with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TASKHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 7*24*time.Hour),

		AdminInviteToken:   appValues.String("admin_invite_token"),
		AdminEmail:         appValues.String("admin_email"),
		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		PurgeAt: appValues.String("purge_at"),

		LoginRateLimit:      appValues.Int("login_rate_limit"),
		LoginEmailRateLimit: appValues.Int("login_email_rate_limit"),
		LoginRateWindow:     appValues.Duration("login_rate_window", 5*time.Minute),
		APIRateLimitAnon:    appValues.Int("api_rate_limit_anon"),
		APIRateLimitAuthed:  appValues.Int("api_rate_limit_authed"),
		APIRateWindow:       appValues.Duration("api_rate_window", time.Minute),

		Timeouts: timeouts.Config{
			Short:  appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
			Long:   appValues.Duration("timeout_long", timeouts.DefaultLong),
			Batch:  appValues.Duration("timeout_batch", timeouts.DefaultBatch),
		},

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
	}

	return coreCfg, appCfg, nil
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	if len(appCfg.SessionKey) < minSessionKeyLen {
		return fmt.Errorf("session_key must be at least %d characters", minSessionKeyLen)
	}
	if appCfg.SessionMaxAge <= 0 {
		return fmt.Errorf("session_max_age must be positive")
	}
	if _, err := workers.ParseTimeOfDay(appCfg.PurgeAt); err != nil {
		return fmt.Errorf("invalid purge_at: %w", err)
	}
	if appCfg.LoginRateLimit <= 0 || appCfg.LoginEmailRateLimit <= 0 || appCfg.LoginRateWindow <= 0 {
		return fmt.Errorf("login rate limits and window must be positive")
	}
	if appCfg.APIRateLimitAnon <= 0 || appCfg.APIRateLimitAuthed <= 0 || appCfg.APIRateWindow <= 0 {
		return fmt.Errorf("api rate limits and window must be positive")
	}
	if t := appCfg.Timeouts; t.Short < 0 || t.Medium < 0 || t.Long < 0 || t.Batch < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	for _, v := range []string{appCfg.AuditLogAuth, appCfg.AuditLogAdmin} {
		switch v {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("invalid audit log mode %q (want all, db, log, or off)", v)
		}
	}

	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
		logger.Warn("session_key is the development default; set TASKHUB_SESSION_KEY")
	}
	return nil
}
