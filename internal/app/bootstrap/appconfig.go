// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (TASKHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging level and request limits; everything specific
// to TaskHub lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool
	MongoMinPoolSize uint64 // Minimum connections to keep warm

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: taskhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // How long a sign-in lasts

	// Registration
	AdminInviteToken string // Sign-ups presenting this token become admins; blank disables
	AdminEmail       string // Existing account promoted to an active admin at startup; blank skips

	// CORS
	CORSAllowedOrigins []string // Origins allowed for browser clients and websocket upgrades

	// Retention sweeps
	PurgeAt string // UTC time of day (HH:MM) the purge jobs run

	// Rate limiting
	LoginRateLimit      int           // Login attempts per client IP per window
	LoginEmailRateLimit int           // Login attempts per email per window
	LoginRateWindow     time.Duration // Login limiter window
	APIRateLimitAnon    int           // Requests per window for anonymous callers
	APIRateLimitAuthed  int           // Requests per window for signed-in users
	APIRateWindow       time.Duration // API limiter window

	// Database operation deadlines; zero keeps the default
	Timeouts timeouts.Config

	// Audit logging
	AuditLogAuth  string // Auth event logging: "all", "db", "log", or "off"
	AuditLogAdmin string // Admin event logging: "all", "db", "log", or "off"
}
