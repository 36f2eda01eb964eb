// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config picks a destination per event category. Each value is "all"
// (MongoDB and zap), "db", "log", or "off".
type Config struct {
	Auth  string // login, logout, registration
	Admin string // account administration and purge sweeps
}

// Logger records audit events to the audit store and to zap according to
// Config. A nil *Logger discards everything.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) destination(category string) (toLog, toDB bool) {
	mode := "all"
	switch category {
	case audit.CategoryAuth:
		mode = l.config.Auth
	case audit.CategoryAdmin, audit.CategorySystem:
		mode = l.config.Admin
	}
	return mode == "all" || mode == "log", mode == "all" || mode == "db"
}

// Log records event wherever its category is configured to go. A store
// failure is logged and otherwise ignored.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	toLog, toDB := l.destination(event.Category)
	if toLog {
		l.write(event)
	}
	if toDB && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// logRequest stamps event with the caller's address and agent before logging.
func (l *Logger) logRequest(ctx context.Context, r *http.Request, event audit.Event) {
	event.IP = ratelimit.ClientIP(r)
	event.UserAgent = r.UserAgent()
	l.Log(ctx, event)
}

func (l *Logger) write(event audit.Event) {
	fields := make([]zap.Field, 0, 8+len(event.Details))
	fields = append(fields,
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success))
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	level := zap.InfoLevel
	if !event.Success {
		level = zap.WarnLevel
	}
	l.zapLog.Log(level, "audit event", fields...)
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.logRequest(ctx, r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailed logs a refused login. userID is nil when the email did not
// resolve to an account.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, email string) {
	l.logRequest(ctx, r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		Success:       false,
		FailureReason: eventType,
		Details:       map[string]string{"email": email},
	})
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}
	l.logRequest(ctx, r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		Success:   true,
	})
}

// Registered logs a new account sign-up.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, role string) {
	l.logRequest(ctx, r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventRegistered,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"role": role},
	})
}

// --- Account Administration Events ---

// UserStatusChanged logs an admin changing an account's role or active flag.
func (l *Logger) UserStatusChanged(ctx context.Context, actorID, targetID primitive.ObjectID, role string, isActive bool) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserStatusChanged,
		ActorID:   &actorID,
		UserID:    &targetID,
		Success:   true,
		Details: map[string]string{
			"role":      role,
			"is_active": strconv.FormatBool(isActive),
		},
	})
}

// UserSoftDeleted logs an account entering the pending-deletion state.
func (l *Logger) UserSoftDeleted(ctx context.Context, actorID, targetID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserSoftDeleted,
		ActorID:   &actorID,
		UserID:    &targetID,
		Success:   true,
	})
}

// UserRestored logs a pending-deletion account being restored.
func (l *Logger) UserRestored(ctx context.Context, actorID, targetID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserRestored,
		ActorID:   &actorID,
		UserID:    &targetID,
		Success:   true,
	})
}

// UserRestoreFailed logs a restore refused because the window has passed.
func (l *Logger) UserRestoreFailed(ctx context.Context, actorID, targetID primitive.ObjectID, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventUserRestoreFailed,
		ActorID:       &actorID,
		UserID:        &targetID,
		Success:       false,
		FailureReason: reason,
	})
}

// --- Sweep Events ---

// Purged logs the outcome of a purge sweep.
func (l *Logger) Purged(ctx context.Context, eventType string, removed, skipped int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategorySystem,
		EventType: eventType,
		Success:   skipped == 0,
		Details: map[string]string{
			"removed": strconv.Itoa(removed),
			"skipped": strconv.Itoa(skipped),
		},
	})
}
