// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	notificationstore "github.com/dalemusser/taskhub/internal/app/store/notifications"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/accounts"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/inbox"
	"github.com/dalemusser/taskhub/internal/app/system/jobs"
	"github.com/dalemusser/taskhub/internal/app/system/realtime"
	"github.com/dalemusser/taskhub/internal/app/system/taskflow"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/app/system/workers"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runtime is the set of long-lived services built once at startup.
type Runtime struct {
	Users         *userstore.Store
	Tasks         *taskstore.Store
	Notifications *notificationstore.Store
	AuditEvents   *audit.Store

	AuditLog *auditlog.Logger
	Accounts *accounts.Manager
	Inbox    *inbox.Manager
	Taskflow *taskflow.Manager

	Hub    *realtime.Hub
	Daily  *workers.Daily
	cancel context.CancelFunc
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the domain services, promotes the configured admin, and starts the
// realtime hub and the daily purge worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	at, err := workers.ParseTimeOfDay(appCfg.PurgeAt)
	if err != nil {
		return err
	}

	rt := deps.Runtime
	if rt == nil {
		return errors.New("startup: runtime not initialized")
	}
	db := deps.MongoDatabase

	rt.Users = userstore.New(db)
	rt.Tasks = taskstore.New(db)
	rt.Notifications = notificationstore.New(db)
	rt.AuditEvents = audit.New(db)

	rt.AuditLog = auditlog.New(rt.AuditEvents, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	rt.Hub = realtime.NewHub(logger)
	rt.Accounts = accounts.New(rt.Users, logger, rt.AuditLog)
	rt.Inbox = inbox.New(rt.Notifications, rt.Hub, logger)
	rt.Taskflow = taskflow.New(rt.Tasks, rt.Inbox, logger)

	if err := ensureAdmin(ctx, rt.Users, appCfg.AdminEmail, logger); err != nil {
		return err
	}

	hubCtx, cancel := context.WithCancel(context.Background())
	rt.cancel = cancel
	go rt.Hub.Run(hubCtx)

	rt.Daily = workers.NewDaily(at, logger,
		jobs.AccountPurgeJob(rt.Accounts, rt.AuditLog, logger),
		jobs.NotificationPurgeJob(rt.Inbox, rt.AuditLog, logger),
	)
	rt.Daily.Start()

	return nil
}

// ensureAdmin promotes the account with the given email to an active admin.
// A pending deletion is cleared first. A blank email or an unknown account
// is skipped with a log line.
func ensureAdmin(ctx context.Context, users *userstore.Store, email string, logger *zap.Logger) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		logger.Warn("admin_email has no account; sign up first", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	if u.PendingDeletion() {
		if err := users.ClearDeleted(ctx, u.ID); err != nil {
			return err
		}
	}
	if u.Role == models.RoleAdmin && u.IsActive && !u.PendingDeletion() {
		return nil
	}
	if err := users.UpdateStatus(ctx, u.ID, models.RoleAdmin, true); err != nil {
		return err
	}
	logger.Info("promoted configured admin", zap.String("user_id", u.ID.Hex()))
	return nil
}
