// internal/app/system/jobs/jobs.go
package jobs

import (
	"context"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/accounts"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/inbox"
	"go.uber.org/zap"
)

// Job is a unit of scheduled work. Run receives the instant the run was
// triggered so retention boundaries are computed from one clock reading.
type Job struct {
	Name string
	Run  func(ctx context.Context, now time.Time) error
}

// AccountPurger is satisfied by *accounts.Manager.
type AccountPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (accounts.PurgeResult, error)
}

// NotificationPurger is satisfied by *inbox.Manager.
type NotificationPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// AccountPurgeJob permanently removes accounts whose restore window has passed.
func AccountPurgeJob(p AccountPurger, al *auditlog.Logger, logger *zap.Logger) Job {
	return Job{
		Name: "account-purge",
		Run: func(ctx context.Context, now time.Time) error {
			res, err := p.PurgeExpired(ctx, now)
			if err != nil {
				return err
			}
			logger.Info("purged expired accounts",
				zap.Int("removed", res.Removed),
				zap.Int("skipped", res.Skipped),
				zap.Time("cutoff", accounts.PurgeCutoff(now)))
			al.Purged(ctx, audit.EventUsersPurged, res.Removed, res.Skipped)
			return nil
		},
	}
}

// NotificationPurgeJob removes read notifications past the retention window.
func NotificationPurgeJob(p NotificationPurger, al *auditlog.Logger, logger *zap.Logger) Job {
	return Job{
		Name: "notification-purge",
		Run: func(ctx context.Context, now time.Time) error {
			count, err := p.PurgeExpired(ctx, now)
			if err != nil {
				return err
			}
			logger.Info("purged old read notifications",
				zap.Int64("removed", count),
				zap.Time("cutoff", inbox.PurgeCutoff(now)))
			al.Purged(ctx, audit.EventNotificationsPurged, int(count), 0)
			return nil
		},
	}
}
