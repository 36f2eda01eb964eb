// Package inbox owns the notification lifecycle: creation by fan-out,
// unread -> read, direct deletion, and the purge of old read notifications.
package inbox

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskhub/internal/app/policy/notificationpolicy"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/paging"
	"github.com/dalemusser/taskhub/internal/app/system/realtime"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RetentionWindow is how long a read notification is kept.
const RetentionWindow = 30 * 24 * time.Hour

// Repository is the persistence the lifecycle needs. Lookups of a missing
// id return mongo.ErrNoDocuments.
type Repository interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID, at time.Time) (int64, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	// List returns notifications newest first. A nil userID lists every recipient.
	List(ctx context.Context, userID *primitive.ObjectID, skip, limit int64) ([]models.Notification, error)
	// Count counts notifications; empty status counts all statuses.
	Count(ctx context.Context, userID *primitive.ObjectID, status string) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pusher delivers a payload to a connected recipient, best effort.
type Pusher interface {
	Push(p realtime.Payload)
}

// Manager applies lifecycle transitions to notifications.
type Manager struct {
	repo   Repository
	pusher Pusher
	log    *zap.Logger
	now    func() time.Time
}

// New creates a Manager. pusher may be nil.
func New(repo Repository, pusher Pusher, logger *zap.Logger) *Manager {
	return &Manager{
		repo:   repo,
		pusher: pusher,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns a copy of m that reads the current time from now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	c := *m
	c.now = now
	return &c
}

// PurgeCutoff returns the created_at value at or before which read
// notifications are purged when the sweep runs at now.
func PurgeCutoff(now time.Time) time.Time {
	return now.Add(-RetentionWindow)
}

// Page is one page of notifications plus the recipient's unread count as of
// the query.
type Page struct {
	Notifications []models.Notification `json:"notifications"`
	Page          int                   `json:"currentPage"`
	Limit         int                   `json:"limit"`
	Total         int64                 `json:"totalNotifications"`
	TotalPages    int                   `json:"totalPages"`
	UnreadCount   int64                 `json:"unreadCount"`
}

// Stats summarizes one recipient's notifications.
type Stats struct {
	Total  int64 `json:"total"`
	Unread int64 `json:"unread"`
	Read   int64 `json:"read"`
}

func (m *Manager) load(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Notification, error) {
	n, err := m.repo.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Notification{}, apperr.NotFound("notification not found")
	}
	if err != nil {
		return models.Notification{}, err
	}
	if !notificationpolicy.CanAccess(actor, n) {
		return models.Notification{}, apperr.Authorization("not authorized to access this notification")
	}
	return n, nil
}

// MarkRead moves a notification to read. Marking an already-read
// notification is a successful no-op.
func (m *Manager) MarkRead(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.Notification, error) {
	n, err := m.load(ctx, actor, id)
	if err != nil {
		return models.Notification{}, err
	}
	if n.Status == models.NotificationRead {
		return n, nil
	}
	at := m.now()
	if err := m.repo.MarkRead(ctx, id, at); err != nil {
		return models.Notification{}, err
	}
	n.Status = models.NotificationRead
	n.UpdatedAt = at
	return n, nil
}

// MarkAllRead marks every unread notification of the actor read and returns
// how many changed.
func (m *Manager) MarkAllRead(ctx context.Context, actor authz.Actor) (int64, error) {
	return m.repo.MarkAllRead(ctx, actor.ID, m.now())
}

// Delete removes a notification immediately.
func (m *Manager) Delete(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	if _, err := m.load(ctx, actor, id); err != nil {
		return err
	}
	err := m.repo.DeleteByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("notification not found")
	}
	return err
}

// List returns the actor's notifications newest first with the current
// unread count.
func (m *Manager) List(ctx context.Context, actor authz.Actor, p paging.Params) (Page, error) {
	uid := actor.ID
	return m.list(ctx, &uid, p)
}

// ListAll returns every recipient's notifications. Admin only.
func (m *Manager) ListAll(ctx context.Context, actor authz.Actor, p paging.Params) (Page, error) {
	if !notificationpolicy.CanListAll(actor) {
		return Page{}, apperr.Authorization("only admins can list all notifications")
	}
	return m.list(ctx, nil, p)
}

func (m *Manager) list(ctx context.Context, userID *primitive.ObjectID, p paging.Params) (Page, error) {
	items, err := m.repo.List(ctx, userID, p.Skip(), int64(p.Limit))
	if err != nil {
		return Page{}, err
	}
	total, err := m.repo.Count(ctx, userID, "")
	if err != nil {
		return Page{}, err
	}
	unread, err := m.repo.Count(ctx, userID, models.NotificationUnread)
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []models.Notification{}
	}
	return Page{
		Notifications: items,
		Page:          p.Page,
		Limit:         p.Limit,
		Total:         total,
		TotalPages:    paging.TotalPages(total, p.Limit),
		UnreadCount:   unread,
	}, nil
}

// Stats returns the actor's total, unread, and read counts.
func (m *Manager) Stats(ctx context.Context, actor authz.Actor) (Stats, error) {
	uid := actor.ID
	total, err := m.repo.Count(ctx, &uid, "")
	if err != nil {
		return Stats{}, err
	}
	unread, err := m.repo.Count(ctx, &uid, models.NotificationUnread)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Total: total, Unread: unread, Read: total - unread}, nil
}

// Notify creates one unread notification per recipient and pushes each to
// the realtime channel. A failed write is logged and does not stop the
// remaining recipients; it is never returned to the caller. It returns how
// many notifications were stored.
func (m *Manager) Notify(ctx context.Context, recipients []primitive.ObjectID, title, message string) int {
	seen := make(map[primitive.ObjectID]struct{}, len(recipients))
	stored := 0
	for _, uid := range recipients {
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}

		at := m.now()
		n, err := m.repo.Create(ctx, models.Notification{
			UserID:    uid,
			Title:     title,
			Message:   message,
			Status:    models.NotificationUnread,
			CreatedAt: at,
			UpdatedAt: at,
		})
		if err != nil {
			m.log.Warn("notify: failed to store notification",
				zap.String("user_id", uid.Hex()),
				zap.String("title", title),
				zap.Error(err))
			continue
		}
		stored++
		if m.pusher != nil {
			m.pusher.Push(realtime.Payload{
				Title:       n.Title,
				Message:     n.Message,
				RecipientID: uid.Hex(),
				CreatedAt:   n.CreatedAt,
			})
		}
	}
	return stored
}

// PurgeExpired removes every read notification created at or before
// now-RetentionWindow. Unread notifications are never purged.
func (m *Manager) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return m.repo.DeleteReadBefore(ctx, PurgeCutoff(now))
}
