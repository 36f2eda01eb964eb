// Package accounts owns the account lifecycle: soft delete, restore within
// the retention window, admin status changes, and the purge sweep.
//
// States:
//   - Active: DeletedAt == nil
//   - PendingDeletion: DeletedAt != nil, IsActive == false
//   - Purged: record removed by PurgeExpired
//
// Concurrent SoftDelete and Restore on one account are not serialized; the
// storage engine's per-document write order decides the outcome.
package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskhub/internal/app/policy/accountpolicy"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RetentionWindow is how long a soft-deleted account can still be restored.
const RetentionWindow = 30 * 24 * time.Hour

// Repository is the persistence the lifecycle needs. Lookups of a missing
// id return mongo.ErrNoDocuments.
type Repository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	SetDeleted(ctx context.Context, id primitive.ObjectID, at time.Time) error
	ClearDeleted(ctx context.Context, id primitive.ObjectID) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, role string, isActive bool) error
	FindDeletedBefore(ctx context.Context, cutoff time.Time) ([]primitive.ObjectID, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// Manager applies lifecycle transitions to accounts.
type Manager struct {
	repo  Repository
	log   *zap.Logger
	audit *auditlog.Logger
	now   func() time.Time
}

// New creates a Manager. audit may be nil.
func New(repo Repository, logger *zap.Logger, audit *auditlog.Logger) *Manager {
	return &Manager{
		repo:  repo,
		log:   logger,
		audit: audit,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns a copy of m that reads the current time from now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	c := *m
	c.now = now
	return &c
}

// Restorable reports whether an account deleted at deletedAt may still be
// restored at now. The boundary instant is inclusive.
func Restorable(deletedAt, now time.Time) bool {
	return now.Sub(deletedAt) <= RetentionWindow
}

// PurgeCutoff returns the deleted_at value at or before which accounts are
// purged when the sweep runs at now.
func PurgeCutoff(now time.Time) time.Time {
	return now.Add(-RetentionWindow)
}

func (m *Manager) load(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	u, err := m.repo.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apperr.NotFound("user not found")
	}
	return u, err
}

// SoftDelete marks the account pending deletion.
//
// Errors:
//   - NotFound: no account with id
//   - Authorization: actor is not an admin, or id is the actor's own account
//   - Conflict: account is already pending deletion
func (m *Manager) SoftDelete(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.User, error) {
	u, err := m.load(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if actor.ID == u.ID {
		return models.User{}, apperr.Authorization("you cannot delete your own account")
	}
	if !accountpolicy.CanSoftDelete(actor, u) {
		return models.User{}, apperr.Authorization("only admins can delete accounts")
	}
	if u.PendingDeletion() {
		return models.User{}, apperr.Conflict("account is already pending deletion")
	}

	at := m.now()
	if err := m.repo.SetDeleted(ctx, id, at); err != nil {
		return models.User{}, err
	}
	u.IsActive = false
	u.DeletedAt = &at

	m.audit.UserSoftDeleted(ctx, actor.ID, id)
	return u, nil
}

// Restore returns a pending-deletion account to active.
//
// Errors:
//   - NotFound: no account with id
//   - Authorization: actor is not an admin
//   - State: account is not pending deletion
//   - Expired: the retention window has passed; the account stays pending
func (m *Manager) Restore(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (models.User, error) {
	u, err := m.load(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !accountpolicy.CanRestore(actor, u) {
		return models.User{}, apperr.Authorization("only admins can restore accounts")
	}
	if !u.PendingDeletion() {
		return models.User{}, apperr.State("account is not pending deletion")
	}
	if !Restorable(*u.DeletedAt, m.now()) {
		m.audit.UserRestoreFailed(ctx, actor.ID, id, "retention window passed")
		return models.User{}, apperr.Expired("restore window of 30 days has passed")
	}

	if err := m.repo.ClearDeleted(ctx, id); err != nil {
		return models.User{}, err
	}
	u.IsActive = true
	u.DeletedAt = nil

	m.audit.UserRestored(ctx, actor.ID, id)
	return u, nil
}

// UpdateStatus sets an account's role and active flag.
//
// Errors:
//   - Validation: role is not a known role
//   - NotFound: no account with id
//   - Authorization: actor is not an admin, or is demoting/deactivating themselves
//   - Conflict: account is pending deletion and must be restored first
func (m *Manager) UpdateStatus(ctx context.Context, actor authz.Actor, id primitive.ObjectID, role string, isActive bool) (models.User, error) {
	if !models.IsValidRole(role) {
		return models.User{}, apperr.Validationf("invalid role %q", role)
	}
	u, err := m.load(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !accountpolicy.CanUpdateStatus(actor, u, role, isActive) {
		if actor.IsAdmin() {
			return models.User{}, apperr.Authorization("you cannot change your own role or deactivate yourself")
		}
		return models.User{}, apperr.Authorization("only admins can change account status")
	}
	if u.PendingDeletion() {
		return models.User{}, apperr.Conflict("account is pending deletion; restore it first")
	}

	if err := m.repo.UpdateStatus(ctx, id, role, isActive); err != nil {
		return models.User{}, err
	}
	u.Role = role
	u.IsActive = isActive

	m.audit.UserStatusChanged(ctx, actor.ID, id, role, isActive)
	return u, nil
}

// PurgeResult is the outcome of one sweep.
type PurgeResult struct {
	Removed int
	Skipped int
}

// PurgeExpired permanently removes every account deleted at or before
// now-RetentionWindow. A failure on one record is logged and skipped; only a
// failure to select candidates is returned.
func (m *Manager) PurgeExpired(ctx context.Context, now time.Time) (PurgeResult, error) {
	ids, err := m.repo.FindDeletedBefore(ctx, PurgeCutoff(now))
	if err != nil {
		return PurgeResult{}, err
	}

	var res PurgeResult
	for _, id := range ids {
		if err := m.repo.DeleteByID(ctx, id); err != nil {
			res.Skipped++
			m.log.Warn("purge: failed to remove account",
				zap.String("user_id", id.Hex()),
				zap.Error(err))
			continue
		}
		res.Removed++
	}
	return res, nil
}
