package inbox_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/inbox"
	"github.com/dalemusser/taskhub/internal/app/system/paging"
	"github.com/dalemusser/taskhub/internal/app/system/realtime"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type memRepo struct {
	mu       sync.Mutex
	items    map[primitive.ObjectID]models.Notification
	failFor  map[primitive.ObjectID]bool
	markRead int
}

func newMemRepo(items ...models.Notification) *memRepo {
	r := &memRepo{items: map[primitive.ObjectID]models.Notification{}, failFor: map[primitive.ObjectID]bool{}}
	for _, n := range items {
		r.items[n.ID] = n
	}
	return r
}

func (r *memRepo) Create(_ context.Context, n models.Notification) (models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[n.UserID] {
		return models.Notification{}, errors.New("insert failed")
	}
	n.ID = primitive.NewObjectID()
	r.items[n.ID] = n
	return n, nil
}

func (r *memRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return models.Notification{}, mongo.ErrNoDocuments
	}
	return n, nil
}

func (r *memRepo) MarkRead(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markRead++
	n := r.items[id]
	n.Status = models.NotificationRead
	n.UpdatedAt = at
	r.items[id] = n
	return nil
}

func (r *memRepo) MarkAllRead(_ context.Context, userID primitive.ObjectID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for id, n := range r.items {
		if n.UserID == userID && n.Status == models.NotificationUnread {
			n.Status = models.NotificationRead
			n.UpdatedAt = at
			r.items[id] = n
			changed++
		}
	}
	return changed, nil
}

func (r *memRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.items, id)
	return nil
}

func (r *memRepo) filter(userID *primitive.ObjectID, status string) []models.Notification {
	var out []models.Notification
	for _, n := range r.items {
		if userID != nil && n.UserID != *userID {
			continue
		}
		if status != "" && n.Status != status {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memRepo) List(_ context.Context, userID *primitive.ObjectID, skip, limit int64) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.filter(userID, "")
	if skip >= int64(len(all)) {
		return nil, nil
	}
	end := skip + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[skip:end], nil
}

func (r *memRepo) Count(_ context.Context, userID *primitive.ObjectID, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.filter(userID, status))), nil
}

func (r *memRepo) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, n := range r.items {
		if n.Status == models.NotificationRead && !n.CreatedAt.After(cutoff) {
			delete(r.items, id)
			removed++
		}
	}
	return removed, nil
}

func (r *memRepo) has(id primitive.ObjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[id]
	return ok
}

type recordingPusher struct {
	mu   sync.Mutex
	sent []realtime.Payload
}

func (p *recordingPusher) Push(pl realtime.Payload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, pl)
}

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newManager(repo *memRepo, pusher inbox.Pusher) *inbox.Manager {
	return inbox.New(repo, pusher, zap.NewNop()).WithClock(func() time.Time { return now })
}

func notification(userID primitive.ObjectID, status string, age time.Duration) models.Notification {
	return models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     "t",
		Message:   "m",
		Status:    status,
		CreatedAt: now.Add(-age),
	}
}

func TestMarkRead_Idempotent(t *testing.T) {
	owner := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleMember}
	n := notification(owner.ID, models.NotificationUnread, time.Hour)
	repo := newMemRepo(n)
	m := newManager(repo, nil)

	for i := 0; i < 2; i++ {
		got, err := m.MarkRead(context.Background(), owner, n.ID)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if got.Status != models.NotificationRead {
			t.Errorf("call %d: status got %q, want read", i, got.Status)
		}
	}
	if repo.markRead != 1 {
		t.Errorf("repository writes: got %d, want 1", repo.markRead)
	}
}

func TestMarkRead_Authorization(t *testing.T) {
	owner := primitive.NewObjectID()
	n := notification(owner, models.NotificationUnread, time.Hour)
	repo := newMemRepo(n)
	m := newManager(repo, nil)
	ctx := context.Background()

	stranger := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleMember}
	if _, err := m.MarkRead(ctx, stranger, n.ID); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("stranger: got %v, want authorization", err)
	}

	admin := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	if _, err := m.MarkRead(ctx, admin, n.ID); err != nil {
		t.Errorf("admin: %v", err)
	}

	if _, err := m.MarkRead(ctx, admin, primitive.NewObjectID()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing: got %v, want not found", err)
	}
}

func TestDelete(t *testing.T) {
	owner := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleMember}
	unread := notification(owner.ID, models.NotificationUnread, time.Hour)
	read := notification(owner.ID, models.NotificationRead, time.Hour)
	repo := newMemRepo(unread, read)
	m := newManager(repo, nil)
	ctx := context.Background()

	stranger := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleMember}
	if err := m.Delete(ctx, stranger, unread.ID); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("stranger: got %v, want authorization", err)
	}
	if !repo.has(unread.ID) {
		t.Error("refused delete removed the record")
	}

	for _, id := range []primitive.ObjectID{unread.ID, read.ID} {
		if err := m.Delete(ctx, owner, id); err != nil {
			t.Errorf("Delete(%s): %v", id.Hex(), err)
		}
		if repo.has(id) {
			t.Errorf("%s still present", id.Hex())
		}
	}

	if err := m.Delete(ctx, owner, unread.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: got %v, want not found", err)
	}
}

func TestList_NewestFirstWithUnreadCount(t *testing.T) {
	owner := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleMember}
	var seed []models.Notification
	for i := 0; i < 12; i++ {
		status := models.NotificationRead
		if i%3 == 0 {
			status = models.NotificationUnread
		}
		seed = append(seed, notification(owner.ID, status, time.Duration(i)*time.Hour))
	}
	seed = append(seed, notification(primitive.NewObjectID(), models.NotificationUnread, 0))
	repo := newMemRepo(seed...)
	m := newManager(repo, nil)
	ctx := context.Background()

	page, err := m.List(ctx, owner, paging.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Notifications) != 10 {
		t.Fatalf("items: got %d, want 10", len(page.Notifications))
	}
	for i := 1; i < len(page.Notifications); i++ {
		if page.Notifications[i].CreatedAt.After(page.Notifications[i-1].CreatedAt) {
			t.Fatalf("not newest first at index %d", i)
		}
	}
	if page.Total != 12 || page.TotalPages != 2 {
		t.Errorf("total=%d pages=%d, want 12 and 2", page.Total, page.TotalPages)
	}
	if page.UnreadCount != 4 {
		t.Errorf("UnreadCount: got %d, want 4", page.UnreadCount)
	}

	if _, err := m.MarkAllRead(ctx, owner); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	page, err = m.List(ctx, owner, paging.Params{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(page.Notifications) != 2 {
		t.Errorf("page 2 items: got %d, want 2", len(page.Notifications))
	}
	if page.UnreadCount != 0 {
		t.Errorf("UnreadCount after MarkAllRead: got %d, want 0", page.UnreadCount)
	}
}

func TestListAll_AdminOnly(t *testing.T) {
	repo := newMemRepo(
		notification(primitive.NewObjectID(), models.NotificationUnread, time.Hour),
		notification(primitive.NewObjectID(), models.NotificationRead, time.Hour),
	)
	m := newManager(repo, nil)
	ctx := context.Background()

	member := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleMember}
	if _, err := m.ListAll(ctx, member, paging.Params{Page: 1, Limit: 10}); !errors.Is(err, apperr.ErrAuthorization) {
		t.Errorf("member: got %v, want authorization", err)
	}

	admin := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	page, err := m.ListAll(ctx, admin, paging.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Total: got %d, want 2", page.Total)
	}
}

func TestStats(t *testing.T) {
	owner := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleMember}
	repo := newMemRepo(
		notification(owner.ID, models.NotificationUnread, time.Hour),
		notification(owner.ID, models.NotificationRead, time.Hour),
		notification(owner.ID, models.NotificationRead, time.Hour),
	)
	got, err := newManager(repo, nil).Stats(context.Background(), owner)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := inbox.Stats{Total: 3, Unread: 1, Read: 2}
	if got != want {
		t.Errorf("Stats: got %+v, want %+v", got, want)
	}
}

func TestNotify_PartialFailure(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	repo := newMemRepo()
	repo.failFor[b] = true
	pusher := &recordingPusher{}
	m := newManager(repo, pusher)

	stored := m.Notify(context.Background(), []primitive.ObjectID{a, b, c, a}, "Task assigned", "You have a new task")
	if stored != 2 {
		t.Errorf("stored: got %d, want 2", stored)
	}
	if len(pusher.sent) != 2 {
		t.Fatalf("pushed: got %d, want 2", len(pusher.sent))
	}
	if pusher.sent[0].RecipientID != a.Hex() || pusher.sent[1].RecipientID != c.Hex() {
		t.Errorf("push order: got %s, %s", pusher.sent[0].RecipientID, pusher.sent[1].RecipientID)
	}

	count, _ := repo.Count(context.Background(), &a, models.NotificationUnread)
	if count != 1 {
		t.Errorf("duplicate recipient stored %d notifications, want 1", count)
	}
}

func TestPurgeExpired(t *testing.T) {
	user := primitive.NewObjectID()
	oldRead := notification(user, models.NotificationRead, 45*24*time.Hour)
	oldUnread := notification(user, models.NotificationUnread, 45*24*time.Hour)
	boundaryRead := notification(user, models.NotificationRead, inbox.RetentionWindow)
	recentRead := notification(user, models.NotificationRead, 29*24*time.Hour)
	repo := newMemRepo(oldRead, oldUnread, boundaryRead, recentRead)
	m := newManager(repo, nil)

	removed, err := m.PurgeExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed: got %d, want 2", removed)
	}
	if repo.has(oldRead.ID) || repo.has(boundaryRead.ID) {
		t.Error("old read notifications should be purged")
	}
	if !repo.has(oldUnread.ID) {
		t.Error("unread notification must survive regardless of age")
	}
	if !repo.has(recentRead.ID) {
		t.Error("recent read notification should survive")
	}

	again, err := m.PurgeExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("second PurgeExpired: %v", err)
	}
	if again != 0 {
		t.Errorf("second run removed %d, want 0", again)
	}
}
