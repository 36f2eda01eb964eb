// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth   = "auth"
	CategoryAdmin  = "admin"
	CategorySystem = "system"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedUserDisabled  = "login_failed_user_disabled"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventLogout                   = "logout"
	EventRegistered               = "registered"
)

// Admin event types
const (
	EventUserStatusChanged = "user_status_changed"
	EventUserSoftDeleted   = "user_soft_deleted"
	EventUserRestored      = "user_restored"
	EventUserRestoreFailed = "user_restore_failed"
)

// System event types
const (
	EventUsersPurged         = "users_purged"
	EventNotificationsPurged = "notifications_purged"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who
	UserID  *primitive.ObjectID `bson:"user_id,omitempty"`  // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty"` // who performed action (for admin actions)

	// Context
	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter selects audit events. Zero fields do not filter.
type QueryFilter struct {
	UserID    *primitive.ObjectID
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

const defaultLimit = 100

// Store persists audit events in the audit_events collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log inserts event, stamping the ID and the current UTC time when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC().Truncate(time.Millisecond)
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// match builds the Mongo filter. Time bounds are inclusive.
func (f QueryFilter) match() bson.D {
	m := bson.D{}
	if f.UserID != nil {
		m = append(m, bson.E{Key: "user_id", Value: *f.UserID})
	}
	if f.Category != "" {
		m = append(m, bson.E{Key: "category", Value: f.Category})
	}
	if f.EventType != "" {
		m = append(m, bson.E{Key: "event_type", Value: f.EventType})
	}
	window := bson.D{}
	if f.StartTime != nil {
		window = append(window, bson.E{Key: "$gte", Value: *f.StartTime})
	}
	if f.EndTime != nil {
		window = append(window, bson.E{Key: "$lte", Value: *f.EndTime})
	}
	if len(window) > 0 {
		m = append(m, bson.E{Key: "timestamp", Value: window})
	}
	return m
}

// Query returns one page of matching events, newest first. A non-positive
// Limit means defaultLimit.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(filter.Offset).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter.match(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter counts matching events, ignoring Limit and Offset.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.match())
}
