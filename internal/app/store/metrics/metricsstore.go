package metricsstore

import (
	"context"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of account and inbox totals shown on the admin dashboard.
type Counts struct {
	Admins              int64 `json:"admins"`
	Members             int64 `json:"members"`
	Inactive            int64 `json:"inactive"`
	PendingDeletion     int64 `json:"pendingDeletion"`
	UnreadNotifications int64 `json:"unreadNotifications"`
	ReadNotifications   int64 `json:"readNotifications"`
}

// FetchDashboardCounts returns the high-level counts used by the admin
// dashboard. Admins and Members count active accounts only.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database) Counts {
	var out Counts
	users := db.Collection("users")
	notifications := db.Collection("notifications")

	count := func(c *mongo.Collection, filter bson.M, dst *int64) {
		if n, err := c.CountDocuments(ctx, filter); err == nil {
			*dst = n
		}
	}

	count(users, bson.M{"role": models.RoleAdmin, "is_active": true, "deleted_at": nil}, &out.Admins)
	count(users, bson.M{"role": models.RoleMember, "is_active": true, "deleted_at": nil}, &out.Members)
	count(users, bson.M{"is_active": false, "deleted_at": nil}, &out.Inactive)
	count(users, bson.M{"deleted_at": bson.M{"$ne": nil}}, &out.PendingDeletion)
	count(notifications, bson.M{"status": models.NotificationUnread}, &out.UnreadNotifications)
	count(notifications, bson.M{"status": models.NotificationRead}, &out.ReadNotifications)

	return out
}
