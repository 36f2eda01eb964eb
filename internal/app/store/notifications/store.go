// Package notificationstore persists notifications in the "notifications"
// collection.
package notificationstore

import (
	"context"
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Create inserts n, assigning a new id.
func (s *Store) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.ID = primitive.NewObjectID()
	if n.Status == "" {
		n.Status = models.NotificationUnread
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// GetByID loads one notification. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Notification, error) {
	var n models.Notification
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// MarkRead sets status to read.
func (s *Store) MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.NotificationRead, "updated_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkAllRead marks every unread notification of userID read.
func (s *Store) MarkAllRead(ctx context.Context, userID primitive.ObjectID, at time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "status": models.NotificationUnread},
		bson.M{"$set": bson.M{"status": models.NotificationRead, "updated_at": at}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// DeleteByID removes one notification. A missing id is mongo.ErrNoDocuments.
func (s *Store) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func filter(userID *primitive.ObjectID, status string) bson.M {
	q := bson.M{}
	if userID != nil {
		q["user_id"] = *userID
	}
	if status != "" {
		q["status"] = status
	}
	return q
}

// List returns notifications newest first. A nil userID lists every recipient.
func (s *Store) List(ctx context.Context, userID *primitive.ObjectID, skip, limit int64) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter(userID, ""), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count counts notifications; empty status counts all statuses.
func (s *Store) Count(ctx context.Context, userID *primitive.ObjectID, status string) (int64, error) {
	return s.c.CountDocuments(ctx, filter(userID, status))
}

// DeleteReadBefore removes read notifications created at or before cutoff
// and returns how many were removed.
func (s *Store) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"status":     models.NotificationRead,
		"created_at": bson.M{"$lte": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
