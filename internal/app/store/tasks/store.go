// Package taskstore persists tasks in the "tasks" collection and computes
// the dashboard aggregates over it.
package taskstore

import (
	"context"
	"time"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecentLimit is the number of tasks in a dashboard's recent list.
const RecentLimit = 10

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// Create inserts t with a new id and timestamps.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.AssignedTo == nil {
		t.AssignedTo = []primitive.ObjectID{}
	}
	if t.TodoChecklist == nil {
		t.TodoChecklist = []models.TodoItem{}
	}
	if t.Attachments == nil {
		t.Attachments = []models.Attachment{}
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID loads a task. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Save replaces the stored task with t and bumps updated_at.
func (s *Store) Save(ctx context.Context, t models.Task) (models.Task, error) {
	t.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return models.Task{}, err
	}
	if res.MatchedCount == 0 {
		return models.Task{}, mongo.ErrNoDocuments
	}
	return t, nil
}

// DeleteByID removes a task. A missing id is mongo.ErrNoDocuments.
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

// AddAttachment appends a to the task's attachments.
func (s *Store) AddAttachment(ctx context.Context, id primitive.ObjectID, a models.Attachment) (models.Task, error) {
	return s.updateAndGet(ctx, id, bson.M{
		"$push": bson.M{"attachments": a},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

// RemoveAttachment pulls the attachment with publicID.
func (s *Store) RemoveAttachment(ctx context.Context, id primitive.ObjectID, publicID string) (models.Task, error) {
	return s.updateAndGet(ctx, id, bson.M{
		"$pull": bson.M{"attachments": bson.M{"public_id": publicID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
}

func (s *Store) updateAndGet(ctx context.Context, id primitive.ObjectID, update bson.M) (models.Task, error) {
	var t models.Task
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&t)
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Filter narrows List and the aggregates. A nil AssignedTo means every task.
type Filter struct {
	AssignedTo *primitive.ObjectID
	Status     string
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.AssignedTo != nil {
		q["assigned_to"] = *f.AssignedTo
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

// List returns tasks newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, f.query(),
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StatusCounts tallies tasks per status.
type StatusCounts struct {
	All        int64 `json:"all"`
	Pending    int64 `json:"pendingTasks"`
	InProgress int64 `json:"inProgressTasks"`
	Completed  int64 `json:"completedTasks"`
}

func (c *StatusCounts) add(status string, n int64) {
	switch status {
	case models.TaskPending:
		c.Pending += n
	case models.TaskInProgress:
		c.InProgress += n
	case models.TaskCompleted:
		c.Completed += n
	}
	c.All += n
}

// StatusSummary counts tasks per status under f. f.Status is ignored.
func (s *Store) StatusSummary(ctx context.Context, f Filter) (StatusCounts, error) {
	f.Status = ""
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: f.query()}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return StatusCounts{}, err
	}
	defer cur.Close(ctx)

	var out StatusCounts
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return StatusCounts{}, err
		}
		out.add(row.Status, row.N)
	}
	return out, cur.Err()
}

// CountsByAssignee returns per-status task counts for each of userIDs that
// has at least one assigned task.
func (s *Store) CountsByAssignee(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]StatusCounts, error) {
	out := make(map[primitive.ObjectID]StatusCounts, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"assigned_to": bson.M{"$in": userIDs}}}},
		{{Key: "$unwind", Value: "$assigned_to"}},
		{{Key: "$match", Value: bson.M{"assigned_to": bson.M{"$in": userIDs}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"user": "$assigned_to", "status": "$status"},
			"n":   bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID struct {
				User   primitive.ObjectID `bson:"user"`
				Status string             `bson:"status"`
			} `bson:"_id"`
			N int64 `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		c := out[row.ID.User]
		c.add(row.ID.Status, row.N)
		out[row.ID.User] = c
	}
	return out, cur.Err()
}

// Dashboard is the aggregate view over a set of tasks.
type Dashboard struct {
	Statistics struct {
		TotalTasks     int64 `json:"totalTasks"`
		PendingTasks   int64 `json:"pendingTasks"`
		CompletedTasks int64 `json:"completedTasks"`
		OverdueTasks   int64 `json:"overdueTasks"`
	} `json:"statistics"`
	Charts struct {
		TaskDistribution   map[string]int64 `json:"taskDistribution"`
		TaskPriorityLevels map[string]int64 `json:"taskPriorityLevels"`
	} `json:"charts"`
	RecentTasks []models.Task `json:"recentTasks"`
}

// DashboardFor computes the dashboard over tasks matching f at now. A task
// is overdue when it is not Completed and its due date is before now.
func (s *Store) DashboardFor(ctx context.Context, f Filter, now time.Time) (Dashboard, error) {
	f.Status = ""
	var d Dashboard

	summary, err := s.StatusSummary(ctx, f)
	if err != nil {
		return Dashboard{}, err
	}
	d.Statistics.TotalTasks = summary.All
	d.Statistics.PendingTasks = summary.Pending
	d.Statistics.CompletedTasks = summary.Completed

	overdue := f.query()
	overdue["status"] = bson.M{"$ne": models.TaskCompleted}
	overdue["due_date"] = bson.M{"$lt": now}
	if d.Statistics.OverdueTasks, err = s.c.CountDocuments(ctx, overdue); err != nil {
		return Dashboard{}, err
	}

	d.Charts.TaskDistribution = map[string]int64{
		"All":                 summary.All,
		models.TaskPending:    summary.Pending,
		models.TaskInProgress: summary.InProgress,
		models.TaskCompleted:  summary.Completed,
	}

	d.Charts.TaskPriorityLevels = make(map[string]int64, len(models.TaskPriorities))
	for _, p := range models.TaskPriorities {
		d.Charts.TaskPriorityLevels[p] = 0
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: f.query()}},
		{{Key: "$group", Value: bson.M{"_id": "$priority", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return Dashboard{}, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			Priority string `bson:"_id"`
			N        int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return Dashboard{}, err
		}
		d.Charts.TaskPriorityLevels[row.Priority] = row.N
	}
	if err := cur.Err(); err != nil {
		return Dashboard{}, err
	}

	rc, err := s.c.Find(ctx, f.query(), options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(RecentLimit).
		SetProjection(bson.M{"title": 1, "status": 1, "priority": 1, "due_date": 1, "created_at": 1}))
	if err != nil {
		return Dashboard{}, err
	}
	defer rc.Close(ctx)
	d.RecentTasks = []models.Task{}
	if err := rc.All(ctx, &d.RecentTasks); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
