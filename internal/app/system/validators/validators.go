// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collections lists every collection the app owns with its JSON-Schema
// validator. A nil validator only ensures the collection exists.
var collections = []struct {
	name      string
	validator func() bson.M
}{
	{"users", usersValidator},
	{"notifications", notificationsValidator},
	{"tasks", tasksValidator},
	{"audit_events", nil},
}

// Mongo server error codes handled during setup.
const (
	codeNamespaceExists = 48
	codeCommandNotFound = 59
	codeNotSupported    = 115
)

// EnsureAll creates missing collections and attaches their validators.
// Servers that reject collMod validators (some DocumentDB versions) get the
// collections without validation and a log line. All failures are gathered
// into one error.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	var problems []error
	for _, c := range collections {
		if !have[c.name] {
			if err := db.CreateCollection(ctx, c.name); err != nil && !hasCode(err, codeNamespaceExists) {
				problems = append(problems, fmt.Errorf("%s: %w", c.name, err))
				continue
			}
			zap.L().Info("created collection", zap.String("collection", c.name))
		}
		if c.validator == nil {
			continue
		}
		err := applyValidator(ctx, db, c.name, c.validator())
		switch {
		case err == nil:
		case hasCode(err, codeCommandNotFound, codeNotSupported):
			zap.L().Info("validator skipped (unsupported)", zap.String("collection", c.name))
		default:
			problems = append(problems, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	return errors.Join(problems...)
}

func applyValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

// hasCode reports whether err is a server command error with one of codes.
func hasCode(err error, codes ...int32) bool {
	var ce mongo.CommandError
	if !errors.As(err, &ce) {
		return false
	}
	for _, c := range codes {
		if ce.Code == c {
			return true
		}
	}
	return false
}

/* ------------------------- JSON-Schema docs ---------------------- */

func enum(values []string) bson.A {
	out := make(bson.A, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

// usersValidator also enforces that a pending-deletion account is inactive.
func usersValidator() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "password_hash", "role", "is_active"},
			"properties": bson.M{
				"full_name":     bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"full_name_ci":  bson.M{"bsonType": "string"},
				"email":         bson.M{"bsonType": "string", "minLength": 3},
				"password_hash": bson.M{"bsonType": "string", "minLength": 1},
				"role":          bson.M{"enum": bson.A{models.RoleAdmin, models.RoleMember}},
				"is_active":     bson.M{"bsonType": "bool"},
				"deleted_at":    bson.M{"bsonType": bson.A{"date", "null"}},
			},
		},
		"$or": bson.A{
			bson.M{"deleted_at": nil},
			bson.M{"is_active": false},
		},
	}
}

func notificationsValidator() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "title", "message", "status", "created_at"},
			"properties": bson.M{
				"user_id":    bson.M{"bsonType": "objectId"},
				"title":      bson.M{"bsonType": "string", "minLength": 1},
				"message":    bson.M{"bsonType": "string"},
				"status":     bson.M{"enum": bson.A{models.NotificationUnread, models.NotificationRead}},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func tasksValidator() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "status", "priority", "due_date", "created_by"},
			"properties": bson.M{
				"title":       bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"status":      bson.M{"enum": enum(models.TaskStatuses)},
				"priority":    bson.M{"enum": enum(models.TaskPriorities)},
				"due_date":    bson.M{"bsonType": "date"},
				"assigned_to": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"created_by":  bson.M{"bsonType": "objectId"},
				"progress":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0, "maximum": 100},
			},
		},
	}
}
