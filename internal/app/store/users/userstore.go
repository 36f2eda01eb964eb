package userstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// List filters accepted by List.
const (
	FilterActive   = "active"
	FilterInactive = "inactive"
	FilterPending  = "pending"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"member"`)
)

// Create inserts a new active user after normalizing & validating fields.
// The caller supplies the password hash.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.IsActive = true
	u.DeletedAt = nil

	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Search string // case-insensitive substring of the name or email
	Status string // "" | active | inactive | pending
	Skip   int64
	Limit  int64
}

func (f ListFilter) query() bson.M {
	q := bson.M{}
	switch f.Status {
	case FilterActive:
		q["is_active"] = true
		q["deleted_at"] = nil
	case FilterInactive:
		q["is_active"] = false
		q["deleted_at"] = nil
	case FilterPending:
		q["deleted_at"] = bson.M{"$ne": nil}
	}
	if f.Search != "" {
		pat := regexp.QuoteMeta(text.Fold(f.Search))
		q["$or"] = bson.A{
			bson.M{"full_name_ci": primitive.Regex{Pattern: pat}},
			bson.M{"email": primitive.Regex{Pattern: regexp.QuoteMeta(normalize.Email(f.Search))}},
		}
	}
	return q
}

// List returns users ordered by name, then id.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(f.Skip)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of users matching f. Skip and Limit are ignored.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

// updateByID applies set to one document and reports a missing id as
// mongo.ErrNoDocuments.
func (s *Store) updateByID(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateStatus sets role and is_active.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, role string, isActive bool) error {
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{
		"role":       role,
		"is_active":  isActive,
		"updated_at": time.Now().UTC(),
	}})
}

// ProfileUpdate holds the self-service profile fields. Nil fields are left alone.
type ProfileUpdate struct {
	FullName *string
	Avatar   *models.Avatar
}

// UpdateProfile applies upd and returns the stored user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.FullName != nil {
		name := normalize.Name(*upd.FullName)
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if upd.Avatar != nil {
		set["avatar"] = upd.Avatar
	}
	if err := s.updateByID(ctx, id, bson.M{"$set": set}); err != nil {
		return models.User{}, err
	}
	return s.GetByID(ctx, id)
}

// SetDeleted marks the account pending deletion. is_active is cleared in
// the same write.
func (s *Store) SetDeleted(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{
		"is_active":  false,
		"deleted_at": at,
		"updated_at": at,
	}})
}

// ClearDeleted reactivates a pending account.
func (s *Store) ClearDeleted(ctx context.Context, id primitive.ObjectID) error {
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{
		"is_active":  true,
		"deleted_at": nil,
		"updated_at": time.Now().UTC(),
	}})
}

// FindDeletedBefore returns the ids of accounts whose deleted_at is at or
// before cutoff.
func (s *Store) FindDeletedBefore(ctx context.Context, cutoff time.Time) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"deleted_at": bson.M{"$ne": nil, "$lte": cutoff}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// DeleteByID removes the record. A missing id is mongo.ErrNoDocuments.
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

// NamesByID returns full names for the given ids, for decorating lists.
func (s *Store) NamesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1, "full_name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID       primitive.ObjectID `bson:"_id"`
			FullName string             `bson:"full_name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.FullName
	}
	return out, cur.Err()
}

// ActiveIDs returns the subset of ids that exist and may sign in.
func (s *Store) ActiveIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "is_active": true, "deleted_at": nil},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.ID)
	}
	return out, cur.Err()
}
