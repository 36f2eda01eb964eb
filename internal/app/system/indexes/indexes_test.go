package indexes_test

import (
	"testing"

	"github.com/dalemusser/taskhub/internal/app/system/indexes"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, coll *mongo.Collection) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	var specs []bson.M
	if err := cur.All(ctx, &specs); err != nil {
		t.Fatalf("decode indexes failed: %v", err)
	}
	out := make(map[string]bson.M, len(specs))
	for _, s := range specs {
		out[s["name"].(string)] = s
	}
	return out
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	want := map[string][]string{
		"users":         {"uniq_users_email", "idx_users_deleted_at", "idx_users_role_fullnameci_id"},
		"notifications": {"idx_notifications_user_created", "idx_notifications_user_status", "idx_notifications_status_created"},
		"tasks":         {"idx_tasks_assigned_status", "idx_tasks_status_due", "idx_tasks_created"},
		"audit_events":  {"idx_audit_timestamp", "idx_audit_user_timestamp", "idx_audit_category_type_timestamp"},
	}
	for coll, names := range want {
		have := indexNames(t, db.Collection(coll))
		for _, n := range names {
			if _, ok := have[n]; !ok {
				t.Errorf("%s: missing index %q", coll, n)
			}
		}
	}

	if u, ok := indexNames(t, db.Collection("users"))["uniq_users_email"]; !ok || u["unique"] != true {
		t.Errorf("uniq_users_email should be unique, got %v", u)
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "deleted_at", Value: 1}},
		Options: options.Index().SetName("legacy_deleted"),
	})
	if err != nil {
		t.Fatalf("seed index failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	have := indexNames(t, db.Collection("users"))
	if _, ok := have["legacy_deleted"]; ok {
		t.Error("legacy index should have been replaced")
	}
	if _, ok := have["idx_users_deleted_at"]; !ok {
		t.Error("expected idx_users_deleted_at")
	}
}

func TestEnsureAll_UniqueEmailRejectsDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	users := db.Collection("users")
	if _, err := users.InsertOne(ctx, bson.M{"email": "a@example.com"}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := users.InsertOne(ctx, bson.M{"email": "a@example.com"}); err == nil {
		t.Error("expected duplicate email to be rejected")
	}
}
