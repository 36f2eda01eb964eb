package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// TestMongoURIEnv names an existing server to test against. When unset, a
// throwaway mongo container is started with dockertest.
const TestMongoURIEnv = "TASKHUB_TEST_MONGO_URI"

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

// TestContext returns a context with a timeout suitable for one test step.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SetupTestDB returns a fresh database dropped when the test ends. The test
// is skipped when no MongoDB server is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB-backed test in -short mode")
	}

	clientOnce.Do(func() {
		client, clientErr = connect()
	})
	if clientErr != nil {
		t.Skipf("MongoDB unavailable: %v", clientErr)
	}

	db := client.Database("taskhub_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}

func connect() (*mongo.Client, error) {
	if uri := os.Getenv(TestMongoURIEnv); uri != "" {
		return dial(uri)
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("docker pool: %w", err)
	}
	pool.MaxWait = 90 * time.Second
	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("docker ping: %w", err)
	}

	resource, err := pool.Run("mongo", "7.0", nil)
	if err != nil {
		return nil, fmt.Errorf("start mongo container: %w", err)
	}
	// The container removes itself if the test binary dies without cleanup.
	_ = resource.Expire(600)

	uri := fmt.Sprintf("mongodb://localhost:%s", resource.GetPort("27017/tcp"))
	var c *mongo.Client
	err = pool.Retry(func() error {
		var dialErr error
		c, dialErr = dial(uri)
		return dialErr
	})
	if err != nil {
		_ = pool.Purge(resource)
		return nil, fmt.Errorf("mongo container never became ready: %w", err)
	}
	return c, nil
}

func dial(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}
