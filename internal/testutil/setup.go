// Package testutil provides shared helpers for tests that need a real
// MongoDB instance or authenticated HTTP requests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoURI returns the test MongoDB URI, defaulting to a local instance.
func mongoURI() string {
	if uri := os.Getenv("ROLLCALL_TEST_MONGO_URI"); uri != "" {
		return uri
	}
	return "mongodb://localhost:27017"
}

// SetupTestDB connects to the test MongoDB instance and returns a
// uniquely named database for this test. The database is dropped and the
// client disconnected during cleanup. Tests are skipped when no MongoDB
// is reachable so the suite still runs in environments without one.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI()))
	if err != nil {
		t.Skipf("skipping: cannot connect to test mongodb: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("skipping: test mongodb not reachable: %v", err)
	}

	db := client.Database(fmt.Sprintf("rollcall_test_%s", uuid.NewString()[:8]))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("failed to drop test database %s: %v", db.Name(), err)
		}
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("failed to disconnect test client: %v", err)
		}
	})

	return db
}

// TestContext returns a context with a timeout suitable for a single
// test operation.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
