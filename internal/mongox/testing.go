package mongox

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// TestURIEnv names the variable that enables live Mongo tests.
const TestURIEnv = "CONFKEEPER_TEST_MONGO_URI"

// OpenTestDatabase returns a throwaway database on the server named by
// CONFKEEPER_TEST_MONGO_URI and drops it when the test ends. The test is
// skipped when the variable is unset.
func OpenTestDatabase(t testing.TB) *mongo.Database {
	t.Helper()
	uri := os.Getenv(TestURIEnv)
	if uri == "" {
		t.Skipf("%s not set", TestURIEnv)
	}

	client, err := Open(context.Background(), uri, Options{ServerSelectionTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}

	db := client.Database(fmt.Sprintf("confkeeper_test_%s", uuid.NewString()[:8]))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}
