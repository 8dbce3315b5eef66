package mongostore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/monocle-dev/devboard/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	uri := os.Getenv("DEVBOARD_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("DEVBOARD_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	database := "devboard_test_" + uuid.NewString()[:8]

	s, err := Open(ctx, uri, database)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.client.Database(database).Drop(ctx)
		_ = s.Close(ctx)
	})

	storetest.Run(t, s)
}
