package gormstore

import (
	"context"
	"os"
	"testing"

	"github.com/monocle-dev/devboard/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	dsn := os.Getenv("DEVBOARD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DEVBOARD_TEST_POSTGRES_DSN not set")
	}

	s, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	require.NoError(t, s.Ping(context.Background()))
	storetest.Run(t, s)
}

func TestValidIDs(t *testing.T) {
	require.True(t, validIDs("0b5a4c1e-8f7d-4a4b-9d55-5a3b1d2c9e10"))
	require.False(t, validIDs("0b5a4c1e-8f7d-4a4b-9d55-5a3b1d2c9e10", "p1"))
	require.Equal(t, []string{"0b5a4c1e-8f7d-4a4b-9d55-5a3b1d2c9e10"},
		filterIDs([]string{"x", "0b5a4c1e-8f7d-4a4b-9d55-5a3b1d2c9e10"}))
}
