package services

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevalis/whispr-backend/internal/database"
)

func setupRedis(t *testing.T) {
	t.Helper()
	uri := os.Getenv("REDIS_URI")
	if uri == "" {
		t.Skip("REDIS_URI not set; skipping integration test")
	}
	if database.RedisClient == nil {
		require.NoError(t, database.ConnectRedis(uri))
	}
}

func TestSessionLifecycle(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()
	uid := uuid.New().String()

	token, err := CreateSession(ctx, uid)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, ok := ValidateSession(ctx, token)
	require.True(t, ok)
	assert.Equal(t, uid, got)

	require.NoError(t, InvalidateSession(ctx, token))
	_, ok = ValidateSession(ctx, token)
	assert.False(t, ok)
}

func TestCreateSessionReplacesPrevious(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()
	uid := uuid.New().String()

	first, err := CreateSession(ctx, uid)
	require.NoError(t, err)

	second, err := CreateSession(ctx, uid)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// Only the newest token works; one live session per user.
	_, ok := ValidateSession(ctx, first)
	assert.False(t, ok)
	got, ok := ValidateSession(ctx, second)
	require.True(t, ok)
	assert.Equal(t, uid, got)
}

func TestValidateSessionEmptyToken(t *testing.T) {
	_, ok := ValidateSession(context.Background(), "")
	assert.False(t, ok)
}
