package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/config"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(zap.NewNop(), config.SessionRedisConfig{Addr: mr.Addr()}, 24*time.Hour)
	require.NoError(t, err)
	return store, mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	token := newToken("t1")
	require.NoError(t, s.Save(ctx, token))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, token.Username, got.Username)
	assert.Equal(t, token.Scholarships, got.Scholarships)

	_, err = s.Get(ctx, "unknown")
	assert.ErrorIs(t, err, cnst.ErrSessionNotFound)
}

func TestRedisStore_ExpiryViaTTL(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, newToken("t1")))

	mr.FastForward(25 * time.Hour)

	_, err := s.Get(ctx, "t1")
	assert.ErrorIs(t, err, cnst.ErrSessionNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, newToken("t1")))

	existed, err := s.Delete(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.Delete(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestRedisStore_SelectScholarship(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, newToken("t1")))

	require.NoError(t, s.SelectScholarship(ctx, "t1", "stem"))
	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "stem", got.Scholarship)

	assert.ErrorIs(t, s.SelectScholarship(ctx, "unknown", "stem"), cnst.ErrSessionNotFound)
}

func TestNewRedisStore_BadAddr(t *testing.T) {
	_, err := NewRedisStore(zap.NewNop(), config.SessionRedisConfig{Addr: "127.0.0.1:1"}, time.Hour)
	assert.Error(t, err)
}
