package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGuard(t *testing.T, failOpen bool) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewGuard(client, "event:", time.Hour, failOpen, zap.NewNop()), mr
}

func TestGuard_Claim_FirstWins(t *testing.T) {
	guard, mr := newGuard(t, false)
	ctx := context.Background()

	first, err := guard.Claim(ctx, "abc")
	require.NoError(t, err)
	second, err := guard.Claim(ctx, "abc")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, mr.Exists("event:abc"))
	assert.Equal(t, time.Hour, mr.TTL("event:abc"))
}

func TestGuard_Claim_ExpiresAfterTTL(t *testing.T) {
	guard, mr := newGuard(t, false)
	ctx := context.Background()

	_, err := guard.Claim(ctx, "abc")
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)

	again, err := guard.Claim(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, again)
}

func TestGuard_Release(t *testing.T) {
	guard, _ := newGuard(t, false)
	ctx := context.Background()

	_, err := guard.Claim(ctx, "abc")
	require.NoError(t, err)
	require.NoError(t, guard.Release(ctx, "abc"))

	again, err := guard.Claim(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, again)
}

func TestGuard_Claim_Unavailable(t *testing.T) {
	t.Run("fail open", func(t *testing.T) {
		guard, mr := newGuard(t, true)
		mr.Close()

		ok, err := guard.Claim(context.Background(), "abc")
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("fail closed", func(t *testing.T) {
		guard, mr := newGuard(t, false)
		mr.Close()

		ok, err := guard.Claim(context.Background(), "abc")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestNoop_Claim(t *testing.T) {
	ok, err := Noop{}.Claim(context.Background(), "x")
	assert.NoError(t, err)
	assert.True(t, ok)
}
