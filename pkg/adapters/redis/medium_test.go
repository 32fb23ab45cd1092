package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/storyline/pkg/adapters/redis"
	"github.com/aretw0/storyline/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.ListableMedium = (*redis.Medium)(nil)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisMedium_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunMediumContract(t, redis.NewFromClient(client))
}

func TestRedisMedium_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := redis.NewFromClient(client, redis.WithTTL(time.Second), redis.WithClock(clock))
	ctx := context.Background()

	require.NoError(t, m.SetItem(ctx, "checkpoint:ttl", "{}"))

	keys, err := m.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"checkpoint:ttl"}, keys)

	mr.FastForward(2 * time.Second)
	now = now.Add(2 * time.Second)

	_, found, err := m.GetItem(ctx, "checkpoint:ttl")
	require.NoError(t, err)
	assert.False(t, found)

	keys, err = m.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys, "expired entries are pruned from the index")
}

func TestRedisMedium_Namespace(t *testing.T) {
	mr, client := setup(t)
	m := redis.NewFromClient(client, redis.WithNamespace("custom:app:"))
	ctx := context.Background()

	require.NoError(t, m.SetItem(ctx, "my-key", "v"))

	assert.True(t, mr.Exists("custom:app:my-key"), "value key carries the namespace")
	assert.True(t, mr.Exists("custom:app:index"), "index carries the namespace")

	keys, err := m.Keys(ctx, "my-")
	require.NoError(t, err)
	assert.Equal(t, []string{"my-key"}, keys)

	require.NoError(t, m.RemoveItem(ctx, "my-key"))
	assert.False(t, mr.Exists("custom:app:my-key"))
}

func TestRedisMedium_Unreachable(t *testing.T) {
	mr, client := setup(t)
	m := redis.NewFromClient(client)
	mr.Close()

	_, _, err := m.GetItem(context.Background(), "k")
	assert.Error(t, err, "connection failures are errors, not absences")
}
