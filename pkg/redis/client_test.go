package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient connects to REDIS_TEST_ADDR or skips the test.
func newTestClient(t *testing.T) *RedisClient {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis integration test")
	}
	client, err := NewClient(&Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient(&Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestRedisClient_JSONCache(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	key := "catalog:test:" + time.Now().Format(time.RFC3339Nano)
	defer func() { _ = client.Delete(ctx, key) }()

	var dest []string
	hit, err := client.GetJSON(ctx, key, &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, client.SetJSON(ctx, key, []string{"a", "b"}, time.Minute))

	hit, err = client.GetJSON(ctx, key, &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, dest)

	require.NoError(t, client.Delete(ctx, key))
	hit, err = client.GetJSON(ctx, key, &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisClient_PublishEvent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	stream := "catalog-events-test"
	defer func() { _ = client.GetClient().Del(ctx, stream).Err() }()

	before, err := client.GetStreamLength(ctx, stream)
	require.NoError(t, err)

	id, err := client.PublishEvent(ctx, stream, map[string]interface{}{
		"entity": "property",
		"action": "create",
		"id":     "5",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	after, err := client.GetStreamLength(ctx, stream)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}
