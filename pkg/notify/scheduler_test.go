package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisScheduler(t *testing.T) (*RedisScheduler, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisScheduler(client), server
}

func TestRedisSchedulerDue(t *testing.T) {
	ctx := context.Background()
	scheduler, server := newRedisScheduler(t)

	first := arrivalEvent("Firenze Santa Maria Novella", 15)
	second := arrivalEvent("Roma Termini", 15)
	require.NoError(t, scheduler.Schedule(ctx, "a", nine.Add(-time.Minute), first))
	require.NoError(t, scheduler.Schedule(ctx, "b", nine, second))
	require.NoError(t, scheduler.Schedule(ctx, "later", nine.Add(time.Hour), first))

	events, err := scheduler.Due(ctx, nine, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, first.ID, events[0].ID)
	assert.Equal(t, second.ID, events[1].ID)

	// Claimed events leave nothing behind
	remaining, err := server.HKeys(scheduler.HashKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"later"}, remaining)

	events, err = scheduler.Due(ctx, nine, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRedisSchedulerDropsUndecodableEvents(t *testing.T) {
	ctx := context.Background()
	scheduler, server := newRedisScheduler(t)

	valid := arrivalEvent("Roma Termini", 5)
	require.NoError(t, scheduler.Schedule(ctx, "valid", nine, valid))
	require.NoError(t, scheduler.Schedule(ctx, "broken", nine.Add(-time.Minute), valid))
	server.HSet(scheduler.HashKey, "broken", "{not json")

	events, err := scheduler.Due(ctx, nine, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, valid.ID, events[0].ID)

	assert.Empty(t, server.HGet(scheduler.HashKey, "broken"))
	assert.Empty(t, server.HGet(scheduler.HashKey, "valid"))

	events, err = scheduler.Due(ctx, nine, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRedisSchedulerCancel(t *testing.T) {
	ctx := context.Background()
	scheduler, _ := newRedisScheduler(t)

	require.NoError(t, scheduler.Schedule(ctx, "a", nine, arrivalEvent("Roma Termini", 5)))
	require.NoError(t, scheduler.Cancel(ctx, "a"))

	events, err := scheduler.Due(ctx, nine, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
