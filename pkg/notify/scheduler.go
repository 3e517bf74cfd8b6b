package notify

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/ctdf"
)

// Scheduler holds events until they are due. Scheduling a key that is
// already pending replaces it.
type Scheduler interface {
	Schedule(ctx context.Context, key string, dueAt time.Time, event ctdf.Event) error
	Cancel(ctx context.Context, key string) error
	// Due claims up to limit events due at now. A claimed event is never
	// returned again.
	Due(ctx context.Context, now time.Time, limit int64) ([]ctdf.Event, error)
}

// RedisScheduler keeps due times in a sorted set and the events in a hash,
// both indexed by schedule key.
type RedisScheduler struct {
	Client *redis.Client

	SetKey  string
	HashKey string
}

func NewRedisScheduler(client *redis.Client) *RedisScheduler {
	return &RedisScheduler{
		Client:  client,
		SetKey:  "notify_schedule",
		HashKey: "notify_schedule_events",
	}
}

func (s *RedisScheduler) Schedule(ctx context.Context, key string, dueAt time.Time, event ctdf.Event) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, s.SetKey, redis.Z{Score: float64(dueAt.UnixMilli()), Member: key})
		pipe.HSet(ctx, s.HashKey, key, eventBytes)
		return nil
	})

	return err
}

func (s *RedisScheduler) Cancel(ctx context.Context, key string) error {
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.SetKey, key)
		pipe.HDel(ctx, s.HashKey, key)
		return nil
	})

	return err
}

func (s *RedisScheduler) Due(ctx context.Context, now time.Time, limit int64) ([]ctdf.Event, error) {
	keys, err := s.Client.ZRangeByScore(ctx, s.SetKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, err
	}

	var events []ctdf.Event
	for _, key := range keys {
		// Only the dispatcher that removes the key gets to send it
		removed, err := s.Client.ZRem(ctx, s.SetKey, key).Result()
		if err != nil {
			return events, err
		}
		if removed == 0 {
			continue
		}

		eventBytes, err := s.Client.HGet(ctx, s.HashKey, key).Bytes()
		if err == redis.Nil {
			continue
		} else if err != nil {
			return events, err
		}
		// The key is already claimed, a stale hash entry only costs memory
		if err := s.Client.HDel(ctx, s.HashKey, key).Err(); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to remove scheduled event body")
		}

		var event ctdf.Event
		if err := json.Unmarshal(eventBytes, &event); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Dropping undecodable scheduled event")
			continue
		}

		events = append(events, event)
	}

	return events, nil
}

// MemoryScheduler is a Scheduler for tests and single process runs.
type MemoryScheduler struct {
	mutex   sync.Mutex
	pending map[string]scheduledEvent
}

type scheduledEvent struct {
	dueAt time.Time
	event ctdf.Event
}

func NewMemoryScheduler() *MemoryScheduler {
	return &MemoryScheduler{
		pending: map[string]scheduledEvent{},
	}
}

func (s *MemoryScheduler) Schedule(_ context.Context, key string, dueAt time.Time, event ctdf.Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.pending[key] = scheduledEvent{dueAt: dueAt, event: event}

	return nil
}

func (s *MemoryScheduler) Cancel(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.pending, key)

	return nil
}

func (s *MemoryScheduler) Due(_ context.Context, now time.Time, limit int64) ([]ctdf.Event, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var keys []string
	for key, scheduled := range s.pending {
		if !scheduled.dueAt.After(now) {
			keys = append(keys, key)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		return s.pending[keys[i]].dueAt.Before(s.pending[keys[j]].dueAt)
	})
	if limit > 0 && int64(len(keys)) > limit {
		keys = keys[:limit]
	}

	var events []ctdf.Event
	for _, key := range keys {
		events = append(events, s.pending[key].event)
		delete(s.pending, key)
	}

	return events, nil
}

func (s *MemoryScheduler) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return len(s.pending)
}
