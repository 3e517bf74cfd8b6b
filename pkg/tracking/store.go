package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/jinzhu/copier"
	"github.com/redis/go-redis/v9"
	"github.com/travigo/treni/pkg/ctdf"
)

// StateStore persists the TrackedTrainState of each tracked run. Get
// returns nil without an error for a run that has no state yet.
type StateStore interface {
	Get(ctx context.Context, trackingKey string) (*ctdf.TrackedTrainState, error)
	Put(ctx context.Context, state *ctdf.TrackedTrainState) error
	Delete(ctx context.Context, trackingKey string) error
}

const stateExpiration = 36 * time.Hour

// RedisStateStore keeps states in Redis, expiring runs that stopped being
// polled.
type RedisStateStore struct {
	cache *cache.Cache[string]
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(stateExpiration))

	return &RedisStateStore{
		cache: cache.New[string](redisStore),
	}
}

func stateCacheKey(trackingKey string) string {
	return fmt.Sprintf("tracked_state:%s", trackingKey)
}

func (s *RedisStateStore) Get(ctx context.Context, trackingKey string) (*ctdf.TrackedTrainState, error) {
	cached, err := s.cache.Get(ctx, stateCacheKey(trackingKey))
	if errors.Is(err, store.NotFound{}) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	if cached == "" {
		return nil, nil
	}

	state := &ctdf.TrackedTrainState{}
	if err := state.UnmarshalBinary([]byte(cached)); err != nil {
		return nil, err
	}

	return state, nil
}

func (s *RedisStateStore) Put(ctx context.Context, state *ctdf.TrackedTrainState) error {
	encoded, err := state.MarshalBinary()
	if err != nil {
		return err
	}

	return s.cache.Set(ctx, stateCacheKey(state.TrackingKey), string(encoded))
}

func (s *RedisStateStore) Delete(ctx context.Context, trackingKey string) error {
	return s.cache.Delete(ctx, stateCacheKey(trackingKey))
}

// MemoryStateStore is a StateStore for tests and single process runs.
// States are copied in and out so callers never share them.
type MemoryStateStore struct {
	mutex  sync.RWMutex
	states map[string]*ctdf.TrackedTrainState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: map[string]*ctdf.TrackedTrainState{},
	}
}

func (s *MemoryStateStore) Get(_ context.Context, trackingKey string) (*ctdf.TrackedTrainState, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	state, exists := s.states[trackingKey]
	if !exists {
		return nil, nil
	}

	return copyState(state)
}

func (s *MemoryStateStore) Put(_ context.Context, state *ctdf.TrackedTrainState) error {
	stored, err := copyState(state)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.states[state.TrackingKey] = stored

	return nil
}

func (s *MemoryStateStore) Delete(_ context.Context, trackingKey string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.states, trackingKey)

	return nil
}

func copyState(state *ctdf.TrackedTrainState) (*ctdf.TrackedTrainState, error) {
	copied := &ctdf.TrackedTrainState{}
	if err := copier.CopyWithOption(copied, state, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}

	return copied, nil
}
