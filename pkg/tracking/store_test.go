package tracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/treni/pkg/ctdf"
)

func TestMemoryStateStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()

	missing, err := store.Get(ctx, "TRACK:9544:S01700:2026-10-19")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	state := firenzeTarget()
	state.LastDelayMinutes = ctdf.Minutes(3)
	state.Schedules = []*ctdf.NotificationSchedule{
		{StopIdentity: "S06421", ThresholdMinutes: 15, ArrivalEpochMs: at(100)},
	}
	require.NoError(t, store.Put(ctx, state))

	// Changes after Put are not visible through the store
	*state.LastDelayMinutes = 9
	state.Schedules[0].ThresholdMinutes = 5

	stored, err := store.Get(ctx, state.TrackingKey)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 3, *stored.LastDelayMinutes)
	assert.Equal(t, 15, stored.Schedules[0].ThresholdMinutes)
	assert.Equal(t, "S06421", stored.Target.Identity())

	require.NoError(t, store.Delete(ctx, state.TrackingKey))

	deleted, err := store.Get(ctx, state.TrackingKey)
	assert.NoError(t, err)
	assert.Nil(t, deleted)
}

func TestTrackedStateBinaryEncoding(t *testing.T) {
	state := firenzeTarget()
	state.LastJourneyStateCode = ctdf.JourneyStateRunning

	encoded, err := state.MarshalBinary()
	require.NoError(t, err)

	decoded := &ctdf.TrackedTrainState{}
	require.NoError(t, decoded.UnmarshalBinary(encoded))

	assert.Equal(t, state, decoded)
}

func TestStateCacheKey(t *testing.T) {
	assert.Equal(t, "tracked_state:TRACK:9544:S01700:2026-10-19", stateCacheKey("TRACK:9544:S01700:2026-10-19"))
}
