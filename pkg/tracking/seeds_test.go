package tracking

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedFile = `
- UserID: commuter
  TrainNumber: "9544"
  Selection:
    origincode: S01700
    date: "2026-10-19"
  Target:
    StationName: Firenze Santa Maria Novella
    StationCode: S06421
    ThresholdsMinutes: [15, 5]
  Condition: Delay >= 5 || Event != "TrainDelayChanged"
  Locale: it
- ID: night
  UserID: commuter
  TrainNumber: "1959"
`

func TestLoadSeeds(t *testing.T) {
	directory := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(directory, "daily.yaml"), []byte(seedFile), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(directory, "README.md"), []byte("ignored"), 0o644))

	seeds, err := LoadSeeds(directory, registeredAt)
	require.NoError(t, err)
	require.Len(t, seeds, 2)

	assert.Equal(t, "daily-9544", seeds[0].ID)
	assert.Equal(t, "TRACK:9544:S01700:2026-10-19", seeds[0].TrackingKey)
	require.NotNil(t, seeds[0].Target)
	assert.Equal(t, []int{15, 5}, seeds[0].Target.ThresholdsMinutes)
	assert.Equal(t, "it", seeds[0].Locale)

	assert.Equal(t, "night", seeds[1].ID)
	assert.Equal(t, "TRACK:1959:-:-", seeds[1].TrackingKey)
}

func TestLoadSeedsRejectsBadCondition(t *testing.T) {
	directory := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(directory, "bad.yaml"), []byte("- TrainNumber: \"9544\"\n  Condition: Delay >\n"), 0o644))

	_, err := LoadSeeds(directory, registeredAt)
	assert.Error(t, err)
}

func TestSeedRegistry(t *testing.T) {
	directory := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(directory, "daily.yaml"), []byte(seedFile), 0o644))

	ctx := context.Background()
	registry := NewMemoryRegistry()

	existing := &Registration{ID: "night", UserID: "someone-else", TrainNumber: "1959"}
	require.NoError(t, registry.Put(ctx, existing))

	require.NoError(t, SeedRegistry(ctx, registry, directory, registeredAt))

	all, err := registry.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	night, err := registry.Get(ctx, "night")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", night.UserID)
}
