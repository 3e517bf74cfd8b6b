package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/treni/pkg/ctdf"
)

var registeredAt = time.Date(2026, 10, 19, 8, 30, 0, 0, ctdf.RomeLocation)

func TestRegistrationNormalise(t *testing.T) {
	registration := &Registration{
		UserID:      "user-1",
		TrainNumber: " 9544 ",
		Selection:   ctdf.SelectionContext{TechnicalID: "9544-S01700-1792360800000"},
	}

	require.NoError(t, registration.Normalise(registeredAt))

	assert.NotEmpty(t, registration.ID)
	assert.Equal(t, "9544", registration.TrainNumber)
	assert.Equal(t, "TRACK:9544:S01700:2026-10-19", registration.TrackingKey)
	assert.Equal(t, registeredAt, registration.CreationDateTime)
	assert.Equal(t, registeredAt.Add(36*time.Hour), registration.ExpiresAt)
}

func TestRegistrationNormaliseNumberFromTechnicalID(t *testing.T) {
	registration := &Registration{
		Selection: ctdf.SelectionContext{TechnicalID: "1959-S08409-1792360800000"},
	}

	require.NoError(t, registration.Normalise(registeredAt))
	assert.Equal(t, "1959", registration.TrainNumber)
	assert.Equal(t, "TRACK:1959:S08409:2026-10-19", registration.TrackingKey)
}

func TestRegistrationNormaliseErrors(t *testing.T) {
	assert.Error(t, (&Registration{}).Normalise(registeredAt))
	assert.Error(t, (&Registration{TrainNumber: "9544", Condition: "Delay >"}).Normalise(registeredAt))
}

func TestSubjects(t *testing.T) {
	var registrations []*Registration
	for _, userID := range []string{"user-1", "user-2"} {
		registration := &Registration{
			UserID:      userID,
			TrainNumber: "9544",
			Selection:   ctdf.SelectionContext{OriginCode: "S01700", Date: "2026-10-19"},
		}
		require.NoError(t, registration.Normalise(registeredAt))
		registrations = append(registrations, registration)
	}

	other := &Registration{UserID: "user-1", TrainNumber: "1959"}
	require.NoError(t, other.Normalise(registeredAt))
	registrations = append(registrations, other)

	subjects := Subjects(registrations)

	assert.Len(t, subjects, 2)
	assert.Len(t, subjects["TRACK:9544:S01700:2026-10-19"], 2)
	assert.Len(t, subjects["TRACK:1959:-:-"], 1)
}

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	registry := NewMemoryRegistry()

	for _, registration := range []*Registration{
		{ID: "b", UserID: "user-1", TrainNumber: "9544"},
		{ID: "a", UserID: "user-2", TrainNumber: "9544"},
		{ID: "c", UserID: "user-1", TrainNumber: "1959"},
	} {
		require.NoError(t, registry.Put(ctx, registration))
	}

	all, err := registry.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)

	forUser, err := registry.ForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, forUser, 2)

	found, err := registry.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "1959", found.TrainNumber)

	require.NoError(t, registry.Delete(ctx, "c"))

	_, err = registry.Get(ctx, "c")
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
	assert.ErrorIs(t, registry.Delete(ctx, "c"), ErrRegistrationNotFound)
}

func TestRegistrationStateKeyAndExpiry(t *testing.T) {
	registration := &Registration{ID: "abc", TrainNumber: "9544", Selection: ctdf.SelectionContext{OriginCode: "S01700", Date: "2026-10-19"}}
	require.NoError(t, registration.Normalise(registeredAt))

	assert.Equal(t, "TRACK:9544:S01700:2026-10-19#abc", registration.StateKey())
	assert.False(t, registration.IsExpired(registeredAt.Add(35*time.Hour)))
	assert.True(t, registration.IsExpired(registeredAt.Add(37*time.Hour)))
	assert.False(t, (&Registration{}).IsExpired(registeredAt))
}
