package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/engine"
	"github.com/travigo/treni/pkg/schema"
	"github.com/travigo/treni/pkg/tracking"
)

// blockingFetcher holds the first request until its context is cancelled.
type blockingFetcher struct {
	mutex   sync.Mutex
	calls   int
	started chan struct{}
	payload []byte
}

func (f *blockingFetcher) Fetch(ctx context.Context, _ string, selection ctdf.SelectionContext) ([]byte, ctdf.SelectionContext, error) {
	f.mutex.Lock()
	f.calls++
	call := f.calls
	f.mutex.Unlock()

	if call == 1 {
		close(f.started)
		<-ctx.Done()
		return nil, selection, &ctdf.TransportError{Op: "andamentoTreno", Err: ctx.Err()}
	}

	return f.payload, selection, nil
}

func TestRefreshLatestRequestWins(t *testing.T) {
	fetcher := &blockingFetcher{started: make(chan struct{}), payload: journeyPayload(5, false)}
	poller := New(fetcher, tracking.NewMemoryRegistry(), tracking.NewMemoryStateStore(), &recordingNotifier{})
	poller.Now = func() time.Time { return at(9, 20) }

	var mutex sync.Mutex
	var applied []engine.Outcome
	apply := func(outcome engine.Outcome) {
		mutex.Lock()
		defer mutex.Unlock()
		applied = append(applied, outcome)
	}

	superseded := make(chan bool)
	go func() {
		superseded <- poller.Refresh(context.Background(), "9544", ctdf.SelectionContext{}, apply)
	}()

	<-fetcher.started
	assert.True(t, poller.Refresh(context.Background(), "9544", ctdf.SelectionContext{}, apply))
	assert.False(t, <-superseded)

	require.Len(t, applied, 1)
	assert.Equal(t, schema.KindTrain, applied[0].Kind)
	assert.Equal(t, ctdf.JourneyStateRunning, applied[0].Journey.Code)
}

type failingFetcher struct{}

func (failingFetcher) Fetch(_ context.Context, _ string, selection ctdf.SelectionContext) ([]byte, ctdf.SelectionContext, error) {
	return nil, selection, &ctdf.TransportError{Op: "cercaNumeroTrenoTrenoAutocomplete", Err: context.DeadlineExceeded}
}

func TestRefreshReportsTransportErrors(t *testing.T) {
	poller := New(failingFetcher{}, tracking.NewMemoryRegistry(), tracking.NewMemoryStateStore(), &recordingNotifier{})

	var outcome engine.Outcome
	assert.True(t, poller.Refresh(context.Background(), "9544", ctdf.SelectionContext{}, func(o engine.Outcome) {
		outcome = o
	}))

	assert.Equal(t, schema.KindError, outcome.Kind)
	assert.True(t, outcome.IsError())
}

func TestWatchStopsWhenCancelled(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.set("9544", journeyPayload(5, false))

	poller := New(fetcher, tracking.NewMemoryRegistry(), tracking.NewMemoryStateStore(), &recordingNotifier{})
	poller.Interval = 5 * time.Millisecond
	poller.Now = func() time.Time { return at(9, 20) }

	ctx, cancel := context.WithCancel(context.Background())

	var mutex sync.Mutex
	refreshes := 0

	done := make(chan error)
	go func() {
		done <- poller.Watch(ctx, "9544", ctdf.SelectionContext{}, func(outcome engine.Outcome) {
			mutex.Lock()
			defer mutex.Unlock()
			refreshes++
		})
	}()

	assert.Eventually(t, func() bool {
		mutex.Lock()
		defer mutex.Unlock()
		return refreshes >= 3
	}, time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}

	assert.Equal(t, 0, poller.Generations.Len())
}

// gatedFetcher holds the first request until released.
type gatedFetcher struct {
	mutex   sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
	payload []byte
}

func (f *gatedFetcher) Fetch(ctx context.Context, _ string, selection ctdf.SelectionContext) ([]byte, ctdf.SelectionContext, error) {
	f.mutex.Lock()
	f.calls++
	call := f.calls
	f.mutex.Unlock()

	if call == 1 {
		close(f.started)
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, selection, &ctdf.TransportError{Op: "andamentoTreno", Err: ctx.Err()}
		}
	}

	return f.payload, selection, nil
}

func TestRefreshIsNotSupersededByPolling(t *testing.T) {
	ctx := context.Background()
	test := newTestPoller(t, follow("user-1", "9544"))

	fetcher := &gatedFetcher{started: make(chan struct{}), release: make(chan struct{}), payload: journeyPayload(5, false)}
	test.Poller.Fetcher = fetcher

	registrations, err := test.registry.All(ctx)
	require.NoError(t, err)
	require.Len(t, registrations, 1)

	var outcome engine.Outcome
	refreshed := make(chan bool)
	go func() {
		refreshed <- test.Refresh(ctx, "9544", registrations[0].Selection, func(o engine.Outcome) {
			outcome = o
		})
	}()

	<-fetcher.started
	require.NoError(t, test.PollSubject(ctx, registrations[0].TrackingKey, registrations))
	close(fetcher.release)

	assert.True(t, <-refreshed)
	assert.Equal(t, schema.KindTrain, outcome.Kind)
	assert.Equal(t, 2, fetcher.calls)
}
