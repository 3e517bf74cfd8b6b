// Package poller keeps tracked runs up to date: it fetches each run,
// evaluates it, compares it with the previous poll and hands the resulting
// events to the notification pipeline.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/elastic_client"
	"github.com/travigo/treni/pkg/engine"
	"github.com/travigo/treni/pkg/schema"
	"github.com/travigo/treni/pkg/tracking"
	"github.com/travigo/treni/pkg/util"
)

var (
	ErrSuperseded = errors.New("superseded by a newer request")
	ErrAmbiguous  = errors.New("train number matches more than one run")
)

type Fetcher interface {
	Fetch(ctx context.Context, number string, selection ctdf.SelectionContext) ([]byte, ctdf.SelectionContext, error)
}

type Notifier interface {
	Publish(ctx context.Context, event ctdf.Event) error
	Schedule(ctx context.Context, key string, dueAt time.Time, event ctdf.Event) error
	Cancel(ctx context.Context, key string) error
}

type Poller struct {
	Fetcher  Fetcher
	Engine   *engine.Engine
	Registry tracking.Registry
	States   tracking.StateStore
	Notifier Notifier

	Generations *tracking.Generations

	Interval       time.Duration
	MaxConcurrency int

	// Index receives one status document per successful poll
	Index func(indexName string, document any)

	Now func() time.Time
}

func New(fetcher Fetcher, registry tracking.Registry, states tracking.StateStore, notifier Notifier) *Poller {
	return &Poller{
		Fetcher:        fetcher,
		Engine:         engine.New("it"),
		Registry:       registry,
		States:         states,
		Notifier:       notifier,
		Generations:    tracking.NewGenerations(),
		Interval:       60 * time.Second,
		MaxConcurrency: 8,
		Index:          elastic_client.IndexDocument,
		Now:            time.Now,
	}
}

func (p *Poller) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}

	return p.Now()
}

// Run polls every tracked run once per interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		startTime := time.Now()
		polled, err := p.Cycle(ctx)
		if err != nil {
			log.Warn().Err(err).Int("subjects", polled).Dur("took", time.Since(startTime)).Msg("Poll cycle finished with errors")
		} else {
			log.Info().Int("subjects", polled).Dur("took", time.Since(startTime)).Msg("Poll cycle finished")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Cycle polls every tracked run once. A failing run is logged and reported
// in the returned error but never stops the others.
func (p *Poller) Cycle(ctx context.Context) (int, error) {
	registrations, err := p.Registry.All(ctx)
	if err != nil {
		return 0, err
	}

	now := p.now()

	util.InPlaceFilter(&registrations, func(registration *tracking.Registration) bool {
		if registration.IsExpired(now) {
			p.forget(ctx, registration)
			return false
		}

		return true
	})

	subjects := tracking.Subjects(registrations)

	maxConcurrency := p.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	cyclePool := pool.New().WithContext(ctx).WithMaxGoroutines(maxConcurrency)
	for trackingKey, subjectRegistrations := range subjects {
		cyclePool.Go(func(ctx context.Context) error {
			if err := p.PollSubject(ctx, trackingKey, subjectRegistrations); err != nil {
				log.Error().Err(err).Str("key", trackingKey).Msg("Failed to poll tracked train")
				return fmt.Errorf("%s: %w", trackingKey, err)
			}

			return nil
		})
	}

	return len(subjects), cyclePool.Wait()
}

func (p *Poller) forget(ctx context.Context, registration *tracking.Registration) {
	log.Info().Str("id", registration.ID).Str("key", registration.TrackingKey).Msg("Tracking registration expired")

	if err := p.Registry.Delete(ctx, registration.ID); err != nil && !errors.Is(err, tracking.ErrRegistrationNotFound) {
		log.Error().Err(err).Str("id", registration.ID).Msg("Failed to delete registration")
	}
	if err := p.States.Delete(ctx, registration.StateKey()); err != nil {
		log.Error().Err(err).Str("id", registration.ID).Msg("Failed to delete tracked state")
	}
}

// PollSubject fetches one run and updates every registration following it.
func (p *Poller) PollSubject(ctx context.Context, trackingKey string, registrations []*tracking.Registration) error {
	if len(registrations) == 0 {
		return nil
	}

	ctx, token := p.Generations.Begin(ctx, trackingKey)
	defer p.Generations.Finish(trackingKey, token)

	lead := registrations[0]
	payload, selection, err := p.Fetcher.Fetch(ctx, lead.TrainNumber, lead.Selection)
	if err != nil {
		return err
	}

	now := p.now()
	outcome := p.Engine.Process(payload, selection, now.UnixMilli())

	switch outcome.Kind {
	case schema.KindTrain:
	case schema.KindSelection:
		return ErrAmbiguous
	default:
		if outcome.Err != nil {
			return outcome.Err
		}
		return ctdf.ErrNoData
	}

	p.index(trackingKey, outcome, now)

	if !p.Generations.IsCurrent(trackingKey, token) {
		return ErrSuperseded
	}

	var errs []error
	for _, registration := range registrations {
		if err := p.apply(ctx, registration, outcome, now); err != nil {
			errs = append(errs, fmt.Errorf("registration %s: %w", registration.ID, err))
		}
	}

	return errors.Join(errs...)
}

// apply diffs the outcome against the registration's previous state, sends
// the events it allows and persists the new state.
func (p *Poller) apply(ctx context.Context, registration *tracking.Registration, outcome engine.Outcome, now time.Time) error {
	stateKey := registration.StateKey()

	previous, err := p.States.Get(ctx, stateKey)
	if err != nil {
		return err
	}
	if previous == nil {
		previous = &ctdf.TrackedTrainState{TrackingKey: stateKey}
	}
	previous.Target = registration.Target

	result := tracking.Diff(previous, outcome.Snapshot, outcome.Journey, outcome.Timeline, now.UnixMilli())

	for _, schedule := range result.InvalidatedSchedules {
		if err := p.Notifier.Cancel(ctx, schedule.Key(stateKey)); err != nil {
			return err
		}
	}

	for _, event := range Events(registration, outcome.Snapshot, result, now) {
		allowed, err := registration.Allows(event)
		if err != nil {
			log.Error().Err(err).Str("id", registration.ID).Msg("Failed to evaluate registration condition")
			continue
		}
		if !allowed {
			continue
		}

		if event.Type == ctdf.EventTypeTrainArrivalApproaching {
			schedule := &ctdf.NotificationSchedule{
				StopIdentity:     registration.Target.Identity(),
				ThresholdMinutes: event.Body.ThresholdMinutes,
			}
			dueAt := time.UnixMilli(event.Body.ArrivalEpochMs).Add(-time.Duration(event.Body.ThresholdMinutes) * time.Minute)

			err = p.Notifier.Schedule(ctx, schedule.Key(stateKey), dueAt, event)
		} else {
			err = p.Notifier.Publish(ctx, event)
		}
		if err != nil {
			return err
		}
	}

	return p.States.Put(ctx, result.NextState)
}

// StatusDocument is what each poll records in Elasticsearch.
type StatusDocument struct {
	TrackingKey string
	TrainNumber string
	KindLabel   string
	Shape       string
	Timestamp   time.Time

	JourneyState ctdf.JourneyStateCode
	Disruption   ctdf.DisruptionType
	TimelineMode ctdf.TimelineMode
	CurrentIndex int

	DelayMinutes *int `json:",omitempty"`
	NextStop     string `json:",omitempty"`
}

func (p *Poller) index(trackingKey string, outcome engine.Outcome, now time.Time) {
	if p.Index == nil {
		return
	}

	snapshot := outcome.Snapshot
	document := StatusDocument{
		TrackingKey:  trackingKey,
		TrainNumber:  snapshot.Number,
		KindLabel:    snapshot.KindLabel,
		Shape:        outcome.Shape,
		Timestamp:    now,
		JourneyState: outcome.Journey.Code,
		Disruption:   snapshot.Disruption.Type,
		TimelineMode: outcome.Timeline.Mode,
		CurrentIndex: outcome.Timeline.CurrentIndex,
		DelayMinutes: tracking.CurrentDelay(snapshot, now.UnixMilli()),
	}

	if next := nextStopName(snapshot, outcome.Timeline); next != "" {
		document.NextStop = next
	}

	p.Index(fmt.Sprintf("treni-train-status-%d-%d", now.Year(), now.Month()), document)
}
