package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/ctdf"
)

// Queue is the part of an rmq.Queue the publisher needs.
type Queue interface {
	PublishBytes(payload ...[]byte) error
}

// Publisher puts events on the events queue for immediate processing.
type Publisher struct {
	Queue Queue
}

func (p *Publisher) Publish(_ context.Context, event ctdf.Event) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Queue.PublishBytes(eventBytes)
}

// Notifier is how the poller hands events on: publish now, or hold until
// a due time under a key that later schedules replace.
type Notifier struct {
	*Publisher
	Scheduler Scheduler
}

func (n *Notifier) Schedule(ctx context.Context, key string, dueAt time.Time, event ctdf.Event) error {
	return n.Scheduler.Schedule(ctx, key, dueAt, event)
}

func (n *Notifier) Cancel(ctx context.Context, key string) error {
	return n.Scheduler.Cancel(ctx, key)
}

// Dispatcher moves due scheduled events onto the events queue.
type Dispatcher struct {
	Scheduler Scheduler
	Publisher *Publisher

	Interval  time.Duration
	BatchSize int64

	Now func() time.Time
}

// DispatchDue publishes every event due now and returns how many were sent.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}

	batchSize := d.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	sent := 0
	for {
		events, err := d.Scheduler.Due(ctx, now(), batchSize)
		if err != nil {
			return sent, err
		}

		for _, event := range events {
			if err := d.Publisher.Publish(ctx, event); err != nil {
				log.Error().Err(err).Str("id", event.ID).Msg("Failed to publish scheduled event")
				continue
			}
			sent++
		}

		if int64(len(events)) < batchSize {
			return sent, nil
		}
	}
}

// Run dispatches on every tick until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	interval := d.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if sent, err := d.DispatchDue(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to dispatch scheduled events")
			} else if sent > 0 {
				log.Info().Int("sent", sent).Msg("Dispatched scheduled events")
			}
		}
	}
}
