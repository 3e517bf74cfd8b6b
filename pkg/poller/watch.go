package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/engine"
	"github.com/travigo/treni/pkg/schema"
)

// Watch refreshes one open run every interval and hands each outcome to
// apply, until ctx is cancelled. The first refresh happens immediately.
func (p *Poller) Watch(ctx context.Context, number string, selection ctdf.SelectionContext, apply func(engine.Outcome)) error {
	defer p.Generations.Stop(watchSubject(number, selection))

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		p.Refresh(ctx, number, selection, apply)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Refresh fetches and evaluates a run once. Starting a refresh cancels any
// refresh of the same run still in flight, and apply only ever sees the
// outcome of the latest one. Background polling of the run is tracked
// separately and never supersedes it. It reports whether apply was called.
func (p *Poller) Refresh(ctx context.Context, number string, selection ctdf.SelectionContext, apply func(engine.Outcome)) bool {
	subject := watchSubject(number, selection)
	ctx, token := p.Generations.Begin(ctx, subject)
	defer p.Generations.Finish(subject, token)

	var outcome engine.Outcome

	payload, resolved, err := p.Fetcher.Fetch(ctx, number, selection)
	if err != nil {
		if ctdf.IsCancelled(err) {
			log.Debug().Str("subject", subject).Msg("Refresh superseded")
			return false
		}

		outcome = engine.Outcome{Kind: schema.KindError, Message: err.Error(), Err: err}
	} else {
		outcome = p.Engine.Process(payload, resolved, p.now().UnixMilli())
	}

	return p.Generations.Commit(subject, token, func() {
		apply(outcome)
	})
}

func watchSubject(number string, selection ctdf.SelectionContext) string {
	return "watch:" + ctdf.TrackingKey(number, selection)
}
