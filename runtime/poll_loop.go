package runtime

import (
	"context"
	"log/slog"
	"time"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
	"zwift-team-view/observability"
)

const (
	DefaultPollInterval  = 200 * time.Millisecond
	DefaultStaleInterval = 5 * time.Second
)

var _ contract.Worker = (*PollLoop)(nil)

type pollResult struct {
	samples []domain.TelemetrySample
	err     error
}

// PollLoop is the single scheduler of the roster. It owns two independent tickers,
// one polling the watch service and one checking staleness, and consumes the
// completions of telemetry requests and profile resolutions. Only one telemetry
// request is ever in flight: ticks arriving while it is pending are skipped.
type PollLoop struct {
	log           *slog.Logger
	roster        *Roster
	watch         contract.WatchClient
	metrics       *observability.Metrics
	pollInterval  time.Duration
	staleInterval time.Duration
	clock         func() time.Time

	results  chan pollResult
	inFlight bool
}

func NewPollLoop(log *slog.Logger, roster *Roster, watch contract.WatchClient, metrics *observability.Metrics,
	pollInterval, staleInterval time.Duration) *PollLoop {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if staleInterval <= 0 {
		staleInterval = DefaultStaleInterval
	}
	return &PollLoop{
		log:           log,
		roster:        roster,
		watch:         watch,
		metrics:       metrics,
		pollInterval:  pollInterval,
		staleInterval: staleInterval,
		clock:         time.Now,
		results:       make(chan pollResult, 1),
	}
}

// WithClock replaces the wall clock used for staleness checks, for tests.
func (l *PollLoop) WithClock(clock func() time.Time) *PollLoop {
	l.clock = clock
	return l
}

// Run blocks until ctx is cancelled. Both tickers stop together.
func (l *PollLoop) Run(ctx context.Context) error {
	l.log.Info("Starting poll loop", "poll_interval", l.pollInterval, "stale_interval", l.staleInterval)
	pollTicker := time.NewTicker(l.pollInterval)
	defer pollTicker.Stop()
	staleTicker := time.NewTicker(l.staleInterval)
	defer staleTicker.Stop()

	profiles := l.roster.ProfileResults()

	for {
		select {
		case <-ctx.Done():
			l.log.Debug("Stopping poll loop")
			return ctx.Err()
		case <-pollTicker.C:
			l.poll(ctx)
		case res := <-l.results:
			l.inFlight = false
			l.handle(res)
		case <-staleTicker.C:
			l.roster.TickStaleness(l.clock())
		case result := <-profiles:
			l.roster.ApplyProfile(result)
		}
	}
}

func (l *PollLoop) poll(ctx context.Context) {
	if l.inFlight {
		l.metrics.PollsSkippedTotal.Inc()
		l.log.Debug("Previous telemetry request still pending, skipping tick")
		return
	}
	l.inFlight = true
	l.metrics.PollsTotal.Inc()
	go func() {
		samples, err := l.watch.Poll(ctx)
		// Never blocks: the channel has room for the single request in flight.
		l.results <- pollResult{samples: samples, err: err}
	}()
}

func (l *PollLoop) handle(res pollResult) {
	if res.err != nil {
		l.metrics.PollErrorsTotal.Inc()
		l.log.Warn("Telemetry poll failed, waiting for next tick", "error", res.err)
		return
	}
	l.roster.Dispatch(res.samples)
}
