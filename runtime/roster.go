// Package runtime drives the participants: it loads the roster, resolves profiles,
// dispatches telemetry and runs the polling loop. Business rules live in domain.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
	apperrors "zwift-team-view/errors"
	"zwift-team-view/observability"
	"zwift-team-view/runtime/workers"
)

var _ contract.RosterReader = (*Roster)(nil)

// Roster owns the fixed set of participants. Participants are only mutated from
// the poll loop goroutine; the lock lets renderers read snapshots concurrently.
type Roster struct {
	mu           sync.RWMutex
	log          *slog.Logger
	order        []domain.ParticipantID
	participants map[domain.ParticipantID]*domain.Participant
	resolver     contract.ProfileResolver
	watch        contract.WatchClient
	sinks        []contract.SampleSink
	metrics      *observability.Metrics
	resetTimeout time.Duration
	clock        func() time.Time
	profiles     chan workers.ProfileResult
	pending      sync.WaitGroup
}

func NewRoster(log *slog.Logger, resolver contract.ProfileResolver, watch contract.WatchClient,
	metrics *observability.Metrics, resetTimeout time.Duration) *Roster {
	if resetTimeout <= 0 {
		resetTimeout = domain.ResetTimeout
	}
	return &Roster{
		log:          log,
		participants: make(map[domain.ParticipantID]*domain.Participant),
		resolver:     resolver,
		watch:        watch,
		metrics:      metrics,
		resetTimeout: resetTimeout,
		clock:        time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (r *Roster) WithClock(clock func() time.Time) *Roster {
	r.clock = clock
	return r
}

// AddSinks registers consumers of accepted samples.
func (r *Roster) AddSinks(sinks ...contract.SampleSink) {
	r.sinks = append(r.sinks, sinks...)
}

// Load creates one participant per configured ID, in order. Cached profiles are
// applied right away; the others are resolved in the background and delivered on
// ProfileResults. Every participant is registered with the watch service without
// waiting: a failed registration is only logged.
func (r *Roster) Load(ctx context.Context, ids []domain.ParticipantID) error {
	if len(ids) == 0 {
		return apperrors.ErrEmptyRoster
	}

	r.mu.Lock()
	if len(r.participants) > 0 {
		r.mu.Unlock()
		return fmt.Errorf("roster already loaded with %d participants", len(r.participants))
	}
	now := r.clock()
	for _, id := range ids {
		if _, ok := r.participants[id]; ok {
			r.log.Warn("Duplicate participant in roster, ignoring", "participant", id)
			continue
		}
		r.participants[id] = domain.NewParticipant(id, now).WithResetTimeout(r.resetTimeout)
		r.order = append(r.order, id)
	}
	r.profiles = make(chan workers.ProfileResult, len(r.order))
	order := append([]domain.ParticipantID(nil), r.order...)
	r.mu.Unlock()

	r.metrics.Participants.Set(float64(len(order)))
	for _, id := range order {
		r.loadProfile(ctx, id)
		r.register(ctx, id)
	}
	r.log.Info("Roster loaded", "participants", len(order))
	return nil
}

func (r *Roster) loadProfile(ctx context.Context, id domain.ParticipantID) {
	profile, ok, err := r.resolver.Lookup(id)
	if err != nil {
		r.log.Warn("Unreadable cached profile", "participant", id, "error", err)
	}
	if ok {
		r.mu.Lock()
		r.participants[id].ApplyProfile(profile)
		r.mu.Unlock()
		r.log.Debug("Profile loaded from cache", "participant", id)
		return
	}

	worker := workers.NewProfileResolverWorker(r.log, id, r.resolver, r.profiles)
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		_ = worker.Run(ctx)
	}()
}

func (r *Roster) register(ctx context.Context, id domain.ParticipantID) {
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		if err := r.watch.Add(ctx, id); err != nil {
			r.metrics.RegistrationsTotal.WithLabelValues("failed").Inc()
			r.log.Warn("Watch registration failed", "participant", id, "error", err)
			return
		}
		r.metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	}()
}

// WaitPending blocks until every background resolution and registration started
// by Load has finished.
func (r *Roster) WaitPending() {
	r.pending.Wait()
}

// ProfileResults delivers background profile resolutions. It is nil before Load.
func (r *Roster) ProfileResults() <-chan workers.ProfileResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profiles
}

// ApplyProfile stores a completed resolution. Failed ones leave the placeholder.
func (r *Roster) ApplyProfile(result workers.ProfileResult) {
	if result.Err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[result.ID]
	if !ok {
		return
	}
	if p.ApplyProfile(result.Profile) {
		r.log.Info("Profile ready", "participant", result.ID, "name", result.Profile.DisplayName)
	}
}

// Dispatch applies a telemetry batch in batch order. Samples for participants
// outside the roster are logged and skipped.
func (r *Roster) Dispatch(batch []domain.TelemetrySample) {
	now := r.clock()
	accepted := make([]domain.TelemetrySample, 0, len(batch))

	r.mu.Lock()
	for _, sample := range batch {
		p, ok := r.participants[sample.ParticipantID]
		if !ok {
			r.metrics.UnknownSamplesTotal.Inc()
			r.log.Warn("Skipping telemetry sample",
				"error", fmt.Errorf("%w: %s", apperrors.ErrUnknownParticipant, sample.ParticipantID))
			continue
		}
		if !p.ApplyUpdate(sample, now) {
			r.metrics.SamplesTotal.WithLabelValues("rejected").Inc()
			continue
		}
		r.metrics.SamplesTotal.WithLabelValues("accepted").Inc()
		accepted = append(accepted, sample)
	}
	r.mu.Unlock()

	for _, sink := range r.sinks {
		for _, sample := range accepted {
			sink.Consume(sample, now)
		}
	}
}

// TickStaleness resets the display of every participant without fresh telemetry.
func (r *Roster) TickStaleness(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if r.participants[id].CheckStale(now) {
			r.metrics.StaleResetsTotal.Inc()
			r.log.Debug("Telemetry stale, display reset", "participant", id)
		}
	}
}

// Snapshot copies every participant, in roster order.
func (r *Roster) Snapshot() []domain.ParticipantView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	views := make([]domain.ParticipantView, 0, len(r.order))
	for _, id := range r.order {
		views = append(views, r.participants[id].View())
	}
	return views
}

func (r *Roster) Get(id domain.ParticipantID) (domain.ParticipantView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[id]
	if !ok {
		return domain.ParticipantView{}, false
	}
	return p.View(), true
}

func (r *Roster) IDs() []domain.ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.ParticipantID(nil), r.order...)
}
