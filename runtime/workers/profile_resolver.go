package workers

import (
	"context"
	"log/slog"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
)

var _ contract.Worker = (*ProfileResolverWorker)(nil)

// ProfileResult is the completion of one profile resolution.
type ProfileResult struct {
	ID      domain.ParticipantID
	Profile domain.Profile
	Err     error
}

// ProfileResolverWorker resolves a single participant profile and reports the
// outcome on results. It runs once: failures are reported, never retried.
type ProfileResolverWorker struct {
	log      *slog.Logger
	id       domain.ParticipantID
	resolver contract.ProfileResolver
	results  chan<- ProfileResult
}

func NewProfileResolverWorker(log *slog.Logger, id domain.ParticipantID,
	resolver contract.ProfileResolver, results chan<- ProfileResult) *ProfileResolverWorker {
	return &ProfileResolverWorker{log: log, id: id, resolver: resolver, results: results}
}

func (w *ProfileResolverWorker) Run(ctx context.Context) error {
	profile, err := w.resolver.Resolve(ctx, w.id)
	if err != nil {
		w.log.Warn("Profile resolution failed, keeping placeholder", "participant", w.id, "error", err)
	}
	select {
	case w.results <- ProfileResult{ID: w.id, Profile: profile, Err: err}:
	case <-ctx.Done():
		w.log.Debug("Discarding profile result after shutdown", "participant", w.id)
	}
	return nil
}
