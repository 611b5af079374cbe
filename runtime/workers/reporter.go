package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
)

// ReporterWorker periodically logs how many riders are live and how many
// profiles have been resolved.
type ReporterWorker struct {
	log      *slog.Logger
	roster   contract.RosterReader
	interval time.Duration
}

func NewReporterWorker(log *slog.Logger, roster contract.RosterReader, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{log: log, roster: roster, interval: interval}
}

type RosterStats struct {
	Riders   int
	Live     int
	Profiles int
}

// Run starts the reporting loop until context cancellation
func (w *ReporterWorker) Run(ctx context.Context) error {
	startTime := time.Now()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.printStats(startTime)
			return ctx.Err()
		case <-ticker.C:
			w.printStats(startTime)
		}
	}
}

func (w *ReporterWorker) printStats(startTime time.Time) {
	stats := Stats(w.roster.Snapshot())
	w.log.Info("📊 Roster status",
		"uptime", time.Since(startTime).Round(time.Second).String(),
		"riders", stats.Riders,
		"live", stats.Live,
		"profiles", stats.Profiles,
	)
}

// Stats counts live riders, those showing at least one metric, and resolved profiles.
func Stats(views []domain.ParticipantView) RosterStats {
	return RosterStats{
		Riders: len(views),
		Live: lo.CountBy(views, func(v domain.ParticipantView) bool {
			return v.Display != domain.UnknownDisplay()
		}),
		Profiles: lo.CountBy(views, func(v domain.ParticipantView) bool {
			return v.ProfileReady
		}),
	}
}
