package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
	"zwift-team-view/observability"
	"zwift-team-view/repositories"
)

var (
	_ contract.Worker     = (*RecorderWorker)(nil)
	_ contract.SampleSink = (*RecorderWorker)(nil)
)

type recordedSample struct {
	sample domain.TelemetrySample
	at     time.Time
}

// RecorderWorker writes accepted samples to the sample repository off the
// scheduler goroutine. Consume drops samples when the buffer is full.
type RecorderWorker struct {
	log        *slog.Logger
	session    uuid.UUID
	repository repositories.ISampleRepository
	samples    chan recordedSample
	metrics    *observability.Metrics
}

func NewRecorderWorker(log *slog.Logger, session uuid.UUID, repository repositories.ISampleRepository,
	bufferSize int, metrics *observability.Metrics) *RecorderWorker {
	return &RecorderWorker{
		log:        log,
		session:    session,
		repository: repository,
		samples:    make(chan recordedSample, bufferSize),
		metrics:    metrics,
	}
}

func (w *RecorderWorker) Session() uuid.UUID {
	return w.session
}

func (w *RecorderWorker) Consume(sample domain.TelemetrySample, at time.Time) {
	select {
	case w.samples <- recordedSample{sample: sample, at: at}:
	default:
		w.metrics.DroppedRecords.Inc()
		w.log.Warn("Recorder buffer full, dropping sample", "participant", sample.ParticipantID)
	}
}

func (w *RecorderWorker) Run(ctx context.Context) error {
	w.log.Info("Starting sample recorder", "session", w.session)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-w.samples:
			if err := w.repository.StoreSample(repositories.NewDiskSample(w.session, s.sample, s.at)); err != nil {
				w.log.Error("Failed to record sample", "participant", s.sample.ParticipantID, "error", err)
				continue
			}
			w.metrics.RecordedSamples.Inc()
		}
	}
}
