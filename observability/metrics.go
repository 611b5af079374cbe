package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "teamview"

// Metrics groups the prometheus collectors of the team view.
type Metrics struct {
	PollsTotal          prometheus.Counter
	PollErrorsTotal     prometheus.Counter
	PollsSkippedTotal   prometheus.Counter
	SamplesTotal        *prometheus.CounterVec
	UnknownSamplesTotal prometheus.Counter
	StaleResetsTotal    prometheus.Counter
	ProfilesTotal       *prometheus.CounterVec
	RegistrationsTotal  *prometheus.CounterVec
	RecordedSamples     prometheus.Counter
	DroppedRecords      prometheus.Counter
	Participants        prometheus.Gauge
}

// NewMetrics builds the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Telemetry requests issued to the watch service",
		}),
		PollErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Telemetry requests that failed",
		}),
		PollsSkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_skipped_total",
			Help:      "Telemetry ticks skipped because a request was still in flight",
		}),
		SamplesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Telemetry samples dispatched, by outcome",
		}, []string{"outcome"}),
		UnknownSamplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_participant_samples_total",
			Help:      "Samples referencing a participant outside the roster",
		}),
		StaleResetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_resets_total",
			Help:      "Display resets caused by missing telemetry",
		}),
		ProfilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_resolutions_total",
			Help:      "Profile resolutions, by outcome",
		}, []string{"outcome"}),
		RegistrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Watch registrations, by outcome",
		}, []string{"outcome"}),
		RecordedSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorded_samples_total",
			Help:      "Accepted samples written to the recording database",
		}),
		DroppedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_records_total",
			Help:      "Accepted samples dropped because the recorder buffer was full",
		}),
		Participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Participants in the roster",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.PollsTotal, m.PollErrorsTotal, m.PollsSkippedTotal, m.SamplesTotal,
			m.UnknownSamplesTotal, m.StaleResetsTotal, m.ProfilesTotal, m.RegistrationsTotal,
			m.RecordedSamples, m.DroppedRecords, m.Participants,
		)
	}
	return m
}
