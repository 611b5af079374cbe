package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
	"zwift-team-view/repositories"
)

var _ contract.Worker = (*DebugServer)(nil)

// DebugServer exposes the roster, the metrics and the recorded samples over HTTP.
type DebugServer struct {
	log     *slog.Logger
	port    int
	router  chi.Router
	roster  contract.RosterReader
	samples repositories.ISampleRepository
	session uuid.UUID
}

// NewDebugServer builds the router. samples may be nil when recording is disabled.
func NewDebugServer(log *slog.Logger, port int, roster contract.RosterReader, gatherer prometheus.Gatherer,
	samples repositories.ISampleRepository, session uuid.UUID) *DebugServer {
	s := &DebugServer{
		log:     log,
		port:    port,
		router:  chi.NewRouter(),
		roster:  roster,
		samples: samples,
		session: session,
	}
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/roster", s.handleRoster)
	s.router.Get("/samples/{participant}", s.handleSamples)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return s
}

func (s *DebugServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves until ctx is cancelled.
func (s *DebugServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Debug server available", "url", fmt.Sprintf("http://localhost:%d/roster", s.port))
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("debug server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

type participantResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Avatar       string            `json:"avatar"`
	ProfileReady bool              `json:"profile_ready"`
	Metrics      map[string]string `json:"metrics"`
	LastUpdated  string            `json:"last_updated"`
}

func toParticipantResponse(view domain.ParticipantView, _ int) participantResponse {
	return participantResponse{
		ID:           string(view.ID),
		Name:         view.Profile.DisplayName,
		Avatar:       view.Profile.AvatarPath,
		ProfileReady: view.ProfileReady,
		Metrics: map[string]string{
			"power":     view.Display.Power,
			"heartrate": view.Display.HeartRate,
			"cadence":   view.Display.Cadence,
			"distance":  view.Display.Distance,
			"speed":     view.Display.Speed,
			"time":      view.Display.Time,
		},
		LastUpdated: view.LastUpdated.UTC().Format(time.RFC3339Nano),
	}
}

func (s *DebugServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *DebugServer) handleRoster(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, lo.Map(s.roster.Snapshot(), toParticipantResponse))
}

func (s *DebugServer) handleSamples(w http.ResponseWriter, r *http.Request) {
	if s.samples == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "sample recording disabled"})
		return
	}
	id := domain.ParticipantID(chi.URLParam(r, "participant"))
	samples, err := s.samples.GetSamples(s.session, id)
	if err != nil {
		s.log.Warn("Reading recorded samples failed", "participant", id, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read samples"})
		return
	}
	s.writeJSON(w, http.StatusOK, samples)
}

func (s *DebugServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Debug("Writing debug response failed", "error", err)
	}
}
