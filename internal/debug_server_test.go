package internal

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"zwift-team-view/domain"
	"zwift-team-view/mocks"
	"zwift-team-view/observability"
	"zwift-team-view/repositories"
)

type stubSampleRepository struct {
	samples []repositories.DiskSample
	err     error
}

func (s stubSampleRepository) StoreSample(repositories.DiskSample) error { return nil }

func (s stubSampleRepository) GetSamples(uuid.UUID, domain.ParticipantID) ([]repositories.DiskSample, error) {
	return s.samples, s.err
}

func newTestDebugServer(t *testing.T, samples repositories.ISampleRepository) (*DebugServer, *observability.Metrics) {
	ctrl := gomock.NewController(t)
	roster := mocks.NewMockRosterReader(ctrl)
	view := domain.ParticipantView{
		ID:           "101",
		Profile:      domain.Profile{ID: "101", DisplayName: "Alice", AvatarPath: "cache/alice.jpeg"},
		ProfileReady: true,
		Display:      domain.UnknownDisplay(),
		LastUpdated:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	view.Display.Power = "250"
	roster.EXPECT().Snapshot().Return([]domain.ParticipantView{view}).AnyTimes()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	return NewDebugServer(slog.Default(), 0, roster, registry, samples, uuid.New()), metrics
}

func TestDebugServer_Roster(t *testing.T) {
	req := require.New(t)
	server, _ := newTestDebugServer(t, nil)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roster", nil))

	req.Equal(http.StatusOK, rec.Code)
	var body []participantResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Len(body, 1)
	req.Equal("Alice", body[0].Name)
	req.Equal("250", body[0].Metrics["power"])
	req.Equal(domain.Unknown, body[0].Metrics["speed"])
	req.Equal("2024-05-01T10:00:00Z", body[0].LastUpdated)
}

func TestDebugServer_Metrics_And_Health(t *testing.T) {
	req := require.New(t)
	server, metrics := newTestDebugServer(t, nil)
	metrics.PollsTotal.Add(3)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), "teamview_polls_total 3")

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func TestDebugServer_Samples(t *testing.T) {
	req := require.New(t)

	// Recording disabled
	server, _ := newTestDebugServer(t, nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/samples/101", nil))
	req.Equal(http.StatusNotFound, rec.Code)

	// Recording enabled
	server, _ = newTestDebugServer(t, stubSampleRepository{samples: []repositories.DiskSample{
		{ParticipantID: "101", WorldTime: 10, Power: lo.ToPtr(250)},
	}})
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/samples/101", nil))
	req.Equal(http.StatusOK, rec.Code)
	var body []repositories.DiskSample
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Len(body, 1)
	req.Equal(int64(10), body[0].WorldTime)

	// Storage failure
	server, _ = newTestDebugServer(t, stubSampleRepository{err: errors.New("badger closed")})
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/samples/101", nil))
	req.Equal(http.StatusInternalServerError, rec.Code)
}
