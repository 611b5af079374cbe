package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"

	"zwift-team-view/domain"
	"zwift-team-view/infrastructure/watch"
)

type BaseWatchSuite struct {
	suite.Suite
	Config Config
	Log    *slog.Logger
}

// SetupSuite loads the environment configuration and skips when no watch service is available
func (s *BaseWatchSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.WatchAddr == "" {
		s.T().Skip("WATCH_ADDR not set, skipping end-to-end scenarios")
	}
	s.Log = logs.GetLoggerFromString("DEBUG")
}

func (s *BaseWatchSuite) ParticipantIDs() []domain.ParticipantID {
	ids := make([]domain.ParticipantID, 0, len(s.Config.Participants))
	for _, id := range s.Config.Participants {
		ids = append(ids, domain.ParticipantID(id))
	}
	return ids
}

// WithWatch provides a watch client within a contextual test step
func (s *BaseWatchSuite) WithWatch(name string, fn func(ctx context.Context, client *watch.Client)) {
	t := s.T()
	s.header(t, name)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client := watch.NewClient(&http.Client{Timeout: 5 * time.Second}, s.Config.WatchAddr, s.Log)
	fn(ctx, client)
}

// DumpBatch logs a telemetry batch when E2E_DEBUG_JSON is enabled
func (s *BaseWatchSuite) DumpBatch(batch []domain.TelemetrySample) {
	if !s.Config.DebugJSON {
		return
	}
	body, err := json.MarshalIndent(batch, "", "  ")
	s.Require().NoError(err)
	s.T().Log(fmt.Sprintf("BATCH (%d samples):\n%s", len(batch), body))
}

func (s *BaseWatchSuite) header(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}
