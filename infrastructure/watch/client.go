// Package watch is the HTTP client of the local watch service, which relays
// live telemetry for the riders it has been asked to watch.
package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
	apperrors "zwift-team-view/errors"
)

const (
	addPath   = "/watch/add"
	watchPath = "/watch"
)

var _ contract.WatchClient = (*Client)(nil)

type Client struct {
	http    *http.Client
	baseURL string
	log     *slog.Logger
}

func NewClient(httpClient *http.Client, baseURL string, log *slog.Logger) *Client {
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

type addRequest struct {
	ID participantID `json:"id"`
}

type batchResponse struct {
	Data []wireSample `json:"data"`
}

type wireSample struct {
	ID        participantID `json:"id"`
	WorldTime float64       `json:"world_time"`
	Power     *float64      `json:"power"`
	HeartRate *float64      `json:"heartrate"`
	Cadence   *float64      `json:"cadence"`
	Distance  *float64      `json:"distance"`
	Speed     *float64      `json:"speed"`
	Time      *float64      `json:"time"`
}

// Add registers interest in a participant.
func (c *Client) Add(ctx context.Context, id domain.ParticipantID) error {
	body, err := json.Marshal(addRequest{ID: participantID(id)})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRegistration, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+addPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRegistration, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: participant %s: %v", apperrors.ErrRegistration, id, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: participant %s: status %d", apperrors.ErrRegistration, id, resp.StatusCode)
	}
	return nil
}

// Poll fetches the current telemetry batch.
func (c *Client) Poll(ctx context.Context) ([]domain.TelemetrySample, error) {
	requestID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+watchPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTelemetryPoll, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTelemetryPoll, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", apperrors.ErrTelemetryPoll, resp.StatusCode)
	}

	var batch batchResponse
	if err = json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("%w: decoding batch: %v", apperrors.ErrTelemetryPoll, err)
	}
	c.log.Debug("Telemetry batch received", "request_id", requestID, "samples", len(batch.Data))
	return lo.Map(batch.Data, func(s wireSample, _ int) domain.TelemetrySample {
		return toSample(s)
	}), nil
}

func toSample(s wireSample) domain.TelemetrySample {
	return domain.TelemetrySample{
		ParticipantID:        domain.ParticipantID(s.ID),
		WorldTime:            int64(s.WorldTime),
		Power:                truncate[int](s.Power),
		HeartRate:            truncate[int](s.HeartRate),
		Cadence:              truncate[int](s.Cadence),
		DistanceMeters:       s.Distance,
		SpeedMetersPerSecond: s.Speed,
		ElapsedSeconds:       truncate[int64](s.Time),
	}
}

func truncate[T int | int64](v *float64) *T {
	if v == nil {
		return nil
	}
	return lo.ToPtr(T(*v))
}

// participantID accepts both JSON numbers and strings, and is written back as a
// number whenever it looks like one, which is what the watch service expects.
type participantID string

func (p *participantID) UnmarshalJSON(data []byte) error {
	var number json.Number
	if err := json.Unmarshal(data, &number); err == nil {
		*p = participantID(number.String())
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("participant id must be a number or a string, got %s", data)
	}
	*p = participantID(text)
	return nil
}

func (p participantID) MarshalJSON() ([]byte, error) {
	if json.Valid([]byte(p)) {
		var number json.Number
		if err := json.Unmarshal([]byte(p), &number); err == nil {
			return []byte(number.String()), nil
		}
	}
	return json.Marshal(string(p))
}
