package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"zwift-team-view/domain"
	apperrors "zwift-team-view/errors"
	"zwift-team-view/mocks"
	"zwift-team-view/observability"
	"zwift-team-view/runtime/workers"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func sample101() domain.TelemetrySample {
	return domain.TelemetrySample{
		ParticipantID:        "101",
		WorldTime:            10,
		Power:                lo.ToPtr(200),
		HeartRate:            lo.ToPtr(150),
		Cadence:              lo.ToPtr(90),
		DistanceMeters:       lo.ToPtr(1000.0),
		SpeedMetersPerSecond: lo.ToPtr(10.0),
		ElapsedSeconds:       lo.ToPtr(int64(60)),
	}
}

// newLoadedRoster loads 101 and 102 with no cached profile, no profile site and a
// watch service accepting every registration.
func newLoadedRoster(t *testing.T, clock *fixedClock) (*Roster, *observability.Metrics) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockProfileResolver(ctrl)
	watch := mocks.NewMockWatchClient(ctrl)

	resolver.EXPECT().Lookup(gomock.Any()).Return(domain.Profile{}, false, nil).AnyTimes()
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).
		Return(domain.Profile{}, fmt.Errorf("%w: offline", apperrors.ErrProfileFetch)).AnyTimes()
	watch.EXPECT().Add(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	metrics := observability.NewMetrics(nil)
	roster := NewRoster(slog.Default(), resolver, watch, metrics, domain.ResetTimeout).WithClock(clock.Now)
	require.NoError(t, roster.Load(context.Background(), []domain.ParticipantID{"101", "102"}))
	roster.WaitPending()
	return roster, metrics
}

func TestRoster_Load_Keeps_Configuration_Order(t *testing.T) {
	req := require.New(t)
	roster, metrics := newLoadedRoster(t, &fixedClock{now: time.Now()})

	req.Equal([]domain.ParticipantID{"101", "102"}, roster.IDs())
	views := roster.Snapshot()
	req.Len(views, 2)
	req.Equal(domain.ParticipantID("101"), views[0].ID)
	req.Equal(domain.UnknownDisplay(), views[0].Display)
	req.Equal(domain.PlaceholderName, views[1].Profile.DisplayName)
	req.Equal(2.0, testutil.ToFloat64(metrics.Participants))
}

func TestRoster_Load_Rejects_Empty_And_Second_Load(t *testing.T) {
	req := require.New(t)
	roster, _ := newLoadedRoster(t, &fixedClock{now: time.Now()})

	req.ErrorIs(NewRoster(slog.Default(), nil, nil, observability.NewMetrics(nil), 0).
		Load(context.Background(), nil), apperrors.ErrEmptyRoster)
	req.Error(roster.Load(context.Background(), []domain.ParticipantID{"103"}))
	req.Len(roster.IDs(), 2)
}

func TestRoster_Load_Uses_Cache_And_Resolves_Misses(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	resolver := mocks.NewMockProfileResolver(ctrl)
	watch := mocks.NewMockWatchClient(ctrl)
	cached := domain.Profile{ID: "101", DisplayName: "Alice", AvatarPath: "cache/a.jpeg"}
	fetched := domain.Profile{ID: "102", DisplayName: "Bob", AvatarPath: "cache/b.jpeg"}

	// Given 101 is cached and 102 is not
	resolver.EXPECT().Lookup(domain.ParticipantID("101")).Return(cached, true, nil)
	resolver.EXPECT().Lookup(domain.ParticipantID("102")).Return(domain.Profile{}, false, nil)
	// Then only 102 goes through a full resolution
	resolver.EXPECT().Resolve(gomock.Any(), domain.ParticipantID("102")).Return(fetched, nil).Times(1)
	watch.EXPECT().Add(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	roster := NewRoster(slog.Default(), resolver, watch, observability.NewMetrics(nil), 0)
	req.NoError(roster.Load(context.Background(), []domain.ParticipantID{"101", "102"}))
	roster.WaitPending()

	// The cached profile is applied during load
	view, ok := roster.Get("101")
	req.True(ok)
	req.True(view.ProfileReady)
	req.Equal("Alice", view.Profile.DisplayName)

	// The fetched one arrives through the results channel
	view, _ = roster.Get("102")
	req.False(view.ProfileReady)
	roster.ApplyProfile(<-roster.ProfileResults())
	view, _ = roster.Get("102")
	req.True(view.ProfileReady)
	req.Equal("Bob", view.Profile.DisplayName)
}

func TestRoster_Load_Survives_Registration_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	resolver := mocks.NewMockProfileResolver(ctrl)
	watch := mocks.NewMockWatchClient(ctrl)

	resolver.EXPECT().Lookup(gomock.Any()).Return(domain.Profile{ID: "x", DisplayName: "X"}, true, nil).AnyTimes()
	watch.EXPECT().Add(gomock.Any(), domain.ParticipantID("101")).
		Return(fmt.Errorf("%w: connection refused", apperrors.ErrRegistration))
	watch.EXPECT().Add(gomock.Any(), domain.ParticipantID("102")).Return(nil)

	metrics := observability.NewMetrics(nil)
	roster := NewRoster(slog.Default(), resolver, watch, metrics, 0)
	req.NoError(roster.Load(context.Background(), []domain.ParticipantID{"101", "102"}))
	roster.WaitPending()

	req.Len(roster.IDs(), 2)
	req.Equal(1.0, testutil.ToFloat64(metrics.RegistrationsTotal.WithLabelValues("failed")))
	req.Equal(1.0, testutil.ToFloat64(metrics.RegistrationsTotal.WithLabelValues("ok")))
}

func TestRoster_Dispatch_Updates_Only_Target(t *testing.T) {
	req := require.New(t)
	roster, _ := newLoadedRoster(t, &fixedClock{now: time.Now()})

	// When a batch for 101 is dispatched
	roster.Dispatch([]domain.TelemetrySample{sample101()})

	// Then 101 is updated
	view, _ := roster.Get("101")
	req.Equal(domain.DisplayState{
		Power: "200", HeartRate: "150", Cadence: "90", Distance: "1.0", Speed: "36.0", Time: "00:01:00",
	}, view.Display)

	// And 102 keeps its initial values
	view, _ = roster.Get("102")
	req.Equal(domain.UnknownDisplay(), view.Display)
}

func TestRoster_Dispatch_Skips_Unknown_Participant(t *testing.T) {
	req := require.New(t)
	roster, metrics := newLoadedRoster(t, &fixedClock{now: time.Now()})
	before := roster.Snapshot()

	unknown := sample101()
	unknown.ParticipantID = "999"
	req.NotPanics(func() { roster.Dispatch([]domain.TelemetrySample{unknown}) })

	req.Equal(before, roster.Snapshot())
	req.Equal(1.0, testutil.ToFloat64(metrics.UnknownSamplesTotal))
}

func TestRoster_Dispatch_Follows_World_Time(t *testing.T) {
	req := require.New(t)
	roster, metrics := newLoadedRoster(t, &fixedClock{now: time.Now()})

	newer := sample101()
	newer.WorldTime = 100
	older := sample101()
	older.WorldTime = 50
	older.Power = lo.ToPtr(999)
	equal := sample101()
	equal.WorldTime = 100
	equal.Power = lo.ToPtr(321)

	// Within a single batch, batch order applies
	roster.Dispatch([]domain.TelemetrySample{newer, older})
	view, _ := roster.Get("101")
	req.Equal("200", view.Display.Power)

	// An equal world time is accepted
	roster.Dispatch([]domain.TelemetrySample{equal})
	view, _ = roster.Get("101")
	req.Equal("321", view.Display.Power)

	req.Equal(2.0, testutil.ToFloat64(metrics.SamplesTotal.WithLabelValues("accepted")))
	req.Equal(1.0, testutil.ToFloat64(metrics.SamplesTotal.WithLabelValues("rejected")))
}

func TestRoster_Dispatch_Feeds_Sinks_With_Accepted_Samples(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	clock := &fixedClock{now: time.Now()}
	roster, _ := newLoadedRoster(t, clock)
	sink := mocks.NewMockSampleSink(ctrl)
	roster.AddSinks(sink)

	accepted := sample101()
	rejected := sample101()
	rejected.WorldTime = 1
	unknown := sample101()
	unknown.ParticipantID = "999"

	sink.EXPECT().Consume(accepted, clock.now).Times(1)

	roster.Dispatch([]domain.TelemetrySample{accepted, rejected, unknown})
	req.Len(roster.IDs(), 2)
}

func TestRoster_TickStaleness(t *testing.T) {
	req := require.New(t)
	start := time.Now()
	clock := &fixedClock{now: start}
	roster, metrics := newLoadedRoster(t, clock)
	roster.ApplyProfile(workers.ProfileResult{ID: "101", Profile: domain.Profile{DisplayName: "Alice"}})

	// Given 101 received telemetry 1s after start
	clock.now = start.Add(time.Second)
	roster.Dispatch([]domain.TelemetrySample{sample101()})

	// When 5s elapsed since start but only 4s since 101's update
	roster.TickStaleness(start.Add(5 * time.Second))

	// Then only 102 is reset
	req.Equal(1.0, testutil.ToFloat64(metrics.StaleResetsTotal))
	view, _ := roster.Get("101")
	req.Equal("200", view.Display.Power)

	// When 101 also goes quiet for 5s
	roster.TickStaleness(start.Add(6 * time.Second))

	// Then its metrics are reset and its profile kept
	view, _ = roster.Get("101")
	req.Equal(domain.UnknownDisplay(), view.Display)
	req.Equal("Alice", view.Profile.DisplayName)
}

func TestRoster_ApplyProfile_Ignores_Failures(t *testing.T) {
	req := require.New(t)
	roster, _ := newLoadedRoster(t, &fixedClock{now: time.Now()})

	roster.ApplyProfile(workers.ProfileResult{ID: "101", Err: apperrors.ErrProfileFetch})
	roster.ApplyProfile(workers.ProfileResult{ID: "999", Profile: domain.Profile{DisplayName: "Ghost"}})

	view, _ := roster.Get("101")
	req.False(view.ProfileReady)
	req.Equal(domain.PlaceholderName, view.Profile.DisplayName)
	_, ok := roster.Get("999")
	req.False(ok)
}
