package workers

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"zwift-team-view/domain"
	apperrors "zwift-team-view/errors"
	"zwift-team-view/mocks"
)

func TestProfileResolverWorker_Reports_Profile(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockProfileResolver(ctrl)
	profile := domain.Profile{ID: "101", DisplayName: "Alice", AvatarPath: "cache/a.jpeg"}
	resolver.EXPECT().Resolve(gomock.Any(), domain.ParticipantID("101")).Return(profile, nil).Times(1)

	results := make(chan ProfileResult, 1)
	worker := NewProfileResolverWorker(slog.Default(), "101", resolver, results)

	req.NoError(worker.Run(context.Background()))
	req.Equal(ProfileResult{ID: "101", Profile: profile}, <-results)
}

func TestProfileResolverWorker_Reports_Failure_Without_Error(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockProfileResolver(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).
		Return(domain.Profile{}, fmt.Errorf("%w: status 500", apperrors.ErrProfileFetch)).Times(1)

	results := make(chan ProfileResult, 1)
	worker := NewProfileResolverWorker(slog.Default(), "101", resolver, results)

	// A failed resolution finishes the worker so the supervisor never restarts it
	req.NoError(worker.Run(context.Background()))
	result := <-results
	req.ErrorIs(result.Err, apperrors.ErrProfileFetch)
}

func TestProfileResolverWorker_Discards_After_Shutdown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockProfileResolver(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(domain.Profile{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Given nobody reads results anymore
	results := make(chan ProfileResult)
	worker := NewProfileResolverWorker(slog.Default(), "101", resolver, results)

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("worker should not block once the context is done")
	}
}
