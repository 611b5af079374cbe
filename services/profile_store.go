package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
	apperrors "zwift-team-view/errors"
	"zwift-team-view/observability"
	"zwift-team-view/storage"
)

var _ contract.ProfileResolver = (*ProfileStore)(nil)

// ProfileStore resolves display profiles from the local cache first and falls back
// to the profile site. A successful network resolution is written back to the cache,
// so a profile is fetched at most once across restarts.
type ProfileStore struct {
	log     *slog.Logger
	cache   contract.ProfileCache
	source  contract.ProfileSource
	metrics *observability.Metrics
}

func NewProfileStore(log *slog.Logger, cache contract.ProfileCache, source contract.ProfileSource,
	metrics *observability.Metrics) *ProfileStore {
	return &ProfileStore{log: log, cache: cache, source: source, metrics: metrics}
}

// Lookup only consults the cache.
func (s *ProfileStore) Lookup(id domain.ParticipantID) (domain.Profile, bool, error) {
	profile, ok, err := s.cache.Load(id)
	if err != nil || !ok {
		return domain.Profile{}, false, err
	}
	s.metrics.ProfilesTotal.WithLabelValues("cache_hit").Inc()
	return profile, true, nil
}

// Resolve returns the cached profile or fetches, downloads the avatar when it is
// not cached yet, and persists the record. Nothing is written when a fetch fails,
// so the next resolution retries the network.
func (s *ProfileStore) Resolve(ctx context.Context, id domain.ParticipantID) (domain.Profile, error) {
	profile, ok, err := s.Lookup(id)
	if err != nil {
		s.log.Warn("Ignoring unreadable profile cache record", "participant", id, "error", err)
	}
	if ok {
		return profile, nil
	}

	remote, err := s.source.FetchProfile(ctx, id)
	if err != nil {
		s.countFailure(err)
		return domain.Profile{}, err
	}

	avatarName := storage.AvatarFileName(remote.AvatarURL)
	avatarPath := s.cache.AvatarPath(avatarName)
	if !s.cache.HasAvatar(avatarName) {
		data, err := s.source.FetchAvatar(ctx, remote.AvatarURL)
		if err != nil {
			s.countFailure(err)
			return domain.Profile{}, err
		}
		if avatarPath, err = s.cache.SaveAvatar(avatarName, data); err != nil {
			s.metrics.ProfilesTotal.WithLabelValues("cache_error").Inc()
			return domain.Profile{}, fmt.Errorf("caching avatar of %s: %w", id, err)
		}
	}

	profile = domain.Profile{ID: id, DisplayName: remote.DisplayName, AvatarPath: avatarPath}
	if err = s.cache.Save(profile); err != nil {
		// The profile is still usable for this session.
		s.log.Warn("Failed to cache profile", "participant", id, "error", err)
	}
	s.metrics.ProfilesTotal.WithLabelValues("fetched").Inc()
	s.log.Info("Profile resolved", "participant", id, "name", profile.DisplayName)
	return profile, nil
}

func (s *ProfileStore) countFailure(err error) {
	switch {
	case errors.Is(err, apperrors.ErrProfileParse):
		s.metrics.ProfilesTotal.WithLabelValues("parse_error").Inc()
	default:
		s.metrics.ProfilesTotal.WithLabelValues("fetch_error").Inc()
	}
}
