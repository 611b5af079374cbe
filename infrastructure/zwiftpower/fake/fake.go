// Package fake provides a canned ProfileSource that never touches the network.
package fake

import (
	"context"
	"fmt"
	"sync"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
	apperrors "zwift-team-view/errors"
)

var _ contract.ProfileSource = (*Source)(nil)

type Source struct {
	mu       sync.Mutex
	profiles map[domain.ParticipantID]domain.RemoteProfile
	avatars  map[string][]byte
	calls    int
}

func NewSource() *Source {
	return &Source{
		profiles: make(map[domain.ParticipantID]domain.RemoteProfile),
		avatars:  make(map[string][]byte),
	}
}

// WithProfile registers a profile and its avatar bytes.
func (s *Source) WithProfile(id domain.ParticipantID, name, avatarURL string, avatar []byte) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[id] = domain.RemoteProfile{DisplayName: name, AvatarURL: avatarURL}
	s.avatars[avatarURL] = avatar
	return s
}

// Calls counts every fetch, page or avatar.
func (s *Source) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Source) FetchProfile(_ context.Context, id domain.ParticipantID) (domain.RemoteProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	profile, ok := s.profiles[id]
	if !ok {
		return domain.RemoteProfile{}, fmt.Errorf("%w: no canned profile for %s", apperrors.ErrProfileFetch, id)
	}
	return profile, nil
}

func (s *Source) FetchAvatar(_ context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	avatar, ok := s.avatars[url]
	if !ok {
		return nil, fmt.Errorf("%w: no canned avatar at %s", apperrors.ErrProfileFetch, url)
	}
	return avatar, nil
}
