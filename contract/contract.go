//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"zwift-team-view/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ProfileSource fetches profiles from the third-party site.
type ProfileSource interface {
	FetchProfile(ctx context.Context, id domain.ParticipantID) (domain.RemoteProfile, error)
	FetchAvatar(ctx context.Context, url string) ([]byte, error)
}

// ProfileCache persists resolved profiles and avatar images across restarts.
type ProfileCache interface {
	Load(id domain.ParticipantID) (domain.Profile, bool, error)
	Save(profile domain.Profile) error
	HasAvatar(name string) bool
	AvatarPath(name string) string
	SaveAvatar(name string, data []byte) (string, error)
}

type ProfileResolver interface {
	Lookup(id domain.ParticipantID) (domain.Profile, bool, error)
	Resolve(ctx context.Context, id domain.ParticipantID) (domain.Profile, error)
}

// WatchClient talks to the local watch/telemetry service.
type WatchClient interface {
	Add(ctx context.Context, id domain.ParticipantID) error
	Poll(ctx context.Context) ([]domain.TelemetrySample, error)
}

// SampleSink receives every accepted sample. Consume must not block.
type SampleSink interface {
	Consume(sample domain.TelemetrySample, at time.Time)
}

type RosterReader interface {
	Snapshot() []domain.ParticipantView
}
