package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"zwift-team-view/domain"
)

type ISampleRepository interface {
	StoreSample(sample DiskSample) error
	GetSamples(session uuid.UUID, id domain.ParticipantID) ([]DiskSample, error)
}

// SampleRepository records accepted telemetry samples, one session per process run.
type SampleRepository struct {
	db           *badger.DB
	log          *slog.Logger
	limitSamples *int
}

func NewSampleRepository(db *badger.DB, log *slog.Logger, limitSamples *int) SampleRepository {
	return SampleRepository{db: db, log: log, limitSamples: limitSamples}
}

type DiskSample struct {
	Session              uuid.UUID `json:"session"`
	ParticipantID        string    `json:"participant_id"`
	WorldTime            int64     `json:"world_time"`
	Power                *int      `json:"power,omitempty"`
	HeartRate            *int      `json:"heart_rate,omitempty"`
	Cadence              *int      `json:"cadence,omitempty"`
	DistanceMeters       *float64  `json:"distance_meters,omitempty"`
	SpeedMetersPerSecond *float64  `json:"speed_mps,omitempty"`
	ElapsedSeconds       *int64    `json:"elapsed_seconds,omitempty"`
	At                   time.Time `json:"at"`
}

func NewDiskSample(session uuid.UUID, sample domain.TelemetrySample, at time.Time) DiskSample {
	return DiskSample{
		Session:              session,
		ParticipantID:        string(sample.ParticipantID),
		WorldTime:            sample.WorldTime,
		Power:                sample.Power,
		HeartRate:            sample.HeartRate,
		Cadence:              sample.Cadence,
		DistanceMeters:       sample.DistanceMeters,
		SpeedMetersPerSecond: sample.SpeedMetersPerSecond,
		ElapsedSeconds:       sample.ElapsedSeconds,
		At:                   at.UTC(),
	}
}

func samplePrefix(session uuid.UUID, id string) string {
	return fmt.Sprintf("sample:%s:%s:", session, id)
}

// StoreSample persists a sample in BadgerDB.
// The key is formatted as "sample:{session}:{participant}:{world_time_padded}" so a
// prefix scan returns a participant's samples in world time order. Samples sharing a
// world time overwrite each other, the last accepted one wins as on screen.
func (r SampleRepository) StoreSample(sample DiskSample) error {
	key := fmt.Sprintf("%s%019d", samplePrefix(sample.Session, sample.ParticipantID), sample.WorldTime)
	bytes, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetSamples returns the recorded samples of a participant, oldest first,
// stopping at the configured limit.
func (r SampleRepository) GetSamples(session uuid.UUID, id domain.ParticipantID) ([]DiskSample, error) {
	var raw [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(samplePrefix(session, string(id)))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if r.limitSamples != nil && len(raw) == *r.limitSamples {
				r.log.Debug(fmt.Sprintf("Maximum of %d samples reached", *r.limitSamples))
				break
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			raw = append(raw, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	samples := make([]DiskSample, 0, len(raw))
	for _, b := range raw {
		var sample DiskSample
		if err = json.Unmarshal(b, &sample); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, nil
}
