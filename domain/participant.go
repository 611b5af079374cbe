// Package domain contains core concepts of the team view.
// This file defines the Participant aggregate and its ordering and staleness rules.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"strconv"
	"time"
)

// ResetTimeout is how long a participant may go without an accepted sample
// before its metrics are cleared.
const ResetTimeout = 5 * time.Second

// Unknown is shown for every metric that has no fresh value.
const Unknown = "---"

// DisplayState holds the rendered metric values.
type DisplayState struct {
	Power     string
	HeartRate string
	Cadence   string
	Distance  string
	Speed     string
	Time      string
}

func UnknownDisplay() DisplayState {
	return DisplayState{
		Power:     Unknown,
		HeartRate: Unknown,
		Cadence:   Unknown,
		Distance:  Unknown,
		Speed:     Unknown,
		Time:      Unknown,
	}
}

// Participant is owned by the roster. It is not safe for concurrent use.
type Participant struct {
	ID           ParticipantID
	Profile      Profile
	ProfileReady bool
	Display      DisplayState

	lastWorldTime int64
	lastUpdatedAt time.Time
	resetTimeout  time.Duration
}

func NewParticipant(id ParticipantID, now time.Time) *Participant {
	return &Participant{
		ID:            id,
		Profile:       PlaceholderProfile(id),
		Display:       UnknownDisplay(),
		lastUpdatedAt: now,
		resetTimeout:  ResetTimeout,
	}
}

// WithResetTimeout overrides the staleness threshold.
func (p *Participant) WithResetTimeout(timeout time.Duration) *Participant {
	p.resetTimeout = timeout
	return p
}

func (p *Participant) LastWorldTime() int64 {
	return p.lastWorldTime
}

func (p *Participant) LastUpdatedAt() time.Time {
	return p.lastUpdatedAt
}

// ApplyUpdate accepts the sample iff its world time is not older than the last accepted one.
// Rejected samples leave the participant untouched. It reports whether the sample was accepted.
func (p *Participant) ApplyUpdate(sample TelemetrySample, now time.Time) bool {
	if sample.WorldTime < p.lastWorldTime {
		return false
	}
	p.lastWorldTime = sample.WorldTime
	p.lastUpdatedAt = now

	if sample.Power != nil {
		p.Display.Power = strconv.Itoa(*sample.Power)
	}
	if sample.HeartRate != nil {
		p.Display.HeartRate = strconv.Itoa(*sample.HeartRate)
	}
	if sample.Cadence != nil {
		p.Display.Cadence = strconv.Itoa(*sample.Cadence)
	}
	if sample.DistanceMeters != nil {
		p.Display.Distance = FormatDistance(*sample.DistanceMeters)
	}
	if sample.SpeedMetersPerSecond != nil {
		p.Display.Speed = FormatSpeed(*sample.SpeedMetersPerSecond)
	}
	if sample.ElapsedSeconds != nil {
		p.Display.Time = FormatElapsed(*sample.ElapsedSeconds)
	}
	return true
}

// CheckStale clears every metric once the reset timeout has elapsed since the last
// accepted sample. The clock is refreshed so the reset is not repeated on every check.
// Profile fields are never touched. It reports whether a reset happened.
func (p *Participant) CheckStale(now time.Time) bool {
	if now.Sub(p.lastUpdatedAt) < p.resetTimeout {
		return false
	}
	p.lastUpdatedAt = now
	p.Display = UnknownDisplay()
	return true
}

// ApplyProfile stores the resolved profile. Later calls are ignored.
func (p *Participant) ApplyProfile(profile Profile) bool {
	if p.ProfileReady {
		return false
	}
	profile.ID = p.ID
	p.Profile = profile
	p.ProfileReady = true
	return true
}

// ParticipantView is a copy of a participant's visible fields, safe to hand to renderers.
type ParticipantView struct {
	ID           ParticipantID
	Profile      Profile
	ProfileReady bool
	Display      DisplayState
	LastUpdated  time.Time
}

func (p *Participant) View() ParticipantView {
	return ParticipantView{
		ID:           p.ID,
		Profile:      p.Profile,
		ProfileReady: p.ProfileReady,
		Display:      p.Display,
		LastUpdated:  p.lastUpdatedAt,
	}
}
