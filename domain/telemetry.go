package domain

// TelemetrySample is one inbound update from the watch service.
// A nil metric means upstream did not send it, and the matching display field is left as is.
type TelemetrySample struct {
	ParticipantID        ParticipantID
	WorldTime            int64
	Power                *int
	HeartRate            *int
	Cadence              *int
	DistanceMeters       *float64
	SpeedMetersPerSecond *float64
	ElapsedSeconds       *int64
}
