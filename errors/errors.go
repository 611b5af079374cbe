package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrProfileFetch       = fmt.Errorf("profile fetch failed")
	ErrProfileParse       = fmt.Errorf("profile page could not be parsed")
	ErrRegistration       = fmt.Errorf("watch registration failed")
	ErrTelemetryPoll      = fmt.Errorf("telemetry poll failed")
	ErrUnknownParticipant = fmt.Errorf("unknown participant")
	ErrEmptyRoster        = fmt.Errorf("roster has no participants")
)
