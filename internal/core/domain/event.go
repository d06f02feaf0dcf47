package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// EventKind identifies what caused a run.
type EventKind string

const (
	// EventSchedule is fired by a cron schedule.
	EventSchedule EventKind = "schedule"
	// EventPush is fired by a code push (or a local file change in watch mode).
	EventPush EventKind = "push"
	// EventPullRequest is fired by a pull request.
	EventPullRequest EventKind = "pull_request"
)

// ParseEventKind validates an event name given on the command line.
func ParseEventKind(s string) (EventKind, error) {
	switch EventKind(s) {
	case EventSchedule, EventPush, EventPullRequest:
		return EventKind(s), nil
	default:
		return "", zerr.With(ErrUnknownEvent, "event", s)
	}
}

// Event is a single trigger occurrence.
type Event struct {
	Kind EventKind
	At   time.Time
}
