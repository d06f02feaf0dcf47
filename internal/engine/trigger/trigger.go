// Package trigger decides whether an event starts a workflow run.
package trigger

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/zerr"
)

// Parse parses a five-field cron expression.
func Parse(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidCron.Error()), "cron", expr)
	}
	return sched, nil
}

// Validate checks that every schedule of the triggers parses.
func Validate(t domain.Triggers) error {
	if !t.Any() {
		return domain.ErrNoTriggers
	}
	for _, expr := range t.Schedules {
		if _, err := Parse(expr); err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether the triggers activate on ev. A schedule event
// activates when one of the cron expressions fires at the minute containing ev.At.
func Matches(t domain.Triggers, ev domain.Event) (bool, error) {
	switch ev.Kind {
	case domain.EventPush:
		return t.Push, nil
	case domain.EventPullRequest:
		return t.PullRequest, nil
	case domain.EventSchedule:
		minute := ev.At.Truncate(time.Minute)
		for _, expr := range t.Schedules {
			sched, err := Parse(expr)
			if err != nil {
				return false, err
			}
			if sched.Next(minute.Add(-time.Second)).Equal(minute) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, zerr.With(domain.ErrUnknownEvent, "event", string(ev.Kind))
	}
}

// Next returns the earliest time after from at which any schedule fires.
// It returns the zero time when there are no schedules.
func Next(t domain.Triggers, from time.Time) (time.Time, error) {
	var next time.Time
	for _, expr := range t.Schedules {
		sched, err := Parse(expr)
		if err != nil {
			return time.Time{}, err
		}
		at := sched.Next(from)
		if next.IsZero() || at.Before(next) {
			next = at
		}
	}
	return next, nil
}
