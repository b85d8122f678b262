package worklog

import (
	"fmt"
	"time"
)

// Wire formats. InputLayout is what the UI sends, StartedLayout is what the
// Jira worklog endpoint expects in its "started" field.
const (
	InputLayout   = "15:04 02-01-2006"
	StartedLayout = "2006-01-02T15:04:05.000-0700"
)

// Moment is a structured start time for a work log. The zero Moment means
// "submission time"; it is resolved by the caller so that all entries of a
// bulk batch share one timestamp.
type Moment struct {
	t time.Time
}

// ParseMoment parses the canonical "HH:mm dd-MM-yyyy" input form. An empty
// string yields the zero Moment.
func ParseMoment(s string) (Moment, error) {
	if s == "" {
		return Moment{}, nil
	}
	t, err := time.ParseInLocation(InputLayout, s, time.Local)
	if err != nil {
		return Moment{}, fmt.Errorf("invalid date format %q: expected HH:MM DD-MM-YYYY", s)
	}
	return Moment{t: t}, nil
}

// MomentAt wraps an explicit time.
func MomentAt(t time.Time) Moment {
	return Moment{t: t}
}

// IsZero reports whether the moment was left unspecified.
func (m Moment) IsZero() bool {
	return m.t.IsZero()
}

// Or returns m unless it is zero, in which case it returns a Moment at def.
func (m Moment) Or(def time.Time) Moment {
	if m.IsZero() {
		return Moment{t: def}
	}
	return m
}

// Started serializes the moment to the Jira worklog "started" format.
func (m Moment) Started() string {
	return m.t.Format(StartedLayout)
}

// Time returns the underlying time.
func (m Moment) Time() time.Time {
	return m.t
}
