package worklog

import (
	"fmt"
	"regexp"
	"strconv"
)

// Duration is a work-log duration in whole minutes.
type Duration int

var durationPattern = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?$`)

// ParseDuration parses the Jira time-spent grammar "<H>h<M>m". Either group
// may be omitted but at least one must be present; a bare number or any
// other form is rejected. time.ParseDuration is not used because it accepts
// forms ("1.5h", "90s", negatives) that the work-log grammar must reject.
func ParseDuration(s string) (Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, fmt.Errorf("invalid duration format %q: expected <H>h<M>m, e.g. 1h30m", s)
	}

	total := 0
	if m[1] != "" {
		hours, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration format %q: %w", s, err)
		}
		total += hours * 60
	}
	if m[2] != "" {
		mins, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, fmt.Errorf("invalid duration format %q: %w", s, err)
		}
		total += mins
	}

	return Duration(total), nil
}

// Minutes returns the total number of minutes.
func (d Duration) Minutes() int {
	return int(d)
}

// String renders the canonical form. Zero components are omitted except for
// the all-zero duration, which renders as "0m".
func (d Duration) String() string {
	h := int(d) / 60
	m := int(d) % 60

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// ValidateTimeSpent checks a raw time-spent string for submission: it must
// match the grammar and be greater than zero. Zero is syntactically valid
// but never a meaningful work log, so it is rejected before any remote call.
func ValidateTimeSpent(s string) (Duration, error) {
	d, err := ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("time spent must be greater than 0, got %q", s)
	}
	return d, nil
}
