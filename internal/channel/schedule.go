package channel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedSchedule marks a scheduled time that is not a valid "HH:MM".
var ErrMalformedSchedule = errors.New("malformed schedule value")

// DefaultSchedule is the delivery time used when none is configured.
var DefaultSchedule = Schedule{Hour: 8, Minute: 0}

// Schedule is a daily wall-clock delivery time in the canonical timezone.
type Schedule struct {
	Hour   int
	Minute int
}

func (s Schedule) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// MinuteOfDay returns minutes since midnight.
func (s Schedule) MinuteOfDay() int {
	return s.Hour*60 + s.Minute
}

// Matches reports whether t (already in the canonical timezone) falls in
// the scheduled minute.
func (s Schedule) Matches(t time.Time) bool {
	return t.Hour() == s.Hour && t.Minute() == s.Minute
}

// Reached reports whether t is at or after the scheduled minute of its day.
func (s Schedule) Reached(t time.Time) bool {
	return t.Hour()*60+t.Minute() >= s.MinuteOfDay()
}

// ParseSchedule parses a strict "HH:MM" (hour 0-23, minute 0-59).
// A single-digit hour such as "8:30" is accepted.
func ParseSchedule(raw string) (Schedule, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 || len(parts[1]) != 2 || parts[0] == "" || len(parts[0]) > 2 {
		return Schedule{}, fmt.Errorf("%w: %q", ErrMalformedSchedule, raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return Schedule{}, fmt.Errorf("%w: %q", ErrMalformedSchedule, raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return Schedule{}, fmt.Errorf("%w: %q", ErrMalformedSchedule, raw)
	}
	return Schedule{Hour: h, Minute: m}, nil
}

// ResolveSchedule returns the schedule for raw, falling back to fallback
// when raw is empty. A malformed raw value also yields fallback, together
// with an error wrapping ErrMalformedSchedule so the caller can record it.
func ResolveSchedule(raw string, fallback Schedule) (Schedule, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	s, err := ParseSchedule(raw)
	if err != nil {
		return fallback, err
	}
	return s, nil
}
