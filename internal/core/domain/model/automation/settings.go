package automation

import (
	"errors"
	"fmt"
	"time"

	"fooddelivery/internal/pkg/errs"
)

// ClockTime is a wall-clock time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, errs.NewValueIsInvalidErrorWithCause("clock time is invalid", err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) validate() error {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return errs.NewValueIsOutOfRangeError("clock time", c.String(), "00:00", "23:59")
	}
	return nil
}

// BusinessHours is the daily window in which scheduled sweeps run. A window whose end
// is before its start spans midnight; equal start and end means always open.
type BusinessHours struct {
	Start ClockTime
	End   ClockTime
}

// Contains reports whether the wall clock of t falls in [Start, End).
func (b BusinessHours) Contains(t time.Time) bool {
	now := t.Hour()*60 + t.Minute()
	start, end := b.Start.minutes(), b.End.minutes()
	switch {
	case start == end:
		return true
	case start < end:
		return now >= start && now < end
	default:
		return now >= start || now < end
	}
}

// SweepIntervals is how often each sweep kind is scheduled.
type SweepIntervals struct {
	PrepToReady    time.Duration
	AssignShippers time.Duration
	OverdueCheck   time.Duration
}

// Settings is one immutable version of the automation configuration. Updates replace
// the whole value; sweeps capture one Settings at start and use it throughout.
type Settings struct {
	PreparingToReady time.Duration
	DeliveryTimeout  time.Duration
	SweepIntervals   SweepIntervals
	BusinessHours    BusinessHours
	Version          int64
	UpdatedAt        time.Time
}

// DefaultSettings returns version 0 of the configuration.
func DefaultSettings() Settings {
	return Settings{
		PreparingToReady: 30 * time.Minute,
		DeliveryTimeout:  45 * time.Minute,
		SweepIntervals: SweepIntervals{
			PrepToReady:    2 * time.Minute,
			AssignShippers: 3 * time.Minute,
			OverdueCheck:   10 * time.Minute,
		},
		BusinessHours: BusinessHours{
			Start: ClockTime{Hour: 8},
			End:   ClockTime{Hour: 22},
		},
	}
}

// Validate checks every duration is positive and the clock times are well formed.
func (s Settings) Validate() error {
	positive := func(name string, d time.Duration) error {
		if d <= 0 {
			return errs.NewValueIsOutOfRangeError(name, d, "> 0", "unbounded")
		}
		return nil
	}
	return errors.Join(
		positive("preparingToReady", s.PreparingToReady),
		positive("deliveryTimeout", s.DeliveryTimeout),
		positive("sweepIntervals.prepToReady", s.SweepIntervals.PrepToReady),
		positive("sweepIntervals.assignShippers", s.SweepIntervals.AssignShippers),
		positive("sweepIntervals.overdueCheck", s.SweepIntervals.OverdueCheck),
		s.BusinessHours.Start.validate(),
		s.BusinessHours.End.validate(),
	)
}

// Interval returns the schedule interval of kind.
func (s Settings) Interval(kind Kind) time.Duration {
	switch kind {
	case KindPrepToReady:
		return s.SweepIntervals.PrepToReady
	case KindAssignShippers:
		return s.SweepIntervals.AssignShippers
	case KindOverdueCheck:
		return s.SweepIntervals.OverdueCheck
	default:
		return 0
	}
}

// LeaseTTL is how long a sweep of kind may hold its lease: twice its interval.
func (s Settings) LeaseTTL(kind Kind) time.Duration {
	return 2 * s.Interval(kind)
}
