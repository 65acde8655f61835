package schedule

import (
	"fmt"
	"time"
)

// Clock is a naive time of day in minutes since midnight.
type Clock int

const (
	Midnight Clock = 0
	// EndOfDay is the last representable minute of a day (23:59).
	EndOfDay Clock = 23*60 + 59
)

// NewClock builds a Clock from hour and minute.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// String formats the clock as zero padded HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Sub returns the duration between two clocks on the same day.
func (c Clock) Sub(other Clock) time.Duration {
	return time.Duration(c-other) * time.Minute
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
