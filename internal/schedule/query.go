package schedule

import (
	"time"

	"cloud.google.com/go/civil"
)

// BusySlots returns booked intervals for date, or for every date when date
// is empty. Order follows the source, not the clock.
func (m *Model) BusySlots(date string) ([]Slot, error) {
	on, err := optionalDate(date)
	if err != nil {
		return nil, err
	}
	return m.BusySlotsOn(on)
}

// BusySlotsOn is BusySlots with a parsed date filter.
func (m *Model) BusySlotsOn(on *civil.Date) ([]Slot, error) {
	return m.Busy(on)
}

// FreeSlots returns free intervals for date, or for every date when date is
// empty, ordered by date then start.
func (m *Model) FreeSlots(date string) ([]Slot, error) {
	on, err := optionalDate(date)
	if err != nil {
		return nil, err
	}
	return m.FreeSlotsOn(on)
}

// FreeSlotsOn is FreeSlots with a parsed date filter.
func (m *Model) FreeSlotsOn(on *civil.Date) ([]Slot, error) {
	ds, err := m.dataset()
	if err != nil {
		return nil, err
	}
	return freeSlots(filterDays(ds.days, on), filterSlots(ds.busy, on)), nil
}

// IsAvailable reports whether [start, end] on date lies inside a single free
// interval.
func (m *Model) IsAvailable(date, start, end string) (bool, error) {
	day, from, to, err := ParseInterval(date, start, end)
	if err != nil {
		return false, err
	}
	return m.Available(day, from, to)
}

// Available is IsAvailable over parsed values.
func (m *Model) Available(day civil.Date, start, end Clock) (bool, error) {
	if start >= end {
		return false, errStartAfterEnd
	}
	free, err := m.FreeSlotsOn(&day)
	if err != nil {
		return false, err
	}
	for _, slot := range free {
		if slot.Start <= start && slot.End >= end {
			return true, nil
		}
	}
	return false, nil
}

// FindSlotForDuration returns the earliest free interval, across all dates,
// that is at least minutes long. ok is false when none qualifies. The slot is
// returned whole, not clipped to the requested length.
func (m *Model) FindSlotForDuration(minutes int) (Slot, bool, error) {
	if err := ValidateDuration(minutes); err != nil {
		return Slot{}, false, err
	}
	return m.FirstFit(time.Duration(minutes) * time.Minute)
}

// FirstFit is FindSlotForDuration for an arbitrary duration.
func (m *Model) FirstFit(d time.Duration) (Slot, bool, error) {
	if d <= 0 {
		return Slot{}, false, validationError("duration", "duration must be positive")
	}
	free, err := m.FreeSlotsOn(nil)
	if err != nil {
		return Slot{}, false, err
	}
	for _, slot := range free {
		if slot.Span() >= d {
			return slot, true, nil
		}
	}
	return Slot{}, false, nil
}

func optionalDate(date string) (*civil.Date, error) {
	if date == "" {
		return nil, nil
	}
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
