package schedule

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// WorkingDay is a day record as served by the schedule source.
type WorkingDay struct {
	ID    int    `json:"id"`
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// BookedTimeslot is a booking record as served by the schedule source.
type BookedTimeslot struct {
	ID    int    `json:"id"`
	DayID int    `json:"day_id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Snapshot is the full payload fetched from the schedule source.
type Snapshot struct {
	Days      []WorkingDay     `json:"days"`
	Timeslots []BookedTimeslot `json:"timeslots"`
}

func (s *Snapshot) clone() *Snapshot {
	return &Snapshot{
		Days:      append([]WorkingDay(nil), s.Days...),
		Timeslots: append([]BookedTimeslot(nil), s.Timeslots...),
	}
}

// Day is a parsed working day: the window [Start, End) on Date.
type Day struct {
	ID    int        `json:"id"`
	Date  civil.Date `json:"date"`
	Start Clock      `json:"start"`
	End   Clock      `json:"end"`
}

// Slot is a busy or free interval on a calendar date.
type Slot struct {
	Date  civil.Date `json:"date"`
	Start Clock      `json:"start"`
	End   Clock      `json:"end"`
}

// Span is the length of the slot.
func (s Slot) Span() time.Duration {
	return s.End.Sub(s.Start)
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Date, s.Start, s.End)
}

// RawSlot is a booked timeslot joined with its day's date, in source strings.
type RawSlot struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// dataset is a validated snapshot with its derived views precomputed.
type dataset struct {
	raw     *Snapshot
	days    []Day
	busy    []Slot
	rawBusy []RawSlot
}

// index parses and validates a snapshot. Timeslots that reference an unknown
// day are dropped.
func index(snap *Snapshot) (*dataset, error) {
	ds := &dataset{
		raw:  snap.clone(),
		days: make([]Day, 0, len(snap.Days)),
	}
	byID := make(map[int]int, len(snap.Days))
	for _, wd := range snap.Days {
		day, err := parseDay(wd)
		if err != nil {
			return nil, err
		}
		if _, dup := byID[day.ID]; dup {
			return nil, recordError("day", wd.ID, "duplicate id", nil)
		}
		byID[day.ID] = len(ds.days)
		ds.days = append(ds.days, day)
	}

	for _, ts := range snap.Timeslots {
		if ts.ID <= 0 {
			return nil, recordError("timeslot", ts.ID, "id must be positive", nil)
		}
		pos, ok := byID[ts.DayID]
		if !ok {
			continue
		}
		start, end, err := parseWindow(ts.Start, ts.End)
		if err != nil {
			return nil, recordError("timeslot", ts.ID, "", err)
		}
		day := ds.days[pos]
		ds.busy = append(ds.busy, Slot{Date: day.Date, Start: start, End: end})
		ds.rawBusy = append(ds.rawBusy, RawSlot{Date: snap.Days[pos].Date, Start: ts.Start, End: ts.End})
	}
	return ds, nil
}

func parseDay(wd WorkingDay) (Day, error) {
	if wd.ID <= 0 {
		return Day{}, recordError("day", wd.ID, "id must be positive", nil)
	}
	date, err := ParseDate(wd.Date)
	if err != nil {
		return Day{}, recordError("day", wd.ID, "", err)
	}
	start, end, err := parseWindow(wd.Start, wd.End)
	if err != nil {
		return Day{}, recordError("day", wd.ID, "", err)
	}
	return Day{ID: wd.ID, Date: date, Start: start, End: end}, nil
}

func parseWindow(rawStart, rawEnd string) (Clock, Clock, error) {
	start, err := parseClockField("start", rawStart)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClockField("end", rawEnd)
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, &Error{Kind: ErrInvalidRange, Field: "end", Reason: "start time must be before end time"}
	}
	return start, end, nil
}

func recordError(kind string, id int, reason string, cause error) *Error {
	if reason == "" {
		reason = "invalid record"
	}
	return &Error{
		Kind:   ErrValidation,
		Field:  kind,
		Reason: fmt.Sprintf("snapshot %s %d: %s", kind, id, reason),
		Err:    cause,
	}
}
