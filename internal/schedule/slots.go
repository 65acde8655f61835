package schedule

import (
	"cmp"
	"slices"

	"cloud.google.com/go/civil"
)

// freeSlots sweeps the busy intervals together with the non-working edges of
// every date and returns the gaps between them, ordered by date then start.
func freeSlots(days []Day, busy []Slot) []Slot {
	markers := make([]Slot, 0, len(busy)+2*len(days))
	markers = append(markers, busy...)
	markers = append(markers, offHours(days)...)
	slices.SortStableFunc(markers, compareSlots)

	free := []Slot{}
	var reach Clock
	for i, cur := range markers {
		if i == 0 || cur.Date != markers[i-1].Date {
			reach = cur.End
			continue
		}
		if reach < cur.Start {
			free = append(free, Slot{Date: cur.Date, Start: reach, End: cur.Start})
		}
		reach = max(reach, cur.End)
	}
	return free
}

// offHours returns, per date, the parts of [00:00, 23:59] outside every
// working window on that date. The leading and trailing edges are always
// emitted, even when empty.
func offHours(days []Day) []Slot {
	windows := make(map[civil.Date][]Day, len(days))
	var dates []civil.Date
	for _, d := range days {
		if _, seen := windows[d.Date]; !seen {
			dates = append(dates, d.Date)
		}
		windows[d.Date] = append(windows[d.Date], d)
	}

	var out []Slot
	for _, date := range dates {
		ws := windows[date]
		slices.SortStableFunc(ws, func(a, b Day) int { return cmp.Compare(a.Start, b.Start) })

		out = append(out, Slot{Date: date, Start: Midnight, End: ws[0].Start})
		reach := ws[0].End
		for _, w := range ws[1:] {
			if reach < w.Start {
				out = append(out, Slot{Date: date, Start: reach, End: w.Start})
			}
			reach = max(reach, w.End)
		}
		out = append(out, Slot{Date: date, Start: reach, End: EndOfDay})
	}
	return out
}

func compareSlots(a, b Slot) int {
	if c := compareDates(a.Date, b.Date); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.End, b.End)
}

func compareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
