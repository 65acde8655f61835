// Package schedule derives busy and free intervals from a working-day
// schedule snapshot and answers availability queries against it.
package schedule

import (
	"context"
	"sync"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/singleflight"
)

// Fetcher retrieves a schedule snapshot from its source.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) (*Snapshot, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, sourceURL string) (*Snapshot, error)

func (f FetcherFunc) Fetch(ctx context.Context, sourceURL string) (*Snapshot, error) {
	return f(ctx, sourceURL)
}

// Model holds one immutable schedule snapshot. It starts unloaded and becomes
// loaded after the first successful Load; it never goes back. A Model is safe
// for concurrent use.
type Model struct {
	sourceURL string
	fetcher   Fetcher

	loads singleflight.Group

	mu   sync.RWMutex
	data *dataset
}

// New validates sourceURL and returns a model bound to it. When autoFetch is
// set the snapshot is loaded before returning.
func New(ctx context.Context, sourceURL string, autoFetch bool, fetcher Fetcher) (*Model, error) {
	if err := ValidateSourceURL(sourceURL); err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, configurationError("schedule fetcher is required")
	}
	m := &Model{sourceURL: sourceURL, fetcher: fetcher}
	if autoFetch {
		if err := m.Load(ctx); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewFromSnapshot returns a loaded model over an already fetched snapshot.
func NewFromSnapshot(snap *Snapshot) (*Model, error) {
	if snap == nil {
		return nil, errNotFetched
	}
	ds, err := index(snap)
	if err != nil {
		return nil, err
	}
	return &Model{data: ds}, nil
}

// Validate reports whether snap would load: ids, dates and windows must be
// well formed. It returns the same ErrValidation error NewFromSnapshot would.
func Validate(snap *Snapshot) error {
	if snap == nil {
		return errNotFetched
	}
	_, err := index(snap)
	return err
}

// SourceURL returns the URL the model fetches from.
func (m *Model) SourceURL() string { return m.sourceURL }

// Loaded reports whether a snapshot is present.
func (m *Model) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data != nil
}

// Load fetches the snapshot. It is a no-op on a loaded model. Concurrent
// calls on an unloaded model share a single fetch. A payload that fails
// validation is reported as ErrSourceUnavailable wrapping the record error.
func (m *Model) Load(ctx context.Context) error {
	if m.Loaded() {
		return nil
	}
	if m.fetcher == nil {
		return configurationError("schedule fetcher is required")
	}
	_, err, _ := m.loads.Do(m.sourceURL, func() (any, error) {
		if m.Loaded() {
			return nil, nil
		}
		snap, err := m.fetcher.Fetch(ctx, m.sourceURL)
		if err != nil {
			return nil, &Error{Kind: ErrSourceUnavailable, Reason: "fetch schedule", Err: err}
		}
		if snap == nil {
			return nil, &Error{Kind: ErrSourceUnavailable, Reason: "fetch schedule: empty response"}
		}
		ds, err := index(snap)
		if err != nil {
			return nil, &Error{Kind: ErrSourceUnavailable, Reason: "invalid schedule payload", Err: err}
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.data == nil {
			m.data = ds
		}
		return nil, nil
	})
	return err
}

func (m *Model) dataset() (*dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, errNotFetched
	}
	return m.data, nil
}

// Snapshot returns a copy of the raw fetched payload.
func (m *Model) Snapshot() (*Snapshot, error) {
	ds, err := m.dataset()
	if err != nil {
		return nil, err
	}
	return ds.raw.clone(), nil
}

// Days returns the working days in source order, limited to on when it is
// not nil.
func (m *Model) Days(on *civil.Date) ([]Day, error) {
	ds, err := m.dataset()
	if err != nil {
		return nil, err
	}
	return filterDays(ds.days, on), nil
}

// RawDays is Days in the source's string form.
func (m *Model) RawDays(on *civil.Date) ([]WorkingDay, error) {
	ds, err := m.dataset()
	if err != nil {
		return nil, err
	}
	out := make([]WorkingDay, 0, len(ds.days))
	for i, day := range ds.days {
		if on == nil || day.Date == *on {
			out = append(out, ds.raw.Days[i])
		}
	}
	return out, nil
}

// Busy returns booked timeslots joined with their day's date, in source
// order, limited to on when it is not nil.
func (m *Model) Busy(on *civil.Date) ([]Slot, error) {
	ds, err := m.dataset()
	if err != nil {
		return nil, err
	}
	return filterSlots(ds.busy, on), nil
}

// RawBusy is Busy in the source's string form.
func (m *Model) RawBusy(on *civil.Date) ([]RawSlot, error) {
	ds, err := m.dataset()
	if err != nil {
		return nil, err
	}
	out := make([]RawSlot, 0, len(ds.rawBusy))
	for i, slot := range ds.busy {
		if on == nil || slot.Date == *on {
			out = append(out, ds.rawBusy[i])
		}
	}
	return out, nil
}

func filterDays(days []Day, on *civil.Date) []Day {
	out := make([]Day, 0, len(days))
	for _, d := range days {
		if on == nil || d.Date == *on {
			out = append(out, d)
		}
	}
	return out
}

func filterSlots(slots []Slot, on *civil.Date) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if on == nil || s.Date == *on {
			out = append(out, s)
		}
	}
	return out
}
