package schedule

import (
	"encoding/json"
	"os"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *Snapshot {
	t.Helper()
	data, err := os.ReadFile("testdata/schedule.json")
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return &snap
}

func fixtureModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewFromSnapshot(loadFixture(t))
	require.NoError(t, err)
	return m
}

// triples renders slots as [date start end] for readable comparisons.
func triples(slots []Slot) [][3]string {
	out := make([][3]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, [3]string{s.Date.String(), s.Start.String(), s.End.String()})
	}
	return out
}

func pairs(slots []Slot) [][2]string {
	out := make([][2]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, [2]string{s.Start.String(), s.End.String()})
	}
	return out
}

func date(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}
