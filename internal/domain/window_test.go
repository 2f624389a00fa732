package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowOverlaps(t *testing.T) {
	s := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	e := s.Add(24 * time.Hour)
	w := Window{Start: s, End: e}

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"inside", s.Add(time.Hour), s.Add(2 * time.Hour), true},
		{"starts at window end", e, e.Add(time.Hour), true},
		{"ends at window start", s.Add(-time.Hour), s, true},
		{"spans whole window", s.Add(-time.Hour), e.Add(time.Hour), true},
		{"crosses start", s.Add(-time.Hour), s.Add(time.Hour), true},
		{"entirely before", s.Add(-2 * time.Hour), s.Add(-time.Nanosecond), false},
		{"entirely after", e.Add(time.Nanosecond), e.Add(time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, w.Overlaps(tc.start, tc.end))
		})
	}
}

func TestWindowContainsRunningEntry(t *testing.T) {
	s := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	w := Window{Start: s, End: s.Add(time.Hour)}

	assert.True(t, w.Contains(TimeEntry{Start: s.Add(-3 * time.Hour)}))
	assert.False(t, w.Contains(TimeEntry{Start: s.Add(2 * time.Hour)}))
}

func TestLatest(t *testing.T) {
	now := time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)

	w := Latest(now, 0)
	assert.Equal(t, now.Add(-24*time.Hour), w.Start)
	assert.Equal(t, now, w.End)
	require.NoError(t, w.Validate())

	w = Latest(now, 2*time.Hour)
	assert.Equal(t, now.Add(-2*time.Hour), w.Start)
}

func TestWindowValidate(t *testing.T) {
	now := time.Now()
	require.Error(t, Window{Start: now, End: now.Add(-time.Second)}.Validate())
	require.NoError(t, Window{Start: now, End: now}.Validate())
}
