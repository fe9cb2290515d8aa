package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackCapsOldestFirst(t *testing.T) {
	l := New(3)
	for i := range 5 {
		l.Track(fmt.Sprintf("e%d", i), "test", nil)
	}

	h := l.History()
	require.Len(t, h, 3)
	assert.Equal(t, "e2", h[0].Event)
	assert.Equal(t, "e4", h[2].Event)
}

func TestStats(t *testing.T) {
	l := New(0)
	base := time.Date(2025, 3, 1, 9, 30, 0, 0, time.Local)
	times := []time.Time{base, base, base.Add(2 * time.Hour)}
	i := 0
	l.now = func() time.Time {
		ts := times[i]
		i++
		return ts
	}

	l.Track("task_created", "task", map[string]any{"id": "t1"})
	l.Track("task_updated", "task", nil)
	l.Track("project_created", "project", nil)

	s := l.Stats()
	assert.Equal(t, 3, s.TotalEvents)
	assert.Equal(t, map[string]int{"task": 2, "project": 1}, s.EventsByCategory)
	assert.Equal(t, map[int]int{9: 2, 11: 1}, s.EventsByHour)
	require.NotNil(t, s.LastEvent)
	assert.Equal(t, "project_created", s.LastEvent.Event)
}

func TestStatsEmpty(t *testing.T) {
	s := New(10).Stats()
	assert.Zero(t, s.TotalEvents)
	assert.Nil(t, s.LastEvent)
	assert.Empty(t, s.EventsByCategory)
}

func TestHistoryIsACopy(t *testing.T) {
	l := New(10)
	l.Track("a", "x", nil)
	h := l.History()
	h[0].Event = "mutated"
	assert.Equal(t, "a", l.History()[0].Event)
}

func TestClear(t *testing.T) {
	l := New(10)
	l.Track("a", "x", nil)
	l.Clear()
	assert.Empty(t, l.History())
	assert.Zero(t, l.Stats().TotalEvents)
}

func TestDefaultSingleton(t *testing.T) {
	t.Cleanup(Reset)

	Reset()
	d := Default()
	assert.Same(t, d, Default())

	l := Init(5)
	assert.Same(t, l, Default())
	assert.NotSame(t, d, l)

	Reset()
	assert.NotSame(t, l, Default())
}
