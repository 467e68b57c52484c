package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarttask/internal/clock"
	"smarttask/internal/model"
)

func TestIsOverdue(t *testing.T) {
	now := day(3, 1)
	past := model.Task{DueDate: now.Add(-time.Hour)}
	assert.True(t, IsOverdue(past, now))

	past.IsCompleted = true
	assert.False(t, IsOverdue(past, now), "completed tasks are never overdue")

	assert.False(t, IsOverdue(model.Task{DueDate: now}, now), "due exactly now is not overdue")
	assert.False(t, IsOverdue(model.Task{DueDate: now.Add(time.Minute)}, now))
}

func TestSchedulable(t *testing.T) {
	now := day(3, 1)
	assert.False(t, Schedulable(now, now))
	assert.False(t, Schedulable(now.Add(-time.Second), now))
	assert.True(t, Schedulable(now.Add(time.Second), now))
}

func TestStatus(t *testing.T) {
	now := day(3, 1)
	tests := []struct {
		task model.Task
		want DueStatus
	}{
		{model.Task{DueDate: now.Add(-time.Hour), IsCompleted: true}, StatusCompleted},
		{model.Task{DueDate: now.Add(-time.Hour)}, StatusOverdue},
		{model.Task{DueDate: now.Add(DueSoonWindow)}, StatusDueSoon},
		{model.Task{DueDate: now.Add(DueSoonWindow + time.Minute)}, StatusUpcoming},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.task, now))
	}
}

func TestRelativeLabel(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		due  time.Time
		want string
	}{
		{time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "Today"},
		{time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC), "Today"},
		{time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC), "Tomorrow"},
		{time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC), "Yesterday"},
		{time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC), "3 days ago"},
		{time.Date(2025, 3, 13, 8, 0, 0, 0, time.UTC), "In 3 days"},
		{time.Date(2025, 3, 17, 8, 0, 0, 0, time.UTC), "In 7 days"},
		{time.Date(2025, 3, 18, 8, 0, 0, 0, time.UTC), "Mar 18"},
		{time.Date(2024, 12, 25, 8, 0, 0, 0, time.UTC), "75 days ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelativeLabel(tt.due, now, time.UTC), tt.due.String())
	}
}

func TestRelativeLabel_MidnightBoundary(t *testing.T) {
	now := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	due := now.Add(2 * time.Minute)
	assert.Equal(t, "Tomorrow", RelativeLabel(due, now, time.UTC))
	assert.Equal(t, 1, DayDelta(due, now, time.UTC))
}

func TestRelativeLabel_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)  // 21:00 in Tokyo
	due := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC) // 01:00 next day in Tokyo

	assert.Equal(t, "Today", RelativeLabel(due, now, time.UTC))
	assert.Equal(t, "Tomorrow", RelativeLabel(due, now, tokyo))
}

func TestDayDelta_AcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// Clocks spring forward on 2025-03-09; that day has 23 hours.
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, ny)
	due := time.Date(2025, 3, 10, 0, 30, 0, 0, ny)
	assert.Equal(t, 2, DayDelta(due, now, ny))
	assert.Equal(t, "In 2 days", RelativeLabel(due, now, ny))
}

func TestEngine_UsesClock(t *testing.T) {
	clk := clock.NewManual(day(3, 1))
	e := NewEngine(clk, WithLocation(time.UTC))
	require.Equal(t, time.UTC, e.Location())

	tk := model.Task{DueDate: day(3, 2)}
	assert.False(t, e.Overdue(tk))
	assert.Equal(t, "Tomorrow", e.Label(tk.DueDate))
	assert.True(t, e.Schedulable(tk.DueDate))

	clk.Advance(48 * time.Hour)
	assert.True(t, e.Overdue(tk))
	assert.Equal(t, StatusOverdue, e.Status(tk))
	assert.Equal(t, "Yesterday", e.Label(tk.DueDate))
	assert.False(t, e.Schedulable(tk.DueDate))
}
