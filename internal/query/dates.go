package query

import (
	"fmt"
	"time"

	"smarttask/internal/model"
)

// DueSoonWindow is how close a due date must be to count as due soon.
const DueSoonWindow = 48 * time.Hour

// DueStatus classifies a task against "now".
type DueStatus string

const (
	StatusCompleted DueStatus = "completed"
	StatusOverdue   DueStatus = "overdue"
	StatusDueSoon   DueStatus = "due-soon"
	StatusUpcoming  DueStatus = "upcoming"
)

// IsOverdue: due strictly before now and not completed.
func IsOverdue(t model.Task, now time.Time) bool {
	return !t.IsCompleted && t.DueDate.Before(now)
}

// Schedulable reports whether a reminder may be scheduled for due.
// Dates at or before now are rejected.
func Schedulable(due, now time.Time) bool {
	return due.After(now)
}

func Status(t model.Task, now time.Time) DueStatus {
	switch {
	case t.IsCompleted:
		return StatusCompleted
	case IsOverdue(t, now):
		return StatusOverdue
	case t.DueDate.Sub(now) <= DueSoonWindow:
		return StatusDueSoon
	}
	return StatusUpcoming
}

// DayDelta counts calendar days from now to due as seen in loc. Wall-clock
// time is ignored, so 23:59 today and 00:01 tomorrow are one day apart.
func DayDelta(due, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return civilDay(due.In(loc)) - civilDay(now.In(loc))
}

// civilDay numbers calendar days; computed in UTC so DST shifts never
// produce 23 or 25 hour days.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// RelativeLabel renders due relative to now: Today, Tomorrow, Yesterday,
// "N days ago", "In N days" up to a week ahead, otherwise "Jan 2".
func RelativeLabel(due, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	d := DayDelta(due, now, loc)
	switch {
	case d == 0:
		return "Today"
	case d == 1:
		return "Tomorrow"
	case d == -1:
		return "Yesterday"
	case d < -1:
		return fmt.Sprintf("%d days ago", -d)
	case d <= 7:
		return fmt.Sprintf("In %d days", d)
	}
	return due.In(loc).Format("Jan 2")
}
