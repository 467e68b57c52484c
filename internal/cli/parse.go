package cli

import (
	"fmt"
	"strings"
	"time"

	"smarttask/internal/model"
)

var dueLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// defaultDueHour applies to a due date given without a time of day.
const defaultDueHour = 9

// parseDue accepts RFC 3339, a local "YYYY-MM-DD HH:MM", a bare date, or a
// "+duration" offset from now.
func parseDue(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &model.ValidationError{Field: "dueDate", Reason: "is required"}
	}
	if loc == nil {
		loc = time.Local
	}

	if strings.HasPrefix(raw, "+") {
		d, err := time.ParseDuration(raw[1:])
		if err != nil || d <= 0 {
			return time.Time{}, &model.ValidationError{Field: "dueDate", Reason: fmt.Sprintf("bad offset %q", raw)}
		}
		return now.Add(d), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), defaultDueHour, 0, 0, 0, loc), nil
	}
	return time.Time{}, &model.ValidationError{Field: "dueDate", Reason: fmt.Sprintf("cannot parse %q, use YYYY-MM-DD HH:MM, RFC 3339 or +2h", raw)}
}

// parseStatus maps --status to the completion filter.
func parseStatus(raw string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return nil, nil
	case "open", "active", "pending":
		return model.Ptr(false), nil
	case "done", "completed":
		return model.Ptr(true), nil
	}
	return nil, fmt.Errorf("unknown status %q, use all, open or done", raw)
}
