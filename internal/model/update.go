package model

import (
	"fmt"
	"strings"
	"time"
)

// TaskUpdate carries a partial update. A nil field is left untouched.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	IsCompleted *bool      `json:"isCompleted,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.DueDate == nil &&
		u.Priority == nil && u.IsCompleted == nil
}

// Normalize trims the text fields that are present and validates them.
// Absent fields are never defaulted.
func (u TaskUpdate) Normalize() (TaskUpdate, error) {
	out := u
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if err := validateTitle(title); err != nil {
			return u, err
		}
		out.Title = &title
	}
	if u.Description != nil {
		desc := strings.TrimSpace(*u.Description)
		if err := validateDescription(desc); err != nil {
			return u, err
		}
		out.Description = &desc
	}
	if u.DueDate != nil {
		if u.DueDate.IsZero() {
			return u, &ValidationError{Field: "dueDate", Reason: "is required"}
		}
		due := u.DueDate.UTC()
		out.DueDate = &due
	}
	if u.Priority != nil && !u.Priority.Valid() {
		return u, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", *u.Priority)}
	}
	return out, nil
}

// Columns maps the present fields to their column names for a gorm Updates call.
func (u TaskUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Title != nil {
		cols["title"] = *u.Title
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.DueDate != nil {
		cols["due_date"] = u.DueDate.UTC()
	}
	if u.Priority != nil {
		cols["priority"] = *u.Priority
	}
	if u.IsCompleted != nil {
		cols["is_completed"] = *u.IsCompleted
	}
	return cols
}

// ApplyTo returns a copy of t with the present fields replaced.
func (u TaskUpdate) ApplyTo(t Task) Task {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.DueDate != nil {
		t.DueDate = u.DueDate.UTC()
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.IsCompleted != nil {
		t.IsCompleted = *u.IsCompleted
	}
	return t
}
