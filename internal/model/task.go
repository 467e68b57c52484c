package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Priority is the closed set of task priorities.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every valid priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority accepts any letter case ("high", "HIGH", "High").
func ParsePriority(raw string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(strings.TrimSpace(raw), string(p)) {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", raw)}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Weight orders priorities by severity: High 3, Medium 2, Low 1, anything else 0.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Task is a single reminder item in the store.
type Task struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	Title       string    `gorm:"size:100;not null" json:"title" yaml:"title"`
	Description string    `gorm:"size:500" json:"description" yaml:"description"`
	DueDate     time.Time `gorm:"not null;index" json:"dueDate" yaml:"dueDate"`
	Priority    Priority  `gorm:"size:10;not null" json:"priority" yaml:"priority"`
	IsCompleted bool      `gorm:"not null;default:false" json:"isCompleted" yaml:"isCompleted"`
	CreatedAt   time.Time `gorm:"not null;index;autoCreateTime:false" json:"createdAt" yaml:"createdAt"`
}

// TableName keeps the table name stable regardless of gorm naming strategy.
func (Task) TableName() string {
	return "tasks"
}

// CheckIntegrity reports a stored record that breaks the schema rules.
func (t Task) CheckIntegrity() error {
	switch {
	case t.ID == "":
		return &DataIntegrityError{ID: t.ID, Reason: "empty id"}
	case strings.TrimSpace(t.Title) == "":
		return &DataIntegrityError{ID: t.ID, Reason: "empty title"}
	case !t.Priority.Valid():
		return &DataIntegrityError{ID: t.ID, Reason: fmt.Sprintf("invalid priority %q", t.Priority)}
	case t.DueDate.IsZero():
		return &DataIntegrityError{ID: t.ID, Reason: "missing due date"}
	case t.CreatedAt.IsZero():
		return &DataIntegrityError{ID: t.ID, Reason: "missing creation time"}
	}
	return nil
}

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	// Priority defaults to Medium when empty.
	Priority    Priority
	IsCompleted *bool
}

// Normalize trims the text fields, applies creation defaults and validates the result.
func (in TaskInput) Normalize() (TaskInput, error) {
	out := in
	out.Title = strings.TrimSpace(in.Title)
	out.Description = strings.TrimSpace(in.Description)
	if out.Priority == "" {
		out.Priority = PriorityMedium
	}
	if out.IsCompleted == nil {
		out.IsCompleted = Ptr(false)
	}

	if err := validateTitle(out.Title); err != nil {
		return in, err
	}
	if err := validateDescription(out.Description); err != nil {
		return in, err
	}
	if !out.Priority.Valid() {
		return in, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", out.Priority)}
	}
	if out.DueDate.IsZero() {
		return in, &ValidationError{Field: "dueDate", Reason: "is required"}
	}
	return out, nil
}

// NewTask builds a record from input. ID and CreatedAt are left to the store.
func NewTask(in TaskInput) (Task, error) {
	norm, err := in.Normalize()
	if err != nil {
		return Task{}, err
	}
	return Task{
		Title:       norm.Title,
		Description: norm.Description,
		DueDate:     norm.DueDate.UTC(),
		Priority:    norm.Priority,
		IsCompleted: *norm.IsCompleted,
	}, nil
}

func validateTitle(title string) error {
	if title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("exceeds %d characters", MaxTitleLength)}
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("exceeds %d characters", MaxDescriptionLength)}
	}
	return nil
}

// Ptr returns a pointer to v. Handy for TaskInput and TaskUpdate literals.
func Ptr[T any](v T) *T {
	return &v
}
