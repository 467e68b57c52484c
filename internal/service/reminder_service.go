package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smarttask/internal/model"
	"smarttask/internal/query"
)

// Reminder is what the notification side needs to alert on a task.
type Reminder struct {
	ID      string
	Title   string
	DueDate time.Time
}

func ReminderFor(t model.Task) Reminder {
	return Reminder{ID: t.ID, Title: t.Title, DueDate: t.DueDate}
}

// ReminderService selects due tasks and builds human-readable digests.
type ReminderService struct {
	tasks  *TaskService
	engine *query.Engine
}

func NewReminderService(tasks *TaskService) *ReminderService {
	return &ReminderService{tasks: tasks, engine: tasks.Engine()}
}

// Due returns open tasks with from < dueDate <= to, earliest first.
func (s *ReminderService) Due(ctx context.Context, from, to time.Time) ([]Reminder, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	open := query.Filter(tasks, query.Criteria{Completed: model.Ptr(false)})

	var out []Reminder
	for _, t := range query.Sort(open, query.SortDate) {
		if t.DueDate.After(from) && !t.DueDate.After(to) {
			out = append(out, ReminderFor(t))
		}
	}
	return out, nil
}

// Open returns reminders for every task not yet completed, earliest due first.
func (s *ReminderService) Open(ctx context.Context) ([]Reminder, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	var out []Reminder
	for _, t := range query.Sort(tasks, query.SortDate) {
		if !t.IsCompleted {
			out = append(out, ReminderFor(t))
		}
	}
	return out, nil
}

// DailySummary renders open tasks grouped by due status.
func (s *ReminderService) DailySummary(ctx context.Context) (string, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return "", err
	}
	now := s.engine.Now()
	loc := s.engine.Location()

	groups := map[query.DueStatus][]model.Task{}
	for _, t := range query.Sort(tasks, query.SortDate) {
		st := query.Status(t, now)
		groups[st] = append(groups[st], t)
	}

	var b strings.Builder
	b.WriteString("📋 Daily summary\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n", now.In(loc).Format("Mon, Jan 2 2006")))

	sections := []struct {
		status query.DueStatus
		icon   string
		title  string
	}{
		{query.StatusOverdue, "⚠️", "Overdue"},
		{query.StatusDueSoon, "⏳", "Due soon"},
		{query.StatusUpcoming, "🟢", "Upcoming"},
	}
	open := 0
	for _, sec := range sections {
		list := groups[sec.status]
		if len(list) == 0 {
			continue
		}
		open += len(list)
		b.WriteString(fmt.Sprintf("\n%s %s\n", sec.icon, sec.title))
		for _, t := range list {
			b.WriteString(formatTask(t, now, loc))
		}
	}
	if open == 0 {
		b.WriteString("\nNo open tasks.\n")
	}
	if done := len(groups[query.StatusCompleted]); done > 0 {
		b.WriteString(fmt.Sprintf("\n✅ %d completed\n", done))
	}

	return strings.TrimSpace(b.String()), nil
}

func formatTask(t model.Task, now time.Time, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("• [%s] %s", t.Priority, strings.TrimSpace(t.Title)))
	sb.WriteString(fmt.Sprintf("\n   ⏰ %s (%s)", query.RelativeLabel(t.DueDate, now, loc), t.DueDate.In(loc).Format("2006-01-02 15:04")))
	if t.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", strings.TrimSpace(t.Description)))
	}
	sb.WriteByte('\n')
	return sb.String()
}
