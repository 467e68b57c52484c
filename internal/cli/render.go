package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"smarttask/internal/model"
	"smarttask/internal/query"
)

var (
	priorityColors = map[model.Priority]lipgloss.Color{
		model.PriorityHigh:   lipgloss.Color("#DC2626"),
		model.PriorityMedium: lipgloss.Color("#D97706"),
		model.PriorityLow:    lipgloss.Color("#059669"),
	}

	idStyle        = lipgloss.NewStyle().Faint(true)
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	completedStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
)

func priorityBadge(p model.Priority) string {
	style := lipgloss.NewStyle().Bold(true).Width(8)
	if c, ok := priorityColors[p]; ok {
		style = style.Foreground(c)
	}
	return style.Render(string(p))
}

func renderTaskLine(t model.Task, engine *query.Engine) string {
	check := "☐"
	title := shortTitle(t.Title, 48)
	if t.IsCompleted {
		check = "☑"
		title = completedStyle.Render(title)
	}

	due := engine.Label(t.DueDate) + " " + t.DueDate.In(engine.Location()).Format("15:04")
	dueText := labelStyle.Render(due)
	if engine.Overdue(t) {
		dueText = overdueStyle.Render(due + " · overdue")
	}

	return fmt.Sprintf("%s %s %s %s  %s", check, idStyle.Render(shortID(t.ID)), priorityBadge(t.Priority), title, dueText)
}

func renderTaskList(w io.Writer, tasks []model.Task, engine *query.Engine) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for _, t := range tasks {
		fmt.Fprintln(w, renderTaskLine(t, engine))
	}
}

func renderTaskDetail(w io.Writer, t model.Task, engine *query.Engine) {
	loc := engine.Location()
	status := string(engine.Status(t))
	if engine.Overdue(t) {
		status = overdueStyle.Render(status)
	}

	rows := [][2]string{
		{"ID", t.ID},
		{"Title", t.Title},
		{"Priority", priorityBadge(t.Priority)},
		{"Due", fmt.Sprintf("%s (%s)", t.DueDate.In(loc).Format("Mon, Jan 2 2006 15:04"), engine.Label(t.DueDate))},
		{"Status", status},
		{"Created", t.CreatedAt.In(loc).Format("2006-01-02 15:04:05")},
	}
	if t.Description != "" {
		rows = append(rows, [2]string{"Description", t.Description})
	}

	fmt.Fprintln(w, headerStyle.Render(t.Title))
	for _, row := range rows {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Width(12).Render(row[0]+":"), row[1])
	}
}

func describeCriteria(c query.Criteria, sortKey query.SortKey) string {
	var parts []string
	if strings.TrimSpace(c.Text) != "" {
		parts = append(parts, fmt.Sprintf("matching %q", c.Text))
	}
	if c.Priority != nil {
		parts = append(parts, string(*c.Priority))
	}
	if c.Completed != nil {
		if *c.Completed {
			parts = append(parts, "Completed")
		} else {
			parts = append(parts, "Active")
		}
	}
	out := "sorted by " + string(sortKey)
	if len(parts) > 0 {
		out = strings.Join(parts, ", ") + "; " + out
	}
	return out
}
