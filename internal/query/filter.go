package query

import (
	"strings"

	"smarttask/internal/model"
)

// Criteria narrows a task list. Zero values / nil pointers mean the stage is not applied.
// Stages run in a fixed order (text, priority, completion) and combine with AND.
type Criteria struct {
	Text      string
	Priority  *model.Priority
	Completed *bool
}

// Active reports whether any stage would filter.
func (c Criteria) Active() bool {
	return strings.TrimSpace(c.Text) != "" || c.Priority != nil || c.Completed != nil
}

// View is a filter followed by a sort, the composition used by task lists.
type View struct {
	Criteria Criteria
	Sort     SortKey
}

// Filter returns the tasks matching every active stage, in their input order.
func Filter(tasks []model.Task, c Criteria) []model.Task {
	out := clone(tasks)
	out = filterText(out, c.Text)
	if c.Priority != nil {
		want := *c.Priority
		out = keep(out, func(t model.Task) bool { return t.Priority == want })
	}
	if c.Completed != nil {
		want := *c.Completed
		out = keep(out, func(t model.Task) bool { return t.IsCompleted == want })
	}
	return out
}

// Apply filters then sorts.
func Apply(tasks []model.Task, v View) []model.Task {
	return Sort(Filter(tasks, v.Criteria), v.Sort)
}

// MatchesText reports whether title or description contains text, ignoring case.
func MatchesText(t model.Task, text string) bool {
	q := strings.ToLower(text)
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

func filterText(tasks []model.Task, text string) []model.Task {
	if strings.TrimSpace(text) == "" {
		return tasks
	}
	return keep(tasks, func(t model.Task) bool { return MatchesText(t, text) })
}

func keep(tasks []model.Task, pred func(model.Task) bool) []model.Task {
	out := tasks[:0:0]
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}
