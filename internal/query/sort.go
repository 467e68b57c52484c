// Package query sorts, filters and classifies task snapshots. Every function
// works on a copy: the caller's slice is never reordered.
package query

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"smarttask/internal/model"
)

// SortKey selects the ordering applied by Sort.
type SortKey string

const (
	SortDate         SortKey = "date"
	SortPriority     SortKey = "priority"
	SortAlphabetical SortKey = "alphabetical"
	// SortCreated keeps the store's native order (newest first).
	SortCreated SortKey = "created"
)

func ParseSortKey(raw string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case SortDate, SortPriority, SortAlphabetical, SortCreated:
		return key, nil
	case "":
		return SortDate, nil
	case "alpha", "title":
		return SortAlphabetical, nil
	}
	return "", fmt.Errorf("unknown sort key %q", raw)
}

// Sort returns a stably sorted copy of tasks. An unknown key returns the copy unchanged.
func Sort(tasks []model.Task, key SortKey) []model.Task {
	return sortWith(tasks, key, language.English)
}

func sortWith(tasks []model.Task, key SortKey, tag language.Tag) []model.Task {
	out := clone(tasks)
	switch key {
	case SortDate:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DueDate.Before(out[j].DueDate)
		})
	case SortPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority.Weight() > out[j].Priority.Weight()
		})
	case SortAlphabetical:
		// Collator keeps scratch buffers, so each call gets its own.
		col := collate.New(tag, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Title, out[j].Title) < 0
		})
	}
	return out
}

func clone(tasks []model.Task) []model.Task {
	if tasks == nil {
		return nil
	}
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	return out
}
