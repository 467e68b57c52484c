package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarttask/internal/model"
)

func TestReminderService_Due(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	seed(t, svc,
		model.TaskInput{Title: "in window late", DueDate: now.Add(50 * time.Minute)},
		model.TaskInput{Title: "in window early", DueDate: now.Add(10 * time.Minute)},
		model.TaskInput{Title: "at upper bound", DueDate: now.Add(time.Hour)},
		model.TaskInput{Title: "at lower bound", DueDate: now},
		model.TaskInput{Title: "later", DueDate: now.Add(2 * time.Hour)},
		model.TaskInput{Title: "done", DueDate: now.Add(20 * time.Minute), IsCompleted: model.Ptr(true)},
	)

	due, err := NewReminderService(svc).Due(ctx, now, now.Add(time.Hour))
	require.NoError(t, err)

	var titles []string
	for _, r := range due {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"in window early", "in window late", "at upper bound"}, titles)
}

func TestReminderService_Open(t *testing.T) {
	svc, _ := setupTestService(t)
	ids := seed(t, svc,
		model.TaskInput{Title: "b", DueDate: now.Add(2 * time.Hour)},
		model.TaskInput{Title: "a", DueDate: now.Add(-time.Hour)},
		model.TaskInput{Title: "c", DueDate: now.Add(time.Hour), IsCompleted: model.Ptr(true)},
	)

	open, err := NewReminderService(svc).Open(context.Background())
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, ids[1], open[0].ID)
	assert.Equal(t, ids[0], open[1].ID)
	assert.True(t, open[1].DueDate.Equal(now.Add(2*time.Hour)))
}

func TestReminderService_DailySummary(t *testing.T) {
	svc, _ := setupTestService(t)
	seed(t, svc,
		model.TaskInput{Title: "Pay rent", DueDate: now.Add(-3 * time.Hour), Priority: model.PriorityHigh},
		model.TaskInput{Title: "Buy groceries", Description: "milk", DueDate: now.Add(24 * time.Hour)},
		model.TaskInput{Title: "Renew passport", DueDate: now.Add(10 * 24 * time.Hour), Priority: model.PriorityLow},
		model.TaskInput{Title: "Old chore", DueDate: now.Add(-time.Hour), IsCompleted: model.Ptr(true)},
	)

	text, err := NewReminderService(svc).DailySummary(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "📋 Daily summary"))
	assert.Contains(t, text, "Mon, Mar 10 2025")
	assert.Contains(t, text, "⚠️ Overdue\n• [High] Pay rent")
	assert.Contains(t, text, "⏳ Due soon\n• [Medium] Buy groceries\n   ⏰ Tomorrow (2025-03-11 08:00)\n   📝 milk")
	assert.Contains(t, text, "🟢 Upcoming\n• [Low] Renew passport\n   ⏰ Mar 20")
	assert.Contains(t, text, "✅ 1 completed")
	assert.NotContains(t, text, "Old chore")

	overdue := strings.Index(text, "Overdue")
	soon := strings.Index(text, "Due soon")
	upcoming := strings.Index(text, "Upcoming")
	assert.True(t, overdue < soon && soon < upcoming)
}

func TestReminderService_DailySummaryEmpty(t *testing.T) {
	svc, _ := setupTestService(t)

	text, err := NewReminderService(svc).DailySummary(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "No open tasks.")
	assert.NotContains(t, text, "completed")
}
