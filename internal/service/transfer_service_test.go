package service

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"smarttask/internal/model"
)

func seed(t *testing.T, svc *TaskService, inputs ...model.TaskInput) []string {
	t.Helper()
	var ids []string
	for _, in := range inputs {
		id, err := svc.CreateTask(context.Background(), in)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func sampleInputs() []model.TaskInput {
	return []model.TaskInput{
		{Title: "Buy groceries", Description: "milk, eggs", DueDate: now.Add(24 * time.Hour), Priority: model.PriorityHigh},
		{Title: "Call mom", DueDate: now.Add(-2 * time.Hour), Priority: model.PriorityLow, IsCompleted: model.Ptr(true)},
		{Title: "Gym", DueDate: now.Add(90 * time.Minute)},
	}
}

type snapshot struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    model.Priority
	IsCompleted bool
}

func snapshots(tasks []model.Task) []snapshot {
	out := make([]snapshot, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, snapshot{t.Title, t.Description, t.DueDate.UTC(), t.Priority, t.IsCompleted})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func TestTransfer_ExportJSONShape(t *testing.T) {
	svc, _ := setupTestService(t)
	ids := seed(t, svc, sampleInputs()[0])

	var buf bytes.Buffer
	n, err := NewTransferService(svc).Export(context.Background(), &buf, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {"), "two-space indented array")

	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, ids[0], raw[0]["id"])
	assert.Equal(t, "Buy groceries", raw[0]["title"])
	assert.Equal(t, "2025-03-11T08:00:00Z", raw[0]["dueDate"])
	assert.Equal(t, "High", raw[0]["priority"])
	assert.Equal(t, false, raw[0]["isCompleted"])
	assert.Equal(t, "2025-03-10T08:00:00Z", raw[0]["createdAt"])
}

func TestTransfer_ExportEmpty(t *testing.T) {
	svc, _ := setupTestService(t)

	var buf bytes.Buffer
	n, err := NewTransferService(svc).Export(context.Background(), &buf, FormatJSON)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "[]\n", buf.String())
}

func TestTransfer_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			src, _ := setupTestService(t)
			seed(t, src, sampleInputs()...)

			var buf bytes.Buffer
			n, err := NewTransferService(src).Export(context.Background(), &buf, format)
			require.NoError(t, err)
			require.Equal(t, 3, n)

			dst, clk := setupTestService(t)
			clk.Advance(time.Hour)
			imported, err := NewTransferService(dst).Import(context.Background(), &buf, format)
			require.NoError(t, err)
			assert.Equal(t, 3, imported)

			before, err := src.ListTasks(context.Background())
			require.NoError(t, err)
			after, err := dst.ListTasks(context.Background())
			require.NoError(t, err)
			assert.Equal(t, snapshots(before), snapshots(after))

			oldIDs := map[string]bool{}
			for _, tk := range before {
				oldIDs[tk.ID] = true
			}
			for _, tk := range after {
				assert.False(t, oldIDs[tk.ID], "ids are reassigned")
				assert.True(t, tk.CreatedAt.Equal(now.Add(time.Hour)), "createdAt is reassigned")
			}
		})
	}
}

func TestTransfer_ImportIntoSameStoreDoubles(t *testing.T) {
	svc, _ := setupTestService(t)
	seed(t, svc, sampleInputs()...)
	transfer := NewTransferService(svc)

	var buf bytes.Buffer
	_, err := transfer.Export(context.Background(), &buf, FormatJSON)
	require.NoError(t, err)
	_, err = transfer.Import(context.Background(), &buf, FormatJSON)
	require.NoError(t, err)

	tasks, err := svc.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 6)
}

func TestTransfer_ImportDefaultsPriority(t *testing.T) {
	svc, _ := setupTestService(t)
	in := `[{"title":"no priority","dueDate":"2025-03-12T10:00:00+02:00"}]`

	n, err := NewTransferService(svc).Import(context.Background(), strings.NewReader(in), FormatJSON)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	tasks, err := svc.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.PriorityMedium, tasks[0].Priority)
	assert.True(t, tasks[0].DueDate.Equal(time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)))
}

func TestTransfer_ImportStopsAtFirstInvalidRecord(t *testing.T) {
	svc, _ := setupTestService(t)
	in := `[
  {"title":"first","dueDate":"2025-03-12T10:00:00Z","priority":"Low"},
  {"title":"","dueDate":"2025-03-12T10:00:00Z"},
  {"title":"third","dueDate":"2025-03-12T10:00:00Z"}
]`

	n, err := NewTransferService(svc).Import(context.Background(), strings.NewReader(in), FormatJSON)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "record 1")
	assert.Equal(t, 1, n)

	tasks, err := svc.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "first", tasks[0].Title)
}

func TestTransfer_ImportRejectsBadInput(t *testing.T) {
	svc, _ := setupTestService(t)
	transfer := NewTransferService(svc)

	tests := []struct {
		name   string
		in     string
		format Format
	}{
		{"malformed json", `{not json`, FormatJSON},
		{"object not array", `{"title":"x"}`, FormatJSON},
		{"bad date", `[{"title":"x","dueDate":"tomorrow"}]`, FormatJSON},
		{"bad priority", `[{"title":"x","dueDate":"2025-03-12T10:00:00Z","priority":"Urgent"}]`, FormatJSON},
		{"malformed yaml", "- title: [unclosed", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transfer.Import(context.Background(), strings.NewReader(tt.in), tt.format)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestTransfer_YAMLFieldNames(t *testing.T) {
	svc, _ := setupTestService(t)
	seed(t, svc, sampleInputs()[2])

	var buf bytes.Buffer
	_, err := NewTransferService(svc).Export(context.Background(), &buf, FormatYAML)
	require.NoError(t, err)

	var raw []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &raw))
	require.Len(t, raw, 1)
	for _, key := range []string{"id", "title", "description", "dueDate", "priority", "isCompleted", "createdAt"} {
		assert.Contains(t, raw[0], key)
	}
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yaml": FormatYAML, "yml": FormatYAML} {
		got, err := ParseFormat(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}
