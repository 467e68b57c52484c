package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"smarttask/internal/model"
)

// Format is a textual export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q", raw)
}

// exportRecord mirrors model.Task with timestamps as ISO-8601 strings.
type exportRecord struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	DueDate     string `json:"dueDate" yaml:"dueDate"`
	Priority    string `json:"priority" yaml:"priority"`
	IsCompleted bool   `json:"isCompleted" yaml:"isCompleted"`
	CreatedAt   string `json:"createdAt" yaml:"createdAt"`
}

// TransferService exports the store as an array of records and imports it back.
type TransferService struct {
	tasks *TaskService
}

func NewTransferService(tasks *TaskService) *TransferService {
	return &TransferService{tasks: tasks}
}

// Export writes every task, newest first, in the given format.
func (s *TransferService) Export(ctx context.Context, w io.Writer, format Format) (int, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return 0, err
	}

	records := make([]exportRecord, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, exportRecord{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			DueDate:     t.DueDate.UTC().Format(time.RFC3339Nano),
			Priority:    string(t.Priority),
			IsCompleted: t.IsCompleted,
			CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return 0, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return 0, fmt.Errorf("encode yaml: %w", err)
		}
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return 0, fmt.Errorf("encode json: %w", err)
		}
	}
	log.Printf("[info] exported %d tasks format=%s", len(records), format)
	return len(records), nil
}

// Import re-creates every record through CreateTask. Ids and creation times are
// reassigned so imported data can never collide with existing tasks. The first
// invalid record stops the import; records before it stay imported.
func (s *TransferService) Import(ctx context.Context, r io.Reader, format Format) (int, error) {
	var records []exportRecord
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&records); err != nil && err != io.EOF {
			return 0, &model.ValidationError{Field: "import", Reason: fmt.Sprintf("decode yaml: %v", err)}
		}
	default:
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return 0, &model.ValidationError{Field: "import", Reason: fmt.Sprintf("decode json: %v", err)}
		}
	}

	imported := 0
	for i, rec := range records {
		input, err := rec.toInput()
		if err != nil {
			return imported, fmt.Errorf("record %d: %w", i, err)
		}
		if _, err := s.tasks.CreateTask(ctx, input); err != nil {
			return imported, fmt.Errorf("record %d: %w", i, err)
		}
		imported++
	}
	log.Printf("[info] imported %d tasks format=%s", imported, format)
	return imported, nil
}

func (rec exportRecord) toInput() (model.TaskInput, error) {
	due, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(rec.DueDate))
	if err != nil {
		return model.TaskInput{}, &model.ValidationError{Field: "dueDate", Reason: fmt.Sprintf("not an ISO-8601 timestamp: %q", rec.DueDate)}
	}
	var priority model.Priority
	if strings.TrimSpace(rec.Priority) != "" {
		if priority, err = model.ParsePriority(rec.Priority); err != nil {
			return model.TaskInput{}, err
		}
	}
	return model.TaskInput{
		Title:       rec.Title,
		Description: rec.Description,
		DueDate:     due,
		Priority:    priority,
		IsCompleted: model.Ptr(rec.IsCompleted),
	}, nil
}
