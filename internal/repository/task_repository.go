package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"smarttask/internal/clock"
	"smarttask/internal/model"
	"smarttask/internal/query"
)

// defaultOrder is the native listing order: newest first. rowid breaks ties
// between tasks created within the same clock tick.
const defaultOrder = "created_at DESC, rowid DESC"

// TaskRepository handles CRUD for tasks. Writes are serialized; readers see
// either the state before or after any single write.
type TaskRepository struct {
	store *Store
	clock clock.Clock
	newID func() string
	mu    sync.RWMutex
}

func NewTaskRepository(store *Store, clk clock.Clock) *TaskRepository {
	if clk == nil {
		clk = clock.System()
	}
	return &TaskRepository{
		store: store,
		clock: clk,
		newID: func() string { return uuid.New().String() },
	}
}

// Create validates the input, assigns a fresh id and creation time and inserts the record.
func (r *TaskRepository) Create(ctx context.Context, input model.TaskInput) (string, error) {
	task, err := model.NewTask(input)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	db, err := r.store.DB(ctx)
	if err != nil {
		return "", err
	}

	task.ID = r.newID()
	task.CreatedAt = r.clock.Now().UTC()
	if err := db.WithContext(ctx).Create(&task).Error; err != nil {
		return "", storageErr("create task", err)
	}
	return task.ID, nil
}

// Get returns the stored record. A missing id is reported by ok=false, not an error.
func (r *TaskRepository) Get(ctx context.Context, id string) (*model.Task, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	db, err := r.store.DB(ctx)
	if err != nil {
		return nil, false, err
	}

	var task model.Task
	err = db.WithContext(ctx).Where("id = ?", id).Take(&task).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, storageErr("get task", err)
	}
	if err := normalize(&task); err != nil {
		return nil, false, err
	}
	return &task, true, nil
}

// List returns every task, newest first.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	return r.find(ctx, "list tasks", func(db *gorm.DB) *gorm.DB { return db })
}

// Search matches text case-insensitively against title or description, in
// list order. Matching happens here rather than in SQL: sqlite LIKE folds ASCII
// only, and list filtering must agree with search on non-ASCII titles.
func (r *TaskRepository) Search(ctx context.Context, text string) ([]model.Task, error) {
	tasks, err := r.find(ctx, "search tasks", func(db *gorm.DB) *gorm.DB { return db })
	if err != nil {
		return nil, err
	}
	found := tasks[:0]
	for _, t := range tasks {
		if query.MatchesText(t, text) {
			found = append(found, t)
		}
	}
	return found, nil
}

func (r *TaskRepository) ListByPriority(ctx context.Context, priority model.Priority) ([]model.Task, error) {
	return r.find(ctx, "list tasks by priority", func(db *gorm.DB) *gorm.DB {
		return db.Where("priority = ?", priority)
	})
}

func (r *TaskRepository) ListByCompletion(ctx context.Context, completed bool) ([]model.Task, error) {
	return r.find(ctx, "list tasks by completion", func(db *gorm.DB) *gorm.DB {
		return db.Where("is_completed = ?", completed)
	})
}

func (r *TaskRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	db, err := r.store.DB(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.WithContext(ctx).Model(&model.Task{}).Count(&n).Error; err != nil {
		return 0, storageErr("count tasks", err)
	}
	return n, nil
}

// Update applies only the fields present in the payload. An empty payload is a no-op.
func (r *TaskRepository) Update(ctx context.Context, id string, update model.TaskUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	update, err := update.Normalize()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	db, err := r.store.DB(ctx)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Task{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return storageErr("update task", err)
		}
		if n == 0 {
			return &model.NotFoundError{ID: id}
		}
		// RowsAffected is not checked: sqlite reports unchanged rows as affected
		// but other drivers may not, and existence is already established.
		if err := tx.Model(&model.Task{}).Where("id = ?", id).Updates(update.Columns()).Error; err != nil {
			return storageErr("update task", err)
		}
		return nil
	})
}

// Delete removes a task. Deleting an unknown id succeeds.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	db, err := r.store.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Where("id = ?", id).Delete(&model.Task{}).Error; err != nil {
		return storageErr("delete task", err)
	}
	return nil
}

func (r *TaskRepository) find(ctx context.Context, op string, scope func(*gorm.DB) *gorm.DB) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	db, err := r.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	var tasks []model.Task
	if err := scope(db.WithContext(ctx)).Order(defaultOrder).Find(&tasks).Error; err != nil {
		return nil, storageErr(op, err)
	}
	for i := range tasks {
		if err := normalize(&tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// normalize checks a record read from disk and pins its timestamps to UTC.
func normalize(task *model.Task) error {
	if err := task.CheckIntegrity(); err != nil {
		return err
	}
	task.DueDate = task.DueDate.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	return nil
}

func storageErr(op string, err error) error {
	var se *model.StorageError
	if errors.As(err, &se) {
		return err
	}
	// A column that cannot be decoded (e.g. a due date that is not a timestamp)
	// means the row itself is bad, not the medium. database/sql reports these
	// as untyped errors, so this depends on its "sql: Scan error" wording;
	// TestStorageErr pins it.
	if strings.Contains(err.Error(), "sql: Scan error") {
		return &model.DataIntegrityError{Reason: fmt.Sprintf("%s: %v", op, err)}
	}
	return &model.StorageError{Op: op, Err: err}
}
