package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smarttask/internal/model"
)

// busyTimeoutMillis bounds how long a write waits on a locked database file.
const busyTimeoutMillis = 2000

// NewDB opens a SQLite database and runs migrations.
func NewDB(dsn string) (*gorm.DB, error) {
	return openDB(dsn, logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	))
}

func openDB(dsn string, dbLogger logger.Interface) (*gorm.DB, error) {
	if dsn == "" {
		return nil, &model.StorageError{Op: "open db", Err: errors.New("empty database path")}
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, &model.StorageError{Op: "open db", Err: err}
	}

	db, err := gorm.Open(sqlite.Open(withPragmas(dsn)), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, &model.StorageError{Op: "open db", Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, &model.StorageError{Op: "open db", Err: err}
	}
	// One connection keeps in-memory databases coherent and matches the
	// single-writer discipline of the repository.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Task{}); err != nil {
		_ = sqlDB.Close()
		return nil, &model.StorageError{Op: "migrate db", Err: err}
	}

	return db, nil
}

// withPragmas appends the busy timeout so a locked file fails fast instead of hanging.
func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") || strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d", dsn, sep, busyTimeoutMillis)
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// Store is the process-wide database handle. It opens lazily on first use and
// opening an already open store is a no-op.
type Store struct {
	dsn    string
	open   func(string) (*gorm.DB, error)
	mu     sync.Mutex
	db     *gorm.DB
	closed bool
}

func NewStore(dsn string) *Store {
	return &Store{dsn: dsn, open: NewDB}
}

// NewStoreWithLogger is NewStore with a custom gorm logger, mostly to silence tests.
func NewStoreWithLogger(dsn string, dbLogger logger.Interface) *Store {
	return &Store{dsn: dsn, open: func(dsn string) (*gorm.DB, error) { return openDB(dsn, dbLogger) }}
}

// Open initializes the schema if absent. Safe to call more than once.
func (s *Store) Open(ctx context.Context) error {
	_, err := s.DB(ctx)
	return err
}

// DB returns the initialized handle, opening the database on first use.
func (s *Store) DB(ctx context.Context) (*gorm.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.StorageError{Op: "open db", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &model.StorageError{Op: "open db", Err: errors.New("store is closed")}
	}
	if s.db != nil {
		return s.db, nil
	}

	db, err := s.open(s.dsn)
	if err != nil {
		return nil, err
	}
	s.db = db
	log.Printf("[info] task store opened path=%s", s.dsn)
	return s.db, nil
}

// Close releases the handle. Later calls fail with a StorageError.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return &model.StorageError{Op: "close db", Err: err}
	}
	if err := sqlDB.Close(); err != nil {
		return &model.StorageError{Op: "close db", Err: err}
	}
	return nil
}
