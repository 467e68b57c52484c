package cli

import (
	"smarttask/internal/clock"
	"smarttask/internal/config"
	"smarttask/internal/query"
	"smarttask/internal/repository"
	"smarttask/internal/service"
)

// App aggregates the services the commands work with. It is built once per
// process and passed down; nothing reaches for global state.
type App struct {
	Config    config.Config
	Clock     clock.Clock
	Store     *repository.Store
	Repo      *repository.TaskRepository
	Engine    *query.Engine
	Tasks     *service.TaskService
	Transfer  *service.TransferService
	Reminders *service.ReminderService
}

// Builder creates the App once configuration is known.
type Builder func(cfg config.Config) (*App, error)

// NewApp wires the store, query engine and services for cfg.
func NewApp(cfg config.Config, clk clock.Clock) *App {
	return newApp(cfg, clk, repository.NewStore(cfg.DatabasePath))
}

func newApp(cfg config.Config, clk clock.Clock, store *repository.Store) *App {
	if clk == nil {
		clk = clock.System()
	}
	engine := query.NewEngine(clk, query.WithLocation(cfg.Location))
	repo := repository.NewTaskRepository(store, clk)
	tasks := service.NewTaskService(repo, engine)
	return &App{
		Config:    cfg,
		Clock:     clk,
		Store:     store,
		Repo:      repo,
		Engine:    engine,
		Tasks:     tasks,
		Transfer:  service.NewTransferService(tasks),
		Reminders: service.NewReminderService(tasks),
	}
}

// DefaultBuilder opens the configured database with the system clock.
func DefaultBuilder(cfg config.Config) (*App, error) {
	return NewApp(cfg, clock.System()), nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
