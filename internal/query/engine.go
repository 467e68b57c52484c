package query

import (
	"time"

	"golang.org/x/text/language"

	"smarttask/internal/clock"
	"smarttask/internal/model"
)

// Engine binds the pure query functions to a clock, a display location and a
// collation language.
type Engine struct {
	clock clock.Clock
	loc   *time.Location
	lang  language.Tag
}

type Option func(*Engine)

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLanguage sets the collation used for alphabetical sorting.
func WithLanguage(tag language.Tag) Option {
	return func(e *Engine) { e.lang = tag }
}

func NewEngine(clk clock.Clock, opts ...Option) *Engine {
	if clk == nil {
		clk = clock.System()
	}
	e := &Engine{clock: clk, loc: time.Local, lang: language.English}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Now() time.Time { return e.clock.Now() }

func (e *Engine) Location() *time.Location { return e.loc }

func (e *Engine) Sort(tasks []model.Task, key SortKey) []model.Task {
	return sortWith(tasks, key, e.lang)
}

func (e *Engine) Filter(tasks []model.Task, c Criteria) []model.Task {
	return Filter(tasks, c)
}

func (e *Engine) Apply(tasks []model.Task, v View) []model.Task {
	return e.Sort(Filter(tasks, v.Criteria), v.Sort)
}

func (e *Engine) Overdue(t model.Task) bool {
	return IsOverdue(t, e.clock.Now())
}

func (e *Engine) Status(t model.Task) DueStatus {
	return Status(t, e.clock.Now())
}

func (e *Engine) Label(due time.Time) string {
	return RelativeLabel(due, e.clock.Now(), e.loc)
}

func (e *Engine) Schedulable(due time.Time) bool {
	return Schedulable(due, e.clock.Now())
}
