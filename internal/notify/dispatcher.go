package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"smarttask/internal/clock"
	"smarttask/internal/model"
	"smarttask/internal/query"
	"smarttask/internal/service"
)

var (
	ErrPastDue         = errors.New("cannot schedule a reminder at or before now")
	ErrUnknownReminder = errors.New("no reminder for task")
)

type pending struct {
	reminder service.Reminder
	fireAt   time.Time
	snoozed  bool
}

// Dispatcher keeps the set of scheduled reminders and delivers the ones that
// are due on every Tick. Each (task, due date) pair is delivered once;
// snoozing re-arms it.
type Dispatcher struct {
	notifier Notifier
	clock    clock.Clock
	lead     time.Duration
	loc      *time.Location
	catchUp  time.Duration

	mu      sync.Mutex
	pending map[string]pending
	sent    map[string]service.Reminder
}

func NewDispatcher(notifier Notifier, clk clock.Clock, lead time.Duration, loc *time.Location) *Dispatcher {
	if clk == nil {
		clk = clock.System()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Dispatcher{
		notifier: notifier,
		clock:    clk,
		lead:     lead,
		loc:      loc,
		pending:  make(map[string]pending),
		sent:     make(map[string]service.Reminder),
	}
}

// Schedule arms a reminder for r.DueDate minus the configured lead.
// Due dates at or before now are rejected.
func (d *Dispatcher) Schedule(r service.Reminder) error {
	now := d.clock.Now()
	if !query.Schedulable(r.DueDate, now) {
		return fmt.Errorf("schedule %s: %w", r.ID, ErrPastDue)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.sent[r.ID]; ok && last.DueDate.Equal(r.DueDate) {
		return nil
	}
	delete(d.sent, r.ID)

	fireAt := r.DueDate.Add(-d.lead)
	if fireAt.Before(now) {
		fireAt = now
	}
	d.pending[r.ID] = pending{reminder: r, fireAt: fireAt}
	return nil
}

// CatchUp lets Sync arm reminders whose due date passed less than window ago.
// A polling process uses its poll interval so nothing due between two polls is lost.
func (d *Dispatcher) CatchUp(window time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if window < 0 {
		window = 0
	}
	d.catchUp = window
}

// Cancel drops a pending reminder. Unknown ids are ignored.
func (d *Dispatcher) Cancel(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, id)
}

// Snooze re-arms a reminder to fire again after the given delay, whether or
// not it has already been delivered.
func (d *Dispatcher) Snooze(id string, after time.Duration) error {
	if after <= 0 {
		return fmt.Errorf("snooze must be positive, got %s", after)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[id]
	if !ok {
		last, wasSent := d.sent[id]
		if !wasSent {
			return fmt.Errorf("snooze %s: %w", id, ErrUnknownReminder)
		}
		p = pending{reminder: last}
	}
	p.fireAt = d.clock.Now().Add(after)
	p.snoozed = true
	d.pending[id] = p
	return nil
}

// Sync reconciles the pending set with the reminders of every open task.
// Entries for tasks no longer open are dropped and future due dates (or ones
// inside the catch-up window) are armed. Delivered pairs are not re-armed and
// snoozed entries are kept.
func (d *Dispatcher) Sync(open []service.Reminder) {
	now := d.clock.Now()
	byID := make(map[string]service.Reminder, len(open))
	for _, r := range open {
		byID[r.ID] = r
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for id := range d.pending {
		if _, ok := byID[id]; !ok {
			delete(d.pending, id)
		}
	}
	for id := range d.sent {
		if _, ok := byID[id]; !ok {
			delete(d.sent, id)
		}
	}
	for id, r := range byID {
		if !query.Schedulable(r.DueDate, now.Add(-d.catchUp)) {
			continue
		}
		if last, ok := d.sent[id]; ok && last.DueDate.Equal(r.DueDate) {
			continue
		}
		if p, ok := d.pending[id]; ok && p.snoozed {
			continue
		}
		fireAt := r.DueDate.Add(-d.lead)
		if fireAt.Before(now) {
			fireAt = now
		}
		d.pending[id] = pending{reminder: r, fireAt: fireAt}
	}
}

// Pending lists armed reminders, earliest first.
func (d *Dispatcher) Pending() []service.Reminder {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]service.Reminder, 0, len(d.pending))
	for _, p := range d.pending {
		out = append(out, p.reminder)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

// Tick delivers every reminder whose fire time has come and returns how many
// were sent. Failed deliveries stay pending for the next tick.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	now := d.clock.Now()

	d.mu.Lock()
	var ready []pending
	for _, p := range d.pending {
		if !p.fireAt.After(now) {
			ready = append(ready, p)
		}
	}
	d.mu.Unlock()

	sort.Slice(ready, func(i, j int) bool { return ready[i].fireAt.Before(ready[j].fireAt) })

	sent := 0
	var errs []error
	for _, p := range ready {
		if err := d.notifier.Notify(ctx, d.message(p, now)); err != nil {
			errs = append(errs, fmt.Errorf("reminder %s: %w", p.reminder.ID, err))
			continue
		}
		d.mu.Lock()
		// A concurrent Schedule/Snooze may have re-armed the entry meanwhile.
		if cur, ok := d.pending[p.reminder.ID]; ok && cur.fireAt.Equal(p.fireAt) {
			delete(d.pending, p.reminder.ID)
		}
		d.sent[p.reminder.ID] = p.reminder
		d.mu.Unlock()
		sent++
		log.Printf("[info] reminder sent task=%s snoozed=%t", p.reminder.ID, p.snoozed)
	}
	return sent, errors.Join(errs...)
}

func (d *Dispatcher) message(p pending, now time.Time) Message {
	title := "📋 Task Reminder"
	if p.snoozed {
		title = "🔔 Snoozed Reminder"
	}
	return Message{
		TaskID: p.reminder.ID,
		Title:  title,
		Body: fmt.Sprintf("%s\n⏰ %s, %s", p.reminder.Title,
			query.RelativeLabel(p.reminder.DueDate, now, d.loc),
			p.reminder.DueDate.In(d.loc).Format("15:04")),
	}
}

// TaskCreated arms a reminder for a new open task with a future due date.
func (d *Dispatcher) TaskCreated(t model.Task) {
	if t.IsCompleted {
		return
	}
	if err := d.Schedule(service.ReminderFor(t)); err != nil && !errors.Is(err, ErrPastDue) {
		log.Printf("schedule reminder: %v", err)
	}
}

// TaskUpdated cancels reminders for completed tasks and re-arms reopened or
// rescheduled ones.
func (d *Dispatcher) TaskUpdated(t model.Task) {
	if t.IsCompleted || !query.Schedulable(t.DueDate, d.clock.Now()) {
		d.Cancel(t.ID)
		return
	}
	if err := d.Schedule(service.ReminderFor(t)); err != nil && !errors.Is(err, ErrPastDue) {
		log.Printf("schedule reminder: %v", err)
	}
}

func (d *Dispatcher) TaskDeleted(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, id)
	delete(d.sent, id)
}
