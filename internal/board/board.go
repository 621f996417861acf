// Package board owns the dashboard's task collection. Every view is derived
// from the current collection, and every mutation is followed by a full
// re-fetch from the store.
package board

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/blueox/schedule/internal/models"
	"github.com/blueox/schedule/internal/schedule"
	"github.com/blueox/schedule/internal/store"
	log "github.com/sirupsen/logrus"
)

// Actor is the signed-in user performing a mutation.
type Actor struct {
	UserID string
	Role   schedule.Role
}

// Snapshot is a consistent copy of the board state.
type Snapshot struct {
	Tasks   []models.Task
	Err     error
	Loading bool
	Version uint64
}

// Board holds the current task collection loaded from a TaskStore.
type Board struct {
	store store.TaskStore

	mu      sync.RWMutex
	tasks   []models.Task
	err     error
	loading bool
	version uint64

	// writeMu serialises refreshes and pairs each mutation with its
	// re-fetch, so a List started before a write never lands after it.
	writeMu sync.Mutex

	subMu  sync.Mutex
	subs   map[int]chan uint64
	nextID int
}

// New returns an empty board over s. Call Refresh to load it.
func New(s store.TaskStore) *Board {
	return &Board{store: s, subs: make(map[int]chan uint64)}
}

// Refresh replaces the collection with a fresh List. On failure the
// collection is emptied and the error is kept as a DataFetchError.
func (b *Board) Refresh(ctx context.Context) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.refreshLocked(ctx)
}

// refreshLocked requires writeMu.
func (b *Board) refreshLocked(ctx context.Context) error {
	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	tasks, err := b.store.List(ctx)

	b.mu.Lock()
	b.loading = false
	if err != nil {
		b.tasks = nil
		b.err = &DataFetchError{Err: err}
	} else {
		b.tasks = tasks
		b.err = nil
	}
	b.version++
	version := b.version
	fetchErr := b.err
	b.mu.Unlock()

	if fetchErr != nil {
		log.WithError(err).Error("board: refresh failed")
	}
	b.broadcast(version)
	return fetchErr
}

// Snapshot copies the current state.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	tasks := make([]models.Task, len(b.tasks))
	copy(tasks, b.tasks)
	return Snapshot{Tasks: tasks, Err: b.err, Loading: b.loading, Version: b.version}
}

// Version is bumped after every refresh.
func (b *Board) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Tasks returns the current collection, or the fetch error.
func (b *Board) Tasks() ([]models.Task, error) {
	snap := b.Snapshot()
	if snap.Err != nil {
		return nil, snap.Err
	}
	return snap.Tasks, nil
}

// Stats aggregates the current collection. It returns nil stats when there
// are no tasks.
func (b *Board) Stats() (*schedule.Stats, error) {
	tasks, err := b.Tasks()
	if err != nil {
		return nil, err
	}
	return schedule.Aggregate(tasks), nil
}

// Charts derives the chart series from the current collection.
func (b *Board) Charts() (*schedule.Charts, error) {
	stats, err := b.Stats()
	if err != nil {
		return nil, err
	}
	return schedule.BuildCharts(stats), nil
}

// Table renders one page of the task table for state.
func (b *Board) Table(state schedule.TableState) (schedule.TableView, error) {
	tasks, err := b.Tasks()
	if err != nil {
		return schedule.TableView{}, err
	}
	return schedule.Recompute(tasks, state), nil
}

// Deadlines lists unfinished tasks ending within window days of today.
func (b *Board) Deadlines(today time.Time, window, limit int) ([]schedule.Deadline, error) {
	tasks, err := b.Tasks()
	if err != nil {
		return nil, err
	}
	return schedule.UpcomingDeadlines(tasks, today, window, limit), nil
}

// Progress reports per-sheet completion of the current collection.
func (b *Board) Progress() ([]schedule.PhaseProgress, error) {
	tasks, err := b.Tasks()
	if err != nil {
		return nil, err
	}
	return schedule.Progress(tasks), nil
}

// Revenue projects revenue per start month.
func (b *Board) Revenue() (schedule.RevenueSeries, error) {
	tasks, err := b.Tasks()
	if err != nil {
		return schedule.RevenueSeries{}, err
	}
	return schedule.Revenue(tasks), nil
}

// Add inserts a task. Editors and admins may add.
func (b *Board) Add(ctx context.Context, actor Actor, in store.TaskInput) error {
	if !schedule.CanAddJobs(actor.Role) {
		return ErrForbidden
	}
	in, err := prepare(in)
	if err != nil {
		return err
	}
	in.CreatedBy = actor.UserID
	return b.mutate(ctx, "insert", 0, func() error { return b.store.Insert(ctx, in) })
}

// Update replaces the editable fields of task id. Only admins may edit.
func (b *Board) Update(ctx context.Context, actor Actor, id uint, in store.TaskInput) error {
	if !schedule.CanEditJobs(actor.Role) {
		return ErrForbidden
	}
	in, err := prepare(in)
	if err != nil {
		return err
	}
	return b.mutate(ctx, "update", id, func() error { return b.store.Update(ctx, id, in) })
}

// Delete removes task id. Only admins may delete.
func (b *Board) Delete(ctx context.Context, actor Actor, id uint) error {
	if !schedule.CanDeleteJobs(actor.Role) {
		return ErrForbidden
	}
	return b.mutate(ctx, "delete", id, func() error { return b.store.Delete(ctx, id) })
}

// mutate runs op and, if it succeeds, re-fetches. A failed re-fetch is
// reported through the board state, not as a failed mutation.
func (b *Board) mutate(ctx context.Context, op string, id uint, fn func() error) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if err := fn(); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrReadOnly) {
			return err
		}
		log.WithError(err).WithField("op", op).WithField("id", id).Warn("board: mutation failed")
		return &MutationError{Op: op, ID: id, Err: err}
	}
	_ = b.refreshLocked(ctx)
	return nil
}

// prepare validates a form submission and fills defaults.
func prepare(in store.TaskInput) (store.TaskInput, error) {
	if strings.TrimSpace(in.Job) == "" {
		return in, invalid("Job name is required")
	}
	if in.Weeks != nil && *in.Weeks < 0 {
		return in, invalid("Weeks must not be negative")
	}
	if in.DailyRevenue != nil && *in.DailyRevenue < 0 {
		return in, invalid("Daily revenue must not be negative")
	}
	if strings.TrimSpace(in.Sheet) == "" {
		in.Sheet = schedule.DefaultSheet
	}
	if strings.TrimSpace(in.Status) == "" {
		in.Status = schedule.StatusScheduled
	}
	return in, nil
}

// Subscribe returns a channel that receives the board version after every
// refresh. Only the latest unread version is kept.
func (b *Board) Subscribe() (<-chan uint64, func()) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	ch := make(chan uint64, 1)
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.subMu.Lock()
			defer b.subMu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *Board) broadcast(version uint64) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		ch <- version
	}
}
