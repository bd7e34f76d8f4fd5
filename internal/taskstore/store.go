// Package taskstore owns the local authoritative task replica. All
// lifecycle operations stamp the task's modification timestamp,
// re-derive the schedule and urgency where relevant, and schedule a
// coalesced write of the whole collection to the local slot.
package taskstore

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/bainianlaoyao/potatolism/internal/db"
	"github.com/bainianlaoyao/potatolism/internal/logger"
	"github.com/bainianlaoyao/potatolism/internal/model"
)

// ErrNotFound is returned when an operation names an id that is not in
// the replica.
var ErrNotFound = errors.New("task not found")

const defaultSaveDelay = 500 * time.Millisecond

// Store is the in-memory task replica backed by a durable local slot.
type Store struct {
	mu        sync.Mutex
	tasks     []model.Task
	database  *db.DB
	saveDelay time.Duration
	saveTimer *time.Timer
	now       func() time.Time
}

// New creates a store persisting to the given database. Call Load
// before use.
func New(database *db.DB) *Store {
	return &Store{
		database:  database,
		saveDelay: defaultSaveDelay,
		now:       time.Now,
	}
}

// Load reads the replica from the local slot. An empty or unreadable
// slot falls back to the single built-in default task; this boundary
// never fails. Urgency is recomputed for every loaded task.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	raw, ok, err := s.database.GetSlot(db.SlotTasks)
	if err != nil {
		logger.Error("Failed to read task slot, using default task", logger.F("error", err))
		s.tasks = []model.Task{model.DefaultTask(now)}
		return
	}
	if !ok {
		s.tasks = []model.Task{model.DefaultTask(now)}
		return
	}

	var tasks []model.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		logger.Error("Failed to parse task slot, using default task", logger.F("error", err))
		s.tasks = []model.Task{model.DefaultTask(now)}
		return
	}

	model.UpdateAllUrgency(tasks, now)
	s.tasks = tasks
}

// Tasks returns a copy of the current collection.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Completed returns the completed tasks.
func (s *Store) Completed() []model.Task {
	return s.filter(func(t model.Task) bool { return t.Completed })
}

// Pending returns the tasks still open.
func (s *Store) Pending() []model.Task {
	return s.filter(func(t model.Task) bool { return !t.Completed })
}

func (s *Store) filter(keep func(model.Task) bool) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Task
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// Add creates a task from the draft and appends it to the replica.
func (s *Store) Add(draft model.Draft) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := model.New(draft, s.now())
	s.tasks = append(s.tasks, task)
	s.scheduleSave()
	return task
}

// AddInfinite appends a fresh open-ended focus task.
func (s *Store) AddInfinite() model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := model.InfiniteTask(s.now())
	s.tasks = append(s.tasks, task)
	s.scheduleSave()
	return task
}

// Update applies a patch to the task with the given id, stamping a
// fresh timestamp. Returns ErrNotFound if the id is absent.
func (s *Store) Update(id string, patch Patch) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tasks {
		if t.ID != id {
			continue
		}
		updated := applyPatch(t, patch, s.now())
		s.tasks[i] = updated
		s.scheduleSave()
		return updated, nil
	}
	return model.Task{}, ErrNotFound
}

// ToggleCompleted flips the completed flag through the same update
// path as every other mutation, so timestamping stays centralized.
func (s *Store) ToggleCompleted(id string) (model.Task, error) {
	current, ok := s.Get(id)
	if !ok {
		return model.Task{}, ErrNotFound
	}
	flipped := !current.Completed
	return s.Update(id, Patch{Completed: &flipped})
}

// Remove deletes the task from the local collection. No tombstone is
// written: if the server still holds the id, the next sync brings the
// task back.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			s.scheduleSave()
			return true
		}
	}
	return false
}

// RecomputeUrgency re-evaluates the urgent flag for every task.
func (s *Store) RecomputeUrgency() {
	s.mu.Lock()
	defer s.mu.Unlock()

	model.UpdateAllUrgency(s.tasks, s.now())
	s.scheduleSave()
}

// ReplaceAll overwrites the whole collection, typically with the
// reconciled set returned by a sync.
func (s *Store) ReplaceAll(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make([]model.Task, len(tasks))
	copy(s.tasks, tasks)
	s.scheduleSave()
}

// scheduleSave arms a trailing-edge debounced write: rapid successive
// mutations collapse into one save. Callers must hold s.mu.
func (s *Store) scheduleSave() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.saveDelay, func() {
		if err := s.save(); err != nil {
			logger.Error("Failed to save tasks", logger.F("error", err))
		}
	})
}

func (s *Store) save() error {
	s.mu.Lock()
	data, err := json.Marshal(s.tasks)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.database.PutSlot(db.SlotTasks, string(data))
}

// Flush cancels any pending debounced save and writes immediately.
func (s *Store) Flush() error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.mu.Unlock()
	return s.save()
}
