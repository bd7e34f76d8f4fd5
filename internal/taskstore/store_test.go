package taskstore

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/bainianlaoyao/potatolism/internal/db"
	"github.com/bainianlaoyao/potatolism/internal/model"
)

func newTestStore(t *testing.T) (*Store, *db.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	s := New(database)
	s.saveDelay = 10 * time.Millisecond
	return s, database
}

func TestAddDerivesScheduleAndUrgency(t *testing.T) {
	s, _ := newTestStore(t)
	deadline := time.Now().Add(time.Hour).UnixMilli()

	task := s.Add(model.Draft{Name: "urgent work", EstimatedTime: 30, Deadline: &deadline})

	if task.ID == "" || task.Timestamp == 0 {
		t.Fatalf("id/timestamp not stamped: %+v", task)
	}
	want := []model.CycleItem{{Minutes: 25, Phase: model.PhaseFocus}, {Minutes: 5, Phase: model.PhaseRest}, {Minutes: 100, Phase: model.PhaseEnd}}
	if len(task.CycleList) != len(want) {
		t.Fatalf("cycle list = %v, want %v", task.CycleList, want)
	}
	if !task.Urgent {
		t.Error("one-hour deadline must mark task urgent")
	}
	if len(s.Tasks()) != 1 {
		t.Errorf("store holds %d tasks", len(s.Tasks()))
	}
}

func TestUpdateRegeneratesCycleAndClearsTimeUp(t *testing.T) {
	s, _ := newTestStore(t)
	task := s.Add(model.Draft{Name: "work", EstimatedTime: 30})
	_, err := s.Update(task.ID, Patch{TimeUp: boolPtr(true)})
	if err != nil {
		t.Fatal(err)
	}

	long := true
	minutes := 60
	updated, err := s.Update(task.ID, Patch{EstimatedTime: &minutes, LongCycle: &long})
	if err != nil {
		t.Fatal(err)
	}

	if updated.TimeUp {
		t.Error("touching the estimate must clear time_up")
	}
	want := []model.CycleItem{{Minutes: 50, Phase: model.PhaseFocus}, {Minutes: 10, Phase: model.PhaseRest}, {Minutes: 100, Phase: model.PhaseEnd}}
	for i, item := range want {
		if updated.CycleList[i] != item {
			t.Fatalf("cycle list = %v, want %v", updated.CycleList, want)
		}
	}
}

func TestUpdateNameLeavesScheduleAlone(t *testing.T) {
	s, _ := newTestStore(t)
	task := s.Add(model.Draft{Name: "work", EstimatedTime: 30})

	name := "renamed"
	updated, err := s.Update(task.ID, Patch{Name: &name})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "renamed" {
		t.Errorf("name = %q", updated.Name)
	}
	if len(updated.CycleList) != len(task.CycleList) {
		t.Error("schedule must not regenerate on a name-only patch")
	}
}

func TestUpdateDeadlineRecomputesUrgency(t *testing.T) {
	s, _ := newTestStore(t)
	task := s.Add(model.Draft{Name: "work", EstimatedTime: 30})

	near := time.Now().Add(time.Hour).UnixMilli()
	updated, err := s.Update(task.ID, Patch{TouchDeadline: true, Deadline: &near})
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Urgent {
		t.Error("near deadline must set urgent")
	}

	updated, err = s.Update(task.ID, Patch{TouchDeadline: true, Deadline: nil})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Urgent {
		t.Error("clearing the deadline must clear urgent")
	}
	if updated.Deadline != nil {
		t.Error("deadline not cleared")
	}
}

func TestUpdateMissingID(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Update("nope", Patch{}); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestToggleCompletedStampsTimestamp(t *testing.T) {
	s, _ := newTestStore(t)

	clock := time.Now()
	s.now = func() time.Time { return clock }
	task := s.Add(model.Draft{Name: "work"})

	clock = clock.Add(time.Minute)
	toggled, err := s.ToggleCompleted(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !toggled.Completed {
		t.Error("first toggle must complete the task")
	}
	if toggled.Timestamp <= task.Timestamp {
		t.Error("toggle must stamp a fresh timestamp")
	}

	toggled, err = s.ToggleCompleted(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if toggled.Completed {
		t.Error("second toggle must reopen the task")
	}

	if _, err := s.ToggleCompleted("nope"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	s, _ := newTestStore(t)
	task := s.Add(model.Draft{Name: "work"})

	if !s.Remove(task.ID) {
		t.Fatal("remove reported failure")
	}
	if s.Remove(task.ID) {
		t.Error("second remove must report false")
	}
	if len(s.Tasks()) != 0 {
		t.Error("task still present")
	}
}

func TestLoadFallsBackToDefaultTask(t *testing.T) {
	t.Run("empty slot", func(t *testing.T) {
		s, _ := newTestStore(t)
		s.Load()
		tasks := s.Tasks()
		if len(tasks) != 1 || tasks[0].Name != "default" {
			t.Errorf("expected single default task, got %+v", tasks)
		}
	})

	t.Run("corrupt slot", func(t *testing.T) {
		s, database := newTestStore(t)
		if err := database.PutSlot(db.SlotTasks, "{not json"); err != nil {
			t.Fatal(err)
		}
		s.Load()
		tasks := s.Tasks()
		if len(tasks) != 1 || tasks[0].Name != "default" {
			t.Errorf("expected single default task, got %+v", tasks)
		}
	})
}

func TestLoadRecomputesUrgency(t *testing.T) {
	s, database := newTestStore(t)

	far := time.Now().Add(48 * time.Hour).UnixMilli()
	stale := []model.Task{{ID: "t1", Name: "x", Deadline: &far, Urgent: true, Timestamp: 1}}
	raw, _ := json.Marshal(stale)
	if err := database.PutSlot(db.SlotTasks, string(raw)); err != nil {
		t.Fatal(err)
	}

	s.Load()
	if s.Tasks()[0].Urgent {
		t.Error("stale urgent flag must clear on load")
	}
}

func TestDebouncedSaveCoalescesAndPersists(t *testing.T) {
	s, database := newTestStore(t)

	s.Add(model.Draft{Name: "one"})
	s.Add(model.Draft{Name: "two"})

	// Before the debounce window elapses nothing is durable yet.
	if _, ok, _ := database.GetSlot(db.SlotTasks); ok {
		t.Error("save fired before the debounce delay")
	}

	time.Sleep(5 * s.saveDelay)

	raw, ok, err := database.GetSlot(db.SlotTasks)
	if err != nil || !ok {
		t.Fatalf("slot not written: ok=%v err=%v", ok, err)
	}
	var persisted []model.Task
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("persisted payload unreadable: %v", err)
	}
	if len(persisted) != 2 {
		t.Errorf("persisted %d tasks, want 2", len(persisted))
	}
}

func TestFlushWritesImmediately(t *testing.T) {
	s, database := newTestStore(t)
	s.saveDelay = time.Hour // debounce would never fire in this test

	s.Add(model.Draft{Name: "one"})
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := database.GetSlot(db.SlotTasks); !ok {
		t.Error("flush did not persist")
	}
}

func boolPtr(v bool) *bool { return &v }
