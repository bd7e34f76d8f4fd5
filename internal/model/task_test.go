package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestCycleItemJSONRoundTrip(t *testing.T) {
	list := []CycleItem{{25, PhaseFocus}, {5, PhaseRest}, {100, PhaseEnd}}

	data, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(data), `[[25,"focus"],[5,"rest"],[100,"end"]]`; got != want {
		t.Errorf("wire format %s, want %s", got, want)
	}

	var back []CycleItem
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != 3 || back[0] != list[0] || back[2] != list[2] {
		t.Errorf("round trip lost data: %v", back)
	}
}

func TestCycleItemUnmarshalRejectsBadShapes(t *testing.T) {
	for _, raw := range []string{`"focus"`, `[25]`, `[{"a":1},"focus"]`} {
		var item CycleItem
		if err := json.Unmarshal([]byte(raw), &item); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}

func TestNewTask(t *testing.T) {
	now := time.Now()
	deadline := now.Add(time.Hour).UnixMilli()

	task := New(Draft{
		Name:          "  write report  ",
		EstimatedTime: 60,
		Deadline:      &deadline,
		Description:   " quarterly numbers ",
	}, now)

	if task.ID == "" {
		t.Error("id must be assigned")
	}
	if task.Name != "write report" || task.Description != "quarterly numbers" {
		t.Errorf("strings not trimmed: %q / %q", task.Name, task.Description)
	}
	if task.Timestamp != now.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", task.Timestamp, now.UnixMilli())
	}
	if len(task.CycleList) == 0 || task.CycleList[len(task.CycleList)-1].Phase != PhaseEnd {
		t.Errorf("cycle list not generated: %v", task.CycleList)
	}
	if !task.Urgent {
		t.Error("deadline one hour out must mark the task urgent")
	}

	other := New(Draft{Name: "x"}, now)
	if other.ID == task.ID {
		t.Error("ids must be unique")
	}
	if other.Urgent {
		t.Error("no deadline, not urgent")
	}
}

func TestNormalize(t *testing.T) {
	now := time.Now()

	t.Run("blank name gets placeholder", func(t *testing.T) {
		task := Task{Name: "   ", Timestamp: now.UnixMilli()}
		task.Normalize(now)
		if task.Name != "Untitled" {
			t.Errorf("name = %q", task.Name)
		}
	})

	t.Run("missing timestamp defaults to now", func(t *testing.T) {
		task := Task{Name: "x"}
		task.Normalize(now)
		if task.Timestamp != now.UnixMilli() {
			t.Errorf("timestamp = %d", task.Timestamp)
		}
	})

	t.Run("second-resolution values scale to millis", func(t *testing.T) {
		sec := int64(1_700_000_000)
		task := Task{Name: "x", Timestamp: sec, Deadline: &sec}
		task.Normalize(now)
		if task.Timestamp != sec*1000 {
			t.Errorf("timestamp = %d", task.Timestamp)
		}
		if *task.Deadline != sec*1000 {
			t.Errorf("deadline = %d", *task.Deadline)
		}
	})

	t.Run("nil cycle list becomes empty", func(t *testing.T) {
		task := Task{Name: "x", Timestamp: now.UnixMilli()}
		task.Normalize(now)
		if task.CycleList == nil {
			t.Error("cycle list still nil")
		}
	})
}

func TestDefaultAndInfiniteTasks(t *testing.T) {
	now := time.Now()

	def := DefaultTask(now)
	if def.Name != "default" || def.EstimatedTime != 1 {
		t.Errorf("unexpected default task: %+v", def)
	}
	if def.CycleList[len(def.CycleList)-1].Phase != PhaseEnd {
		t.Error("default task schedule must end with sentinel")
	}

	inf := InfiniteTask(now)
	if inf.Name != "infinite" || !inf.LongCycle {
		t.Errorf("unexpected infinite task: %+v", inf)
	}
	for _, item := range inf.CycleList {
		if item.Phase == PhaseEnd {
			t.Error("infinite task must not carry an end sentinel")
		}
	}
	if strings.EqualFold(def.ID, inf.ID) {
		t.Error("ids must differ")
	}
}
