package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Phase is the kind of a cycle segment.
type Phase string

const (
	PhaseFocus Phase = "focus"
	PhaseRest  Phase = "rest"
	PhaseEnd   Phase = "end"
)

// CycleItem is one segment of a task's pomodoro schedule. It is
// serialized as a two-element JSON array [minutes, phase] to stay
// compatible with the web client's wire format.
type CycleItem struct {
	Minutes int
	Phase   Phase
}

// MarshalJSON renders the item as [minutes, "phase"].
func (c CycleItem) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Minutes, string(c.Phase)})
}

// UnmarshalJSON accepts [minutes, "phase"] with minutes as any JSON number.
func (c *CycleItem) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cycle item must be an array: %w", err)
	}
	if len(raw) < 2 {
		return fmt.Errorf("cycle item needs 2 elements, got %d", len(raw))
	}
	var minutes float64
	if err := json.Unmarshal(raw[0], &minutes); err != nil {
		return fmt.Errorf("cycle item duration: %w", err)
	}
	var phase string
	if err := json.Unmarshal(raw[1], &phase); err != nil {
		return fmt.Errorf("cycle item phase: %w", err)
	}
	c.Minutes = int(minutes)
	c.Phase = Phase(phase)
	return nil
}

// Task is the central entity: one tracked unit of work with its derived
// pomodoro schedule. Timestamps are unix milliseconds; Timestamp is the
// last local modification instant and the sole conflict-resolution key.
type Task struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	EstimatedTime int         `json:"estimatedTime"`
	LongCycle     bool        `json:"longCycle"`
	CycleList     []CycleItem `json:"cycleList"`
	Progress      float64     `json:"progress"`
	Deadline      *int64      `json:"deadline"`
	Completed     bool        `json:"completed"`
	TimeUp        bool        `json:"time_up"`
	Urgent        bool        `json:"urgent"`
	Important     bool        `json:"important"`
	Description   string      `json:"description"`
	Timestamp     int64       `json:"timestamp"`
}

// Draft holds the user-settable fields for creating a task.
type Draft struct {
	Name          string
	EstimatedTime int
	Deadline      *int64
	LongCycle     bool
	Urgent        bool
	Important     bool
	Description   string
}

// New creates a task from a draft: fresh random id, generated cycle
// list, urgency derived from the deadline, timestamp stamped now.
func New(draft Draft, now time.Time) Task {
	t := Task{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(draft.Name),
		EstimatedTime: draft.EstimatedTime,
		LongCycle:     draft.LongCycle,
		Progress:      0,
		Deadline:      draft.Deadline,
		Completed:     false,
		TimeUp:        false,
		Urgent:        draft.Urgent,
		Important:     draft.Important,
		Description:   strings.TrimSpace(draft.Description),
		Timestamp:     now.UnixMilli(),
	}
	t.CycleList = GenerateCycleList(t.EstimatedTime, t.LongCycle)
	if ShouldBeUrgent(t, now) {
		t.Urgent = true
	}
	return t
}

// millisThreshold separates second-resolution epoch values from
// millisecond ones; anything below it is treated as seconds.
const millisThreshold = 1_000_000_000_000

// ToMillis normalizes an epoch value that may be in seconds or
// milliseconds to milliseconds.
func ToMillis(v int64) int64 {
	if v > 0 && v < millisThreshold {
		return v * 1000
	}
	return v
}

// placeholderName is substituted for blank task names on the server so
// malformed payloads cannot violate the NOT NULL name column.
const placeholderName = "Untitled"

// Normalize applies safe defaults in place: blank name, missing or
// second-resolution timestamp, nil cycle list. Used by the server
// before persisting a merged row.
func (t *Task) Normalize(now time.Time) {
	if strings.TrimSpace(t.Name) == "" {
		t.Name = placeholderName
	} else {
		t.Name = strings.TrimSpace(t.Name)
	}
	if t.Timestamp <= 0 {
		t.Timestamp = now.UnixMilli()
	} else {
		t.Timestamp = ToMillis(t.Timestamp)
	}
	if t.Deadline != nil {
		d := ToMillis(*t.Deadline)
		t.Deadline = &d
	}
	if t.CycleList == nil {
		t.CycleList = []CycleItem{}
	}
	if t.EstimatedTime < 0 {
		t.EstimatedTime = 0
	}
	if t.Progress < 0 {
		t.Progress = 0
	}
}

// DefaultTask is the single built-in task a fresh or unreadable local
// replica falls back to.
func DefaultTask(now time.Time) Task {
	deadline := now.UnixMilli()
	return Task{
		ID:            uuid.New().String(),
		Name:          "default",
		EstimatedTime: 1,
		LongCycle:     false,
		CycleList: []CycleItem{
			{25, PhaseFocus}, {5, PhaseRest},
			{25, PhaseFocus}, {5, PhaseRest},
			{100, PhaseEnd},
		},
		Deadline:  &deadline,
		Timestamp: now.UnixMilli(),
	}
}

// InfiniteTask is an open-ended focus task with no terminal segment,
// used for untimed work sessions.
func InfiniteTask(now time.Time) Task {
	deadline := now.UnixMilli()
	return Task{
		ID:            uuid.New().String(),
		Name:          "infinite",
		EstimatedTime: 1,
		LongCycle:     true,
		CycleList: []CycleItem{
			{50, PhaseFocus}, {10, PhaseRest},
			{25, PhaseFocus}, {5, PhaseRest},
		},
		Deadline:  &deadline,
		Timestamp: now.UnixMilli(),
	}
}
