package taskstore

import (
	"strings"
	"time"

	"github.com/bainianlaoyao/potatolism/internal/model"
)

// Patch describes a partial task update. Every field is optional; nil
// means "leave unchanged". The deadline needs a separate touched flag
// because nil is also a legal value for it (no deadline).
type Patch struct {
	Name          *string
	EstimatedTime *int
	LongCycle     *bool
	Progress      *float64
	Completed     *bool
	TimeUp        *bool
	Urgent        *bool
	Important     *bool
	Description   *string

	// Deadline is applied only when TouchDeadline is set; a nil
	// Deadline with TouchDeadline clears the deadline.
	TouchDeadline bool
	Deadline      *int64
}

// applyPatch shallow-merges the patch onto the task and stamps a fresh
// timestamp. Touching the estimate or cycle mode regenerates the
// schedule and clears time_up; touching the deadline recomputes the
// urgent flag.
func applyPatch(t model.Task, p Patch, now time.Time) model.Task {
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.EstimatedTime != nil {
		t.EstimatedTime = *p.EstimatedTime
	}
	if p.LongCycle != nil {
		t.LongCycle = *p.LongCycle
	}
	if p.Progress != nil {
		t.Progress = *p.Progress
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.TimeUp != nil {
		t.TimeUp = *p.TimeUp
	}
	if p.Urgent != nil {
		t.Urgent = *p.Urgent
	}
	if p.Important != nil {
		t.Important = *p.Important
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.TouchDeadline {
		t.Deadline = p.Deadline
	}

	if p.EstimatedTime != nil || p.LongCycle != nil {
		t.CycleList = model.GenerateCycleList(t.EstimatedTime, t.LongCycle)
		t.TimeUp = false
	}
	if p.TouchDeadline {
		t.Urgent = model.ShouldBeUrgent(t, now)
	}

	t.Timestamp = now.UnixMilli()
	return t
}
