package model

import "time"

// urgencyWindow is how close a deadline has to be before an open task
// counts as urgent.
const urgencyWindow = 24 * time.Hour

// ShouldBeUrgent reports whether the task's deadline is set, the task
// is still open, and less than 24 hours remain (strictly; a deadline
// exactly 24h away is not urgent, one already passed is).
func ShouldBeUrgent(t Task, now time.Time) bool {
	if t.Deadline == nil {
		return false
	}
	if t.Completed {
		return false
	}
	remaining := *t.Deadline - now.UnixMilli()
	return remaining < urgencyWindow.Milliseconds()
}

// UpdateUrgency returns the task with its urgent flag recomputed.
func UpdateUrgency(t Task, now time.Time) Task {
	t.Urgent = ShouldBeUrgent(t, now)
	return t
}

// UpdateAllUrgency recomputes the urgent flag for every task in place.
// Idempotent; safe to run on load.
func UpdateAllUrgency(tasks []Task, now time.Time) {
	for i := range tasks {
		tasks[i].Urgent = ShouldBeUrgent(tasks[i], now)
	}
}
