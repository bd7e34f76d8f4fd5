package model

// Focus and rest durations in minutes for the two cycle modes.
const (
	shortFocusMinutes = 25
	shortRestMinutes  = 5
	longFocusMinutes  = 50
	longRestMinutes   = 10

	// endSentinelMinutes terminates every generated schedule; the timer
	// UI treats it as "done", not as a real segment.
	endSentinelMinutes = 100
)

// GenerateCycleList expands an estimated duration in minutes into an
// ordered focus/rest schedule. Full focus+rest periods are emitted
// while the remainder covers one; a remainder that still covers a
// focus block gets a truncated rest; anything smaller becomes a short
// final focus. The (100, end) sentinel is always appended, so zero
// minutes yields just the sentinel.
func GenerateCycleList(estimatedMinutes int, longCycle bool) []CycleItem {
	focus, rest := shortFocusMinutes, shortRestMinutes
	if longCycle {
		focus, rest = longFocusMinutes, longRestMinutes
	}
	period := focus + rest

	list := make([]CycleItem, 0, 2*(estimatedMinutes/period)+3)
	remaining := estimatedMinutes
	for remaining > 0 {
		switch {
		case remaining >= period:
			list = append(list, CycleItem{focus, PhaseFocus}, CycleItem{rest, PhaseRest})
			remaining -= period
		case remaining >= focus:
			list = append(list, CycleItem{focus, PhaseFocus}, CycleItem{remaining - focus, PhaseRest})
			remaining = 0
		default:
			list = append(list, CycleItem{remaining, PhaseFocus})
			remaining = 0
		}
	}

	return append(list, CycleItem{endSentinelMinutes, PhaseEnd})
}
