// Package merge reconciles two views of one owner's task collection.
//
// The rule is last-writer-wins per task id, with the server holding
// ties. The result is a union: an id known only to one side survives,
// which means a task deleted on a client comes back from the server on
// the next sync. That is the documented protocol behavior, not an
// accident; deletion is local-only until resolved out of band.
package merge

import (
	"github.com/bainianlaoyao/potatolism/internal/model"
)

// Tasks merges the server's persisted collection with a client-submitted
// one. Pure and deterministic; no I/O. Callers must treat the result as
// a set keyed by id, the slice order carries no meaning.
func Tasks(serverTasks, clientTasks []model.Task) []model.Task {
	byID := make(map[string]model.Task, len(serverTasks)+len(clientTasks))
	order := make([]string, 0, len(serverTasks)+len(clientTasks))

	for _, t := range serverTasks {
		if _, seen := byID[t.ID]; !seen {
			order = append(order, t.ID)
		}
		byID[t.ID] = t
	}

	for _, t := range clientTasks {
		if t.ID == "" {
			continue
		}
		server, exists := byID[t.ID]
		if !exists {
			byID[t.ID] = t
			order = append(order, t.ID)
			continue
		}
		if model.ToMillis(t.Timestamp) > model.ToMillis(server.Timestamp) {
			byID[t.ID] = t
		}
	}

	merged := make([]model.Task, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return merged
}
