package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/bainianlaoyao/potatolism/internal/db"
	"github.com/bainianlaoyao/potatolism/internal/model"
	"github.com/bainianlaoyao/potatolism/internal/taskstore"
)

// openStore opens the local database and loads the task replica.
func openStore() (*db.DB, *taskstore.Store, error) {
	database, err := db.OpenDefault()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := taskstore.New(database)
	store.Load()
	return database, store, nil
}

// resolveTask finds the single task whose id starts with prefix.
func resolveTask(store *taskstore.Store, prefix string) (model.Task, error) {
	var matches []model.Task
	for _, t := range store.Tasks() {
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("no task matches id %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("id %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

// parseDeadline accepts a few common date shapes and returns unix millis.
func parseDeadline(value string) (int64, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed.UnixMilli(), nil
		}
	}
	if d, err := time.ParseDuration(value); err == nil {
		return time.Now().Add(d).UnixMilli(), nil
	}
	return 0, fmt.Errorf("unrecognized deadline %q (try 2006-01-02, 2006-01-02 15:04, or a duration like 24h)", value)
}
