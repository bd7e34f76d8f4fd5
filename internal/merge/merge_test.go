package merge

import (
	"testing"

	"github.com/bainianlaoyao/potatolism/internal/model"
)

func task(id string, ts int64, name string) model.Task {
	return model.Task{ID: id, Name: name, Timestamp: ts}
}

func byID(tasks []model.Task) map[string]model.Task {
	m := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		m[t.ID] = t
	}
	return m
}

func TestMergeDisjointUnion(t *testing.T) {
	server := []model.Task{task("s1", 100, "server-1"), task("s2", 200, "server-2")}
	client := []model.Task{task("c1", 300, "client-1")}

	got := byID(Tasks(server, client))
	if len(got) != 3 {
		t.Fatalf("expected 3 merged tasks, got %d", len(got))
	}
	for _, id := range []string{"s1", "s2", "c1"} {
		if _, ok := got[id]; !ok {
			t.Errorf("id %q missing from merge result", id)
		}
	}
	if got["s1"].Name != "server-1" || got["c1"].Name != "client-1" {
		t.Errorf("disjoint tasks must pass through unchanged: %+v", got)
	}
}

func TestMergeConflictResolution(t *testing.T) {
	tests := []struct {
		name     string
		serverTS int64
		clientTS int64
		want     string
	}{
		{"client newer wins", 100, 200, "client"},
		{"server newer wins", 200, 100, "server"},
		{"tie goes to server", 150, 150, "server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := []model.Task{task("t1", tt.serverTS, "server")}
			client := []model.Task{task("t1", tt.clientTS, "client")}

			got := Tasks(server, client)
			if len(got) != 1 {
				t.Fatalf("expected 1 task, got %d", len(got))
			}
			if got[0].Name != tt.want {
				t.Errorf("got %q, want %q", got[0].Name, tt.want)
			}
		})
	}
}

func TestMergeMixedTimestampUnits(t *testing.T) {
	// Server row carries seconds (legacy), client carries milliseconds.
	server := []model.Task{task("t1", 1_700_000_000, "server")}
	client := []model.Task{task("t1", 1_700_000_000_500, "client")}

	got := Tasks(server, client)
	if got[0].Name != "client" {
		t.Errorf("ms-vs-s comparison picked %q, want client", got[0].Name)
	}
}

func TestMergeIdempotent(t *testing.T) {
	server := []model.Task{task("a", 10, "old-a"), task("b", 50, "b")}
	client := []model.Task{task("a", 20, "new-a"), task("c", 5, "c")}

	once := Tasks(server, client)
	twice := Tasks(once, client)

	first, second := byID(once), byID(twice)
	if len(first) != len(second) {
		t.Fatalf("re-merge changed size: %d vs %d", len(first), len(second))
	}
	for id, want := range first {
		got, ok := second[id]
		if !ok || got.Name != want.Name || got.Timestamp != want.Timestamp {
			t.Errorf("re-merge changed %q: got %+v want %+v", id, got, want)
		}
	}
}

func TestMergeSkipsEmptyClientIDs(t *testing.T) {
	got := Tasks(nil, []model.Task{task("", 100, "nameless")})
	if len(got) != 0 {
		t.Errorf("tasks without ids must be dropped, got %d", len(got))
	}
}

func TestMergeServerOnlySurvivesOmission(t *testing.T) {
	// Deleting locally only omits the task from the client payload; the
	// server copy survives the merge and is returned.
	server := []model.Task{task("kept", 100, "kept")}

	got := Tasks(server, nil)
	if len(got) != 1 || got[0].ID != "kept" {
		t.Errorf("server-only task must survive omission, got %+v", got)
	}
}
