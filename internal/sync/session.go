package sync

import (
	"encoding/json"
	"fmt"

	"github.com/bainianlaoyao/potatolism/internal/db"
	"github.com/bainianlaoyao/potatolism/internal/logger"
)

// Session holds the client-side sync settings and bookkeeping. It is
// an explicit object owned by the Client, persisted to its own slot,
// separate from the task replica. LastToken exists to detect a token
// change between consecutive syncs, so one owner's local edits are
// never pushed into another owner's remote collection.
type Session struct {
	Enabled      bool   `json:"enabled"`
	BaseURL      string `json:"baseUrl"`
	Token        string `json:"token"`
	LastSyncTime int64  `json:"lastSyncTime"` // unix millis, 0 = never synced
	LastToken    string `json:"lastToken"`
}

// loadSession reads the session slot; a missing or unreadable slot
// yields a zero session with sync disabled.
func loadSession(database *db.DB) Session {
	raw, ok, err := database.GetSlot(db.SlotSyncSettings)
	if err != nil {
		logger.Warn("Failed to read sync settings", logger.F("error", err))
		return Session{}
	}
	if !ok {
		return Session{}
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		logger.Warn("Failed to parse sync settings", logger.F("error", err))
		return Session{}
	}
	return s
}

// saveSession writes the session to its slot.
func saveSession(database *db.DB, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal sync settings: %w", err)
	}
	return database.PutSlot(db.SlotSyncSettings, string(data))
}
