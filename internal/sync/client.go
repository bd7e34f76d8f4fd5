// Package sync is the client side of the reconciliation protocol: it
// posts the whole local collection to the server and overwrites the
// replica with the reconciled set the server returns. The server is
// the sole merge authority.
package sync

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	gosync "sync"
	"time"

	"github.com/bainianlaoyao/potatolism/internal/db"
	"github.com/bainianlaoyao/potatolism/internal/logger"
	"github.com/bainianlaoyao/potatolism/internal/model"
)

// Replica is the local task collection the client reads from and
// overwrites after a successful sync.
type Replica interface {
	Tasks() []model.Task
	ReplaceAll([]model.Task)
}

// SyncRequest is the body posted to /sync.
type SyncRequest struct {
	Tasks []model.Task `json:"tasks"`
}

// SyncResponse is the reconciled collection returned by the server.
type SyncResponse struct {
	Tasks []model.Task `json:"tasks"`
}

// Client triggers syncs against the server, at most one in flight per
// process. Failures of any kind surface as a false return, never as a
// panic or error to the periodic trigger.
type Client struct {
	mu       gosync.Mutex
	syncing  bool
	online   bool
	session  Session
	database *db.DB
	replica  Replica

	httpClient *http.Client

	autoStop chan struct{}
}

// NewClient creates a sync client, loading the persisted session.
func NewClient(database *db.DB, replica Replica) *Client {
	return &Client{
		online:     true,
		session:    loadSession(database),
		database:   database,
		replica:    replica,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Session returns a snapshot of the current session.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetServer sets the sync server base address.
func (c *Client) SetServer(baseURL string) error {
	return c.updateSession(func(s *Session) { s.BaseURL = strings.TrimSpace(baseURL) })
}

// SetToken sets the owner token.
func (c *Client) SetToken(token string) error {
	return c.updateSession(func(s *Session) { s.Token = strings.TrimSpace(token) })
}

// SetEnabled turns automatic and manual sync on or off.
func (c *Client) SetEnabled(enabled bool) error {
	return c.updateSession(func(s *Session) { s.Enabled = enabled })
}

func (c *Client) updateSession(mutate func(*Session)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	mutate(&c.session)
	return saveSession(c.database, c.session)
}

// SetOnline records whether the device has connectivity; while false
// every sync attempt is a no-op.
func (c *Client) SetOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = online
}

// IsSyncing reports whether a sync attempt is in flight.
func (c *Client) IsSyncing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncing
}

// RequestSync performs one sync attempt and reports success. It
// returns false without side effects when sync is disabled or
// unconfigured, the device is offline, or another attempt is already
// in flight. On success the local replica is overwritten wholesale
// with the server's reconciled collection.
func (c *Client) RequestSync() bool {
	c.mu.Lock()
	sess := c.session
	if !sess.Enabled || sess.BaseURL == "" || sess.Token == "" || !c.online || c.syncing {
		c.mu.Unlock()
		return false
	}
	c.syncing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.syncing = false
		c.mu.Unlock()
	}()

	// A token change means the local replica belongs to the previous
	// owner. Send nothing and let the server's reconciled set
	// repopulate the replica for the new owner.
	tasks := c.replica.Tasks()
	if sess.LastToken != "" && sess.LastToken != sess.Token {
		logger.Info("Token changed since last sync, sending empty collection")
		tasks = []model.Task{}
	}

	merged, ok := c.postSync(sess, tasks)
	if !ok {
		return false
	}

	c.replica.ReplaceAll(merged)

	c.mu.Lock()
	c.session.LastSyncTime = time.Now().UnixMilli()
	c.session.LastToken = sess.Token
	if err := saveSession(c.database, c.session); err != nil {
		logger.Warn("Failed to persist sync session", logger.F("error", err))
	}
	c.mu.Unlock()

	return true
}

// postSync sends the collection and decodes the reconciled set. All
// transport and protocol failures collapse to ok=false.
func (c *Client) postSync(sess Session, tasks []model.Task) ([]model.Task, bool) {
	body, err := json.Marshal(SyncRequest{Tasks: tasks})
	if err != nil {
		logger.Error("Failed to encode sync payload", logger.F("error", err))
		return nil, false
	}

	url := strings.TrimRight(sess.BaseURL, "/") + "/sync"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logger.Error("Failed to build sync request", logger.F("error", err))
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Token", strings.TrimSpace(sess.Token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Sync request failed", logger.F("error", err), logger.F("url", url))
		return nil, false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Warn("Sync rejected by server",
			logger.F("status", resp.StatusCode),
			logger.F("response", string(respBody)))
		return nil, false
	}

	var result SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Warn("Failed to decode sync response", logger.F("error", err))
		return nil, false
	}
	if result.Tasks == nil {
		result.Tasks = []model.Task{}
	}

	logger.Info("Sync completed", logger.F("tasks", len(result.Tasks)))
	return result.Tasks, true
}

// StartAutoSync arms a recurring timer that fires RequestSync
// fire-and-forget. Starting while already armed disarms the previous
// timer first, so there is never more than one.
func (c *Client) StartAutoSync(interval time.Duration) {
	c.StopAutoSync()

	c.mu.Lock()
	stop := make(chan struct{})
	c.autoStop = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.RequestSync()
			case <-stop:
				return
			}
		}
	}()
}

// StopAutoSync disarms the timer. In-flight attempts are not
// cancelled; only future ones are prevented.
func (c *Client) StopAutoSync() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.autoStop != nil {
		close(c.autoStop)
		c.autoStop = nil
	}
}
