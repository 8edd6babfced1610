// gameclient/sync.go
package gameclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

// MaxSyncBatch is the most games the backend accepts per bulk request.
const MaxSyncBatch = 50

type SyncResult struct {
	SyncedCount    int `json:"synced_count"`
	RequestedCount int `json:"requested_count"`
}

type syncRequest struct {
	Games []json.RawMessage `json:"games"`
}

type syncResponse struct {
	Success        bool `json:"success"`
	SyncedCount    int  `json:"synced_count"`
	RequestedCount int  `json:"requested_count"`
}

// Syncer drains the local queue into the backend's bulk endpoint.
type Syncer struct {
	queue    *Queue
	endpoint string
	token    TokenSource
	client   *http.Client
	timeout  time.Duration

	mu sync.Mutex
}

func NewSyncer(queue *Queue, apiBaseURL string, token TokenSource, client *http.Client) *Syncer {
	if client == nil {
		client = utils.HTTPClient
	}
	endpoint, err := url.JoinPath(strings.TrimRight(apiBaseURL, "/"), "/api/sync-backup-games")
	if err != nil {
		endpoint = apiBaseURL + "/api/sync-backup-games"
	}
	return &Syncer{
		queue:    queue,
		endpoint: endpoint,
		token:    token,
		client:   client,
		timeout:  15 * time.Second,
	}
}

// SyncPending sends everything queued, oldest first, in batches of MaxSyncBatch.
// Each accepted batch is removed from the queue; duplicates on the server still count
// as accepted. On failure the remaining entries stay queued and ErrSyncFailed is returned
// along with the totals of the batches that did go through.
func (s *Syncer) SyncPending(ctx context.Context) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total SyncResult
	entries, err := s.queue.DrainAll()
	if err != nil {
		return total, fmt.Errorf("%w: read queue: %v", ErrSyncFailed, err)
	}
	if len(entries) == 0 {
		return total, nil
	}

	utils.Log.Infow("[SYNC] 📡 Syncing queued games", "count", len(entries))

	for start := 0; start < len(entries); start += MaxSyncBatch {
		batch := entries[start:min(start+MaxSyncBatch, len(entries))]
		res, err := s.postBatch(ctx, batch)
		if err != nil {
			utils.Log.Warnw("[SYNC] ❌ Backup sync failed, keeping queue", "error", err)
			return total, fmt.Errorf("%w: %v", ErrSyncFailed, err)
		}
		if err := s.queue.RemoveThrough(batch[len(batch)-1].ID); err != nil {
			return total, fmt.Errorf("%w: clear synced entries: %v", ErrSyncFailed, err)
		}
		total.SyncedCount += res.SyncedCount
		total.RequestedCount += res.RequestedCount
	}

	utils.Log.Infow("[SYNC] ✅ Backup sync complete",
		"synced", total.SyncedCount, "requested", total.RequestedCount)
	return total, nil
}

func (s *Syncer) postBatch(ctx context.Context, batch []models.QueuedRecord) (SyncResult, error) {
	games := make([]json.RawMessage, 0, len(batch))
	for _, e := range batch {
		games = append(games, json.RawMessage(e.Payload))
	}
	body, err := json.Marshal(syncRequest{Games: games})
	if err != nil {
		return SyncResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return SyncResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != nil {
		if t := s.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return SyncResult{}, err
	}
	defer utils.DrainClose(resp)

	if !utils.IsSuccess(resp.StatusCode) {
		return SyncResult{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, utils.ReadErrorBody(resp))
	}

	var out syncResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// 2xx is what matters; the counts are informational
		return SyncResult{SyncedCount: len(batch), RequestedCount: len(batch)}, nil
	}
	return SyncResult{SyncedCount: out.SyncedCount, RequestedCount: out.RequestedCount}, nil
}
