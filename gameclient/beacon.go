package gameclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

// MaxBeaconBytes mirrors the browser sendBeacon quota.
const MaxBeaconBytes = 64 << 10

// Beacon is the unload-time transport: fire and forget, detached from any caller
// context, response never read.
type Beacon struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	fallback Enqueuer
	wg       sync.WaitGroup
}

func NewBeacon(apiBaseURL string, client *http.Client) *Beacon {
	if client == nil {
		client = utils.HTTPClient
	}
	endpoint, err := url.JoinPath(strings.TrimRight(apiBaseURL, "/"), "/api/save-abandoned-game")
	if err != nil {
		endpoint = apiBaseURL + "/api/save-abandoned-game"
	}
	return &Beacon{endpoint: endpoint, client: client, timeout: 5 * time.Second}
}

// SetFallback sets where records go when the request cannot reach the backend at all.
func (b *Beacon) SetFallback(q Enqueuer) {
	b.fallback = q
}

// Send queues the record for delivery and reports whether the transport accepted it.
// It returns false for payloads over MaxBeaconBytes, in which case nothing is sent.
func (b *Beacon) Send(rec *models.GameRecord) bool {
	body, err := json.Marshal(rec)
	if err != nil || len(body) > MaxBeaconBytes {
		return false
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := b.client.Do(req)
		if err != nil {
			utils.Log.Debugw("[BEACON] send failed", "session_id", rec.SessionID, "error", err)
			if b.fallback == nil {
				return
			}
			if err := b.fallback.Enqueue(rec); err != nil {
				utils.Log.Errorw("[BEACON] ❌ Failed to queue undelivered game", "session_id", rec.SessionID, "error", err)
				return
			}
			utils.Log.Infow("[BEACON] 💾 Backend unreachable, game queued for later sync", "session_id", rec.SessionID)
			return
		}
		utils.DrainClose(resp)
	}()
	return true
}

// Flush waits up to timeout for in-flight beacons. It reports whether all finished.
func (b *Beacon) Flush(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
