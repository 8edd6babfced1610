// gameclient/dispatcher.go
package gameclient

import (
	"context"
	"time"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

// AttemptStatus classifies one channel attempt.
type AttemptStatus int

const (
	AttemptFailed AttemptStatus = iota
	AttemptDelivered
	AttemptConflict
)

func (s AttemptStatus) String() string {
	switch s {
	case AttemptDelivered:
		return "delivered"
	case AttemptConflict:
		return "conflict"
	default:
		return "failed"
	}
}

// AttemptResult is what a SaveChannel reports back. Err is set only for failures.
type AttemptResult struct {
	Status AttemptStatus
	Err    error
}

func Delivered() AttemptResult { return AttemptResult{Status: AttemptDelivered} }
func Conflict() AttemptResult { return AttemptResult{Status: AttemptConflict} }
func Failed(err error) AttemptResult { return AttemptResult{Status: AttemptFailed, Err: err} }
func (r AttemptResult) Succeeded() bool { return r.Status != AttemptFailed }

// SaveChannel is one backend able to durably store a GameRecord.
// A duplicate session_id must be reported as a conflict, never as a failure.
type SaveChannel interface {
	Name() string
	Attempt(ctx context.Context, rec *models.GameRecord) AttemptResult
}

// SaveOutcome is the result of pushing one record through the channel list.
type SaveOutcome struct {
	Delivered bool
	Channel   string
	Conflict  bool
	Queued    bool
	Errors    []error
}

// Enqueuer receives records no channel accepted.
type Enqueuer interface {
	Enqueue(rec *models.GameRecord) error
}

// StatsRecorder is updated after every delivered record.
type StatsRecorder interface {
	Record(rec *models.GameRecord) error
}

// RetryScheduler arranges a later reconciliation sync.
type RetryScheduler interface {
	ScheduleRetry()
}

type DispatcherOptions struct {
	AttemptTimeout time.Duration
	Queue          Enqueuer
	Stats          StatsRecorder
	Retry          RetryScheduler
}

// Dispatcher tries its channels in fixed priority order, one at a time.
type Dispatcher struct {
	channels       []SaveChannel
	attemptTimeout time.Duration
	queue          Enqueuer
	stats          StatsRecorder
	retry          RetryScheduler
}

func NewDispatcher(channels []SaveChannel, opts DispatcherOptions) *Dispatcher {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 10 * time.Second
	}
	return &Dispatcher{
		channels:       channels,
		attemptTimeout: opts.AttemptTimeout,
		queue:          opts.Queue,
		stats:          opts.Stats,
		retry:          opts.Retry,
	}
}

// SetRetryScheduler wires the sync worker once it exists.
func (d *Dispatcher) SetRetryScheduler(r RetryScheduler) {
	d.retry = r
}

// Channels returns the channel names in attempt order.
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, ch := range d.channels {
		names[i] = ch.Name()
	}
	return names
}

// Save attempts each channel in order until one delivers or reports a conflict.
// It never enqueues; callers that need the fallback use SaveOrQueue.
func (d *Dispatcher) Save(ctx context.Context, rec *models.GameRecord) SaveOutcome {
	var out SaveOutcome
	for _, ch := range d.channels {
		if ctx.Err() != nil {
			out.Errors = append(out.Errors, ctx.Err())
			break
		}

		attemptCtx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
		res := ch.Attempt(attemptCtx, rec)
		cancel()

		if res.Succeeded() {
			out.Delivered = true
			out.Channel = ch.Name()
			out.Conflict = res.Status == AttemptConflict
			if out.Conflict {
				utils.Log.Infow("[SAVE] ♻️ Game already stored, treating as saved",
					"session_id", rec.SessionID, "channel", ch.Name())
			} else {
				utils.Log.Infow("[SAVE] ✅ Game saved",
					"session_id", rec.SessionID, "channel", ch.Name(), "status", rec.Status)
			}
			d.recordStats(rec)
			return out
		}

		out.Errors = append(out.Errors, res.Err)
		utils.Log.Warnw("[SAVE] ⚠️ Channel failed, trying next",
			"session_id", rec.SessionID, "channel", ch.Name(), "error", res.Err)
	}

	utils.Log.Warnw("[SAVE] ❌ All save channels failed", "session_id", rec.SessionID)
	return out
}

// SaveOrQueue is Save plus the local fallback: on total failure the record is queued
// and a retry sync is scheduled.
func (d *Dispatcher) SaveOrQueue(ctx context.Context, rec *models.GameRecord) SaveOutcome {
	out := d.Save(ctx, rec)
	if out.Delivered {
		return out
	}
	if d.queue == nil {
		return out
	}
	if err := d.queue.Enqueue(rec); err != nil {
		utils.Log.Errorw("[QUEUE] ❌ Failed to queue game locally", "session_id", rec.SessionID, "error", err)
		out.Errors = append(out.Errors, err)
		return out
	}
	out.Queued = true
	utils.Log.Infow("[QUEUE] 💾 Game queued for later sync", "session_id", rec.SessionID)
	if d.retry != nil {
		d.retry.ScheduleRetry()
	}
	return out
}

func (d *Dispatcher) recordStats(rec *models.GameRecord) {
	if d.stats == nil {
		return
	}
	if err := d.stats.Record(rec); err != nil {
		utils.Log.Debugw("[STATS] Local stats update failed", "error", err)
	}
}
