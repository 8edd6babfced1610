// gameclient/classifier.go
package gameclient

import (
	"context"
	"math"

	"lytic-game-system/models"
	"lytic-game-system/utils"
)

const DefaultAbandonReason = "user_abandoned"

// Player is whoever is at the keyboard. An empty UserID is a guest.
type Player struct {
	UserID      string
	AccessToken string
}

func (p Player) Guest() bool { return p.UserID == "" }

// Saver is the awaited delivery path (the Dispatcher).
type Saver interface {
	SaveOrQueue(ctx context.Context, rec *models.GameRecord) SaveOutcome
}

// BeaconSender is the unload-time delivery path.
type BeaconSender interface {
	Send(rec *models.GameRecord) bool
}

// GuessResult reports an accepted guess and, on a win, the saved record.
type GuessResult struct {
	Guess   models.GuessRecord
	Outcome Outcome
	Record  *models.GameRecord
	Save    SaveOutcome
}

// SessionTally counts games finished by this process, for win_rate_this_session.
type SessionTally struct {
	Played int
	Won    int
}

// WinRate is a percentage in [0,100].
func (t SessionTally) WinRate() float64 {
	if t.Played == 0 {
		return 0
	}
	return math.Round(float64(t.Won)/float64(t.Played)*10000) / 100
}

// Classifier turns tracker state plus lifecycle events into at most one record per
// session and hands it to the right transport.
type Classifier struct {
	tracker *Tracker
	saver   Saver
	beacon  BeaconSender
	queue   Enqueuer
	player  func() Player
	tally   SessionTally
}

func NewClassifier(tracker *Tracker, saver Saver, beacon BeaconSender, queue Enqueuer, player func() Player) *Classifier {
	if player == nil {
		player = func() Player { return Player{} }
	}
	return &Classifier{
		tracker: tracker,
		saver:   saver,
		beacon:  beacon,
		queue:   queue,
		player:  player,
	}
}

func (c *Classifier) Tracker() *Tracker { return c.tracker }
func (c *Classifier) Tally() SessionTally { return c.tally }
func (c *Classifier) State() Outcome { return c.tracker.Outcome() }

// SubmitGuess records a guess; a winning guess completes the game and saves it.
func (c *Classifier) SubmitGuess(ctx context.Context, raw string) (GuessResult, error) {
	g, err := c.tracker.RecordGuess(raw)
	if err != nil {
		return GuessResult{}, err
	}
	res := GuessResult{Guess: g, Outcome: InProgress}
	if !c.tracker.Won() {
		return res, nil
	}

	if _, changed := c.tracker.Terminate(Completed, ""); !changed {
		return res, nil
	}
	c.tally.Played++
	c.tally.Won++

	rec, err := c.BuildRecord()
	if err != nil {
		return res, err
	}
	res.Outcome = Completed
	res.Record = rec
	res.Save = c.saver.SaveOrQueue(ctx, rec)
	return res, nil
}

// Abandon ends the game on explicit player request. Sessions without guesses end
// without producing a record (nil, zero outcome, nil error).
func (c *Classifier) Abandon(ctx context.Context, reason string) (*models.GameRecord, SaveOutcome, error) {
	if !c.tracker.Active() {
		return nil, SaveOutcome{}, ErrNoSession
	}
	if reason == "" {
		reason = DefaultAbandonReason
	}
	if _, changed := c.tracker.Terminate(Abandoned, reason); !changed {
		return nil, SaveOutcome{}, ErrSessionTerminated
	}
	if c.tracker.TurnCount() == 0 {
		return nil, SaveOutcome{}, nil
	}
	c.tally.Played++

	rec, err := c.BuildRecord()
	if err != nil {
		return nil, SaveOutcome{}, err
	}
	return rec, c.saver.SaveOrQueue(ctx, rec), nil
}

// OnUnload handles process teardown. An in-progress game with at least one guess is
// abandoned and sent by beacon; if the beacon refuses it, the record is queued.
// It returns the record produced, or nil.
func (c *Classifier) OnUnload() *models.GameRecord {
	if !c.tracker.Active() || c.tracker.TurnCount() == 0 {
		return nil
	}
	if _, changed := c.tracker.Terminate(Abandoned, models.AbandonReasonPageUnload); !changed {
		return nil
	}
	c.tally.Played++

	rec, err := c.BuildRecord()
	if err != nil {
		return nil
	}
	if c.beacon != nil && c.beacon.Send(rec) {
		utils.Log.Infow("[UNLOAD] 📤 Abandoned game sent by beacon", "session_id", rec.SessionID)
		return rec
	}
	if c.queue != nil {
		if err := c.queue.Enqueue(rec); err != nil {
			utils.Log.Errorw("[UNLOAD] ❌ Failed to queue abandoned game", "session_id", rec.SessionID, "error", err)
		}
	}
	return rec
}

// BuildRecord derives the canonical record from the terminated session. No I/O.
func (c *Classifier) BuildRecord() (*models.GameRecord, error) {
	s := c.tracker.Session()
	if s == nil {
		return nil, ErrNoSession
	}
	outcome := c.tracker.Outcome()
	if outcome == InProgress || s.EndedAt == nil {
		return nil, ErrGameInProgress
	}

	player := c.player()
	started := s.StartedAt.UTC()
	ended := s.EndedAt.UTC()
	attempts := s.TurnCount()
	elapsed := ended.Sub(started)
	seconds := int(elapsed.Seconds())
	totalMs := int(elapsed.Milliseconds())
	completed := outcome == Completed
	winRate := c.tally.WinRate()

	rec := &models.GameRecord{
		SessionID:          s.SessionID,
		Difficulty:         s.CodeLength,
		Attempts:           attempts,
		TimeTaken:          seconds,
		Completed:          completed,
		Score:              CalculateScore(s.CodeLength, attempts, seconds, completed),
		UserID:             models.StringPtr(player.UserID),
		IsGuest:            player.Guest(),
		GameStartedAt:      &started,
		GameEndedAt:        &ended,
		BrowserLanguage:    models.StringPtr(s.DeviceInfo.Language),
		Timezone:           models.StringPtr(s.DeviceInfo.Timezone),
		DeviceInfo:         s.DeviceInfo.Raw(),
		GuessHistory:       s.GuessHistory,
		CreatedAt:          &ended,
		TotalGameTime:      &totalMs,
		WinRateThisSession: &winRate,
	}
	if attempts > 0 {
		avg := math.Round(elapsed.Seconds()/float64(attempts)*100) / 100
		rec.AverageTimePerGuess = &avg
	}
	if completed {
		secret := c.tracker.Secret().String()
		rec.SecretCode = &secret
		if last, ok := s.LastGuess(); ok {
			rec.FinalGuess = &last.Guess
		}
	} else {
		rec.AbandonReason = models.StringPtr(c.tracker.Reason())
	}
	rec.Normalize()
	return rec, nil
}
