// gameclient/session.go
package gameclient

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"lytic-game-system/models"
)

// Outcome is the classifier state of a session.
type Outcome int

const (
	InProgress Outcome = iota
	Completed
	Abandoned
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return models.GameStatusCompleted
	case Abandoned:
		return models.GameStatusAbandoned
	default:
		return "in_progress"
	}
}

// Rules are the game rules that vary between deployments.
type Rules struct {
	RejectDuplicateGuesses bool
	GuessCooldown          time.Duration
}

func DefaultRules() Rules {
	return Rules{
		RejectDuplicateGuesses: true,
		GuessCooldown:          500 * time.Millisecond,
	}
}

// Tracker owns one play-through from Start until Terminate.
type Tracker struct {
	rules     Rules
	now       func() time.Time
	newSecret func(length int) SecretCode
	device    func() models.DeviceInfo

	session      *models.GameSession
	secret       SecretCode
	outcome      Outcome
	reason       string
	lastAccepted time.Time
}

// TrackerOption customises a Tracker; mostly used by tests.
type TrackerOption func(*Tracker)

func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

func WithSecretSource(fn func(length int) SecretCode) TrackerOption {
	return func(t *Tracker) { t.newSecret = fn }
}

func WithDeviceProbe(fn func() models.DeviceInfo) TrackerOption {
	return func(t *Tracker) { t.device = fn }
}

func NewTracker(rules Rules, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		rules:     rules,
		now:       time.Now,
		newSecret: NewSecretCode,
		device:    CaptureDeviceInfo,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewSessionID returns "session_<unix ms>_<uuid>".
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), uuid.NewString())
}

// Start begins a fresh session. A finished session, or one with no guesses yet, is
// replaced; an active session with guesses must be terminated first so it gets saved.
func (t *Tracker) Start(codeLength int) (string, error) {
	if !ValidDifficulty(codeLength) {
		return "", ErrInvalidDifficulty
	}
	if t.Active() && t.TurnCount() > 0 {
		return "", ErrGameInProgress
	}
	now := t.now()
	t.session = &models.GameSession{
		SessionID:    NewSessionID(now),
		CodeLength:   codeLength,
		StartedAt:    now,
		GuessHistory: make([]models.GuessRecord, 0, 8),
		DeviceInfo:   t.device(),
	}
	t.secret = t.newSecret(codeLength)
	t.outcome = InProgress
	t.reason = ""
	t.lastAccepted = time.Time{}
	return t.session.SessionID, nil
}

// RecordGuess validates and appends a guess. Rejected guesses leave the session untouched.
func (t *Tracker) RecordGuess(raw string) (models.GuessRecord, error) {
	if t.session == nil {
		return models.GuessRecord{}, ErrNoSession
	}
	if t.outcome != InProgress || t.Won() {
		return models.GuessRecord{}, ErrSessionTerminated
	}

	guess := SanitizeGuess(raw)
	if len(guess) != t.session.CodeLength {
		return models.GuessRecord{}, ErrInvalidGuess
	}

	now := t.now()
	if t.rules.GuessCooldown > 0 && !t.lastAccepted.IsZero() && now.Sub(t.lastAccepted) < t.rules.GuessCooldown {
		return models.GuessRecord{}, ErrGuessTooFast
	}
	if t.rules.RejectDuplicateGuesses && slices.ContainsFunc(t.session.GuessHistory, func(g models.GuessRecord) bool {
		return g.Guess == guess
	}) {
		return models.GuessRecord{}, ErrDuplicateGuess
	}

	rec := models.GuessRecord{
		TurnNumber:  len(t.session.GuessHistory) + 1,
		Guess:       guess,
		MatchCount:  t.secret.Matches(guess),
		TimestampMs: now.UnixMilli(),
		ElapsedMs:   now.Sub(t.session.StartedAt).Milliseconds(),
	}
	t.session.GuessHistory = append(t.session.GuessHistory, rec)
	t.lastAccepted = now
	return rec, nil
}

// Won reports whether the last recorded guess broke the code.
func (t *Tracker) Won() bool {
	if t.session == nil {
		return false
	}
	last, ok := t.session.LastGuess()
	return ok && last.MatchCount == t.session.CodeLength
}

// Terminate ends the session. Only the first call has an effect; later calls return the
// outcome already recorded and false.
func (t *Tracker) Terminate(outcome Outcome, reason string) (Outcome, bool) {
	if t.session == nil {
		return InProgress, false
	}
	if t.outcome != InProgress {
		return t.outcome, false
	}
	if outcome == InProgress {
		return InProgress, false
	}
	ended := t.now()
	t.session.EndedAt = &ended
	t.outcome = outcome
	if outcome == Abandoned {
		t.reason = reason
	}
	return outcome, true
}

func (t *Tracker) Outcome() Outcome { return t.outcome }
func (t *Tracker) Reason() string { return t.reason }
func (t *Tracker) Secret() SecretCode { return t.secret }
func (t *Tracker) Active() bool { return t.session != nil && t.outcome == InProgress }

// TurnCount is the number of accepted guesses in the current session.
func (t *Tracker) TurnCount() int {
	if t.session == nil {
		return 0
	}
	return t.session.TurnCount()
}

// Session returns a copy of the current session, or nil before Start.
func (t *Tracker) Session() *models.GameSession {
	if t.session == nil {
		return nil
	}
	cp := *t.session
	cp.GuessHistory = slices.Clone(t.session.GuessHistory)
	if t.session.EndedAt != nil {
		ended := *t.session.EndedAt
		cp.EndedAt = &ended
	}
	return &cp
}
