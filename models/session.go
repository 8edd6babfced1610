package models

import (
	"encoding/json"
	"time"
)

// GameSession is the in-memory state of one play-through.
type GameSession struct {
	SessionID    string
	CodeLength   int
	StartedAt    time.Time
	EndedAt      *time.Time
	GuessHistory []GuessRecord
	DeviceInfo   DeviceInfo
}

// TurnCount is the number of accepted guesses.
func (s *GameSession) TurnCount() int {
	return len(s.GuessHistory)
}

// LastGuess returns the most recent guess, if any.
func (s *GameSession) LastGuess() (GuessRecord, bool) {
	if len(s.GuessHistory) == 0 {
		return GuessRecord{}, false
	}
	return s.GuessHistory[len(s.GuessHistory)-1], true
}

// GuessRecord is one submitted guess. TurnNumber is 1-based.
type GuessRecord struct {
	TurnNumber  int    `json:"turn_number"`
	Guess       string `json:"guess"`
	MatchCount  int    `json:"match_count"`
	TimestampMs int64  `json:"timestamp_ms"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

// DeviceInfo is captured once at session start and never modified.
type DeviceInfo struct {
	UserAgent    string    `json:"user_agent"`
	Language     string    `json:"language"`
	Timezone     string    `json:"timezone"`
	ScreenWidth  int       `json:"screen_width"`
	ScreenHeight int       `json:"screen_height"`
	CapturedAt   time.Time `json:"captured_at"`
}

// Raw encodes the snapshot for the device_info column.
func (d DeviceInfo) Raw() json.RawMessage {
	b, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	return b
}
