// models/game.go
package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	GameStatusCompleted = "completed"
	GameStatusAbandoned = "abandoned"
)

// Supported code lengths (difficulty)
const (
	MinDifficulty = 4
	MaxDifficulty = 7
)

const AbandonReasonPageUnload = "page_unload"

// GameResult is one persisted game in the game_results table.
// session_id is the idempotency key: a session is stored at most once.
type GameResult struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  string  `gorm:"size:100;uniqueIndex;not null" json:"session_id"`
	UserID     *string `gorm:"size:100;index" json:"user_id"`
	IsGuest    bool    `gorm:"not null;default:false" json:"is_guest"`
	Difficulty int     `gorm:"not null" json:"difficulty"`
	Attempts   int     `gorm:"not null;default:0" json:"attempts"`
	TimeTaken  int     `gorm:"not null;default:0" json:"time_taken"`
	Completed  bool    `gorm:"not null;index" json:"completed"`
	Score      int64   `gorm:"not null;default:0" json:"score"`

	// 🔐 Only present for completed games
	SecretCode *string `gorm:"size:7" json:"secret_code"`
	FinalGuess *string `gorm:"size:7" json:"final_guess"`

	GameStartedAt   time.Time  `json:"game_started_at"`
	GameEndedAt     *time.Time `json:"game_ended_at"`
	BrowserLanguage *string    `gorm:"size:10" json:"browser_language"`
	Timezone        *string    `gorm:"size:50" json:"timezone"`

	Abandoned     bool    `gorm:"not null;default:false" json:"abandoned"`
	AbandonReason *string `gorm:"size:50" json:"abandon_reason"`

	DeviceInfo   datatypes.JSON                   `json:"device_info"`
	GuessHistory datatypes.JSONSlice[GuessRecord] `json:"guess_history"`

	TotalGameTime       *int     `json:"total_game_time,omitempty"`
	AverageTimePerGuess *float64 `json:"average_time_per_guess,omitempty"`
	WinRateThisSession  *float64 `json:"win_rate_this_session,omitempty"`

	Status    string    `gorm:"type:varchar(16);not null;index;check:status IN ('completed','abandoned')" json:"status"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// GameRecord is the flat JSON object every save channel sends.
// Field names are the game_results column names.
type GameRecord struct {
	SessionID  string  `json:"session_id"`
	Difficulty int     `json:"difficulty"`
	Attempts   int     `json:"attempts"`
	TimeTaken  int     `json:"time_taken"`
	Completed  bool    `json:"completed"`
	Score      int64   `json:"score"`
	SecretCode *string `json:"secret_code"`
	FinalGuess *string `json:"final_guess"`
	UserID     *string `json:"user_id"`
	IsGuest    bool    `json:"is_guest"`

	GameStartedAt   *time.Time `json:"game_started_at"`
	GameEndedAt     *time.Time `json:"game_ended_at"`
	BrowserLanguage *string    `json:"browser_language"`
	Timezone        *string    `json:"timezone"`

	Abandoned     bool            `json:"abandoned"`
	AbandonReason *string         `json:"abandon_reason"`
	DeviceInfo    json.RawMessage `json:"device_info"`
	GuessHistory  []GuessRecord   `json:"guess_history"`
	Status        string          `json:"status"`
	CreatedAt     *time.Time      `json:"created_at"`

	TotalGameTime       *int     `json:"total_game_time,omitempty"`
	AverageTimePerGuess *float64 `json:"average_time_per_guess,omitempty"`
	WinRateThisSession  *float64 `json:"win_rate_this_session,omitempty"`
}

// StatusFor is the only place a status is derived; caller-supplied status is never trusted.
func StatusFor(completed bool) string {
	if completed {
		return GameStatusCompleted
	}
	return GameStatusAbandoned
}

// Normalize enforces the completed/abandoned invariant: a record is never both,
// and status always follows completed.
func (r *GameRecord) Normalize() {
	if r.Completed {
		r.Abandoned = false
		r.AbandonReason = nil
	} else {
		r.Abandoned = true
		r.Score = 0
		r.SecretCode = nil
		r.FinalGuess = nil
	}
	r.Status = StatusFor(r.Completed)
}

// StringPtr is a small helper for optional string columns.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
