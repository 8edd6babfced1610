// services/input.go
package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Clients are not always careful about JSON types ("4" vs 4, numeric codes), so the
// request body is decoded leniently and everything is clamped in sanitize.

type flexInt struct {
	Value int64
	Set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	*f = flexInt{}
	if v, ok := parseFlexNumber(b); ok {
		f.Value, f.Set = int64(math.Trunc(v)), true
	}
	return nil
}

type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	*f = flexFloat{}
	if v, ok := parseFlexNumber(b); ok {
		f.Value, f.Set = v, true
	}
	return nil
}

func parseFlexNumber(b []byte) (float64, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// flexString accepts strings and numbers (secret codes sometimes arrive as numbers).
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	*f = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
	}
	return nil
}

// flexBool follows JavaScript truthiness for the common cases.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("true")):
		*f = true
	case len(b) == 0, bytes.Equal(b, []byte("false")), bytes.Equal(b, []byte("null")),
		bytes.Equal(b, []byte(`""`)), bytes.Equal(b, []byte("0")):
		*f = false
	default:
		*f = true
	}
	return nil
}

// flexTime accepts RFC 3339 strings and unix milliseconds.
type flexTime struct {
	Value time.Time
	Set   bool
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	*f = flexTime{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z07:00", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				f.Value, f.Set = t.UTC(), true
				return nil
			}
		}
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err == nil && ms > 0 {
		f.Value, f.Set = time.UnixMilli(int64(ms)).UTC(), true
	}
	return nil
}

// GameInput is the permissive shape of a game record in a request body.
type GameInput struct {
	SessionID           json.RawMessage `json:"session_id"`
	Difficulty          flexInt         `json:"difficulty"`
	Attempts            flexInt         `json:"attempts"`
	TimeTaken           flexInt         `json:"time_taken"`
	Completed           flexBool        `json:"completed"`
	Score               flexInt         `json:"score"`
	SecretCode          flexString      `json:"secret_code"`
	FinalGuess          flexString      `json:"final_guess"`
	UserID              flexString      `json:"user_id"`
	IsGuest             flexBool        `json:"is_guest"`
	GameStartedAt       flexTime        `json:"game_started_at"`
	GameEndedAt         flexTime        `json:"game_ended_at"`
	BrowserLanguage     flexString      `json:"browser_language"`
	Timezone            flexString      `json:"timezone"`
	Abandoned           flexBool        `json:"abandoned"`
	AbandonReason       flexString      `json:"abandon_reason"`
	DeviceInfo          json.RawMessage `json:"device_info"`
	GuessHistory        json.RawMessage `json:"guess_history"`
	TotalGameTime       flexInt         `json:"total_game_time"`
	AverageTimePerGuess flexFloat       `json:"average_time_per_guess"`
	WinRateThisSession  flexFloat       `json:"win_rate_this_session"`
}

// SessionIDString returns session_id only when it is a non-empty JSON string.
func (in *GameInput) SessionIDString() (string, bool) {
	var s string
	if err := json.Unmarshal(in.SessionID, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}
