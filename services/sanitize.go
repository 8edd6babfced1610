// services/sanitize.go
package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/text/language"
	"gorm.io/datatypes"

	"lytic-game-system/models"
)

const (
	maxSessionIDLen      = 100
	maxCodeLen           = 7
	maxGuessHistory      = 20
	maxLanguageLen       = 10
	maxTimezoneLen       = 50
	maxAbandonReasonLen  = 50
	defaultAbandonReason = "unknown"
)

// SanitizeOptions control the per-endpoint overrides.
type SanitizeOptions struct {
	// ForceAbandoned applies /api/save-abandoned-game semantics.
	ForceAbandoned bool
	// UserID is the verified player (nil for guests). It replaces the body's
	// user_id unless TrustBody is set.
	UserID    *string
	TrustBody bool
}

// SanitizeGame clamps a request record into a storable row. Status and created_at
// are always server-derived.
func SanitizeGame(in *GameInput, opts SanitizeOptions, now time.Time) *models.GameResult {
	sessionID, _ := in.SessionIDString()

	row := &models.GameResult{
		SessionID:  truncate(sessionID, maxSessionIDLen),
		Difficulty: clampDifficulty(in.Difficulty),
		Attempts:   int(max(in.Attempts.Value, 0)),
		TimeTaken:  int(max(in.TimeTaken.Value, 0)),
		Completed:  bool(in.Completed),
		Score:      max(in.Score.Value, 0),
		SecretCode: digitsOnly(string(in.SecretCode)),
		FinalGuess: digitsOnly(string(in.FinalGuess)),
		IsGuest:    bool(in.IsGuest),

		GameStartedAt:   now,
		BrowserLanguage: sanitizeLanguage(string(in.BrowserLanguage)),
		Timezone:        optional(truncate(strings.TrimSpace(string(in.Timezone)), maxTimezoneLen)),
		Abandoned:       bool(in.Abandoned),
		AbandonReason:   sanitizeReason(string(in.AbandonReason)),
		DeviceInfo:      objectOnly(in.DeviceInfo),
		GuessHistory:    lastGuesses(in.GuessHistory),
		CreatedAt:       now,
	}
	if in.GameStartedAt.Set {
		row.GameStartedAt = in.GameStartedAt.Value
	}
	if in.GameEndedAt.Set {
		ended := in.GameEndedAt.Value
		row.GameEndedAt = &ended
	}
	if in.TotalGameTime.Set {
		v := int(max(in.TotalGameTime.Value, 0))
		row.TotalGameTime = &v
	}
	if in.AverageTimePerGuess.Set {
		v := math.Max(in.AverageTimePerGuess.Value, 0)
		row.AverageTimePerGuess = &v
	}
	if in.WinRateThisSession.Set {
		v := math.Min(math.Max(in.WinRateThisSession.Value, 0), 100)
		row.WinRateThisSession = &v
	}

	switch {
	case !opts.TrustBody:
		row.UserID = opts.UserID
		row.IsGuest = opts.UserID == nil
	case in.UserID != "":
		row.UserID = optional(truncate(string(in.UserID), maxSessionIDLen))
	}

	if opts.ForceAbandoned {
		row.Completed = false
		row.GameEndedAt = nil
		if row.AbandonReason == nil {
			reason := defaultAbandonReason
			row.AbandonReason = &reason
		}
	}
	NormalizeResult(row)
	return row
}

// NormalizeResult derives status from completed. A completed game is never abandoned;
// anything else is abandoned and scores nothing.
func NormalizeResult(row *models.GameResult) {
	if row.Completed {
		row.Abandoned = false
		row.AbandonReason = nil
	} else {
		row.Abandoned = true
		row.Score = 0
		row.SecretCode = nil
		row.FinalGuess = nil
	}
	row.Status = models.StatusFor(row.Completed)
}

func clampDifficulty(d flexInt) int {
	if !d.Set || d.Value == 0 {
		return models.MinDifficulty
	}
	return int(min(max(d.Value, models.MinDifficulty), models.MaxDifficulty))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func digitsOnly(s string) *string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == maxCodeLen {
				break
			}
		}
	}
	return optional(b.String())
}

// sanitizeLanguage keeps only well-formed BCP 47 tags.
func sanitizeLanguage(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return nil
	}
	return optional(truncate(tag.String(), maxLanguageLen))
}

// sanitizeReason turns free text into an enum-like token ("Page Unload" → "page_unload").
func sanitizeReason(s string) *string {
	s = strings.ReplaceAll(slug.Make(s), "-", "_")
	return optional(truncate(s, maxAbandonReasonLen))
}

func objectOnly(raw json.RawMessage) datatypes.JSON {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func lastGuesses(raw json.RawMessage) datatypes.JSONSlice[models.GuessRecord] {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return datatypes.JSONSlice[models.GuessRecord]{}
	}
	if len(items) > maxGuessHistory {
		items = items[len(items)-maxGuessHistory:]
	}
	out := make(datatypes.JSONSlice[models.GuessRecord], 0, len(items))
	for _, item := range items {
		var g models.GuessRecord
		if err := json.Unmarshal(item, &g); err != nil {
			continue
		}
		out = append(out, g)
	}
	return out
}
