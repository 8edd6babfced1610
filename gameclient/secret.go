package gameclient

import (
	"math/rand/v2"
	"strings"

	"lytic-game-system/models"
)

// SecretCode is the hidden digit string a player tries to break.
type SecretCode string

// NewSecretCode draws length random digits (repeats allowed).
func NewSecretCode(length int) SecretCode {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return SecretCode(b.String())
}

// Matches counts digits that are correct and in the correct position.
func (s SecretCode) Matches(guess string) int {
	n := 0
	for i := 0; i < len(s) && i < len(guess); i++ {
		if s[i] == guess[i] {
			n++
		}
	}
	return n
}

func (s SecretCode) String() string { return string(s) }

// CalculateScore rewards longer codes and penalises extra attempts and slow play.
// Incomplete games always score 0; completed games never score below 100.
func CalculateScore(difficulty, attempts, seconds int, completed bool) int64 {
	if !completed {
		return 0
	}
	base := 250 * difficulty
	attemptPenalty := max(0, (attempts-difficulty)*50)
	timePenalty := min(2*max(seconds, 0), 300)
	bonus := 100 * difficulty
	return int64(max(base-attemptPenalty-timePenalty+bonus, 100))
}

// ValidDifficulty reports whether n is a supported code length.
func ValidDifficulty(n int) bool {
	return n >= models.MinDifficulty && n <= models.MaxDifficulty
}

// SanitizeGuess strips everything but digits and caps the result at the maximum code length.
func SanitizeGuess(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == models.MaxDifficulty {
				break
			}
		}
	}
	return b.String()
}
