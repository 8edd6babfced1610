// gameclient/errors.go
package gameclient

import (
	"errors"
	"fmt"
)

// ErrValidation is the root of every synchronous input rejection. Game state is
// unchanged when it is returned.
var ErrValidation = errors.New("validation error")

var (
	ErrInvalidDifficulty = fmt.Errorf("%w: difficulty must be between 4 and 7", ErrValidation)
	ErrInvalidGuess      = fmt.Errorf("%w: guess must be exactly the code length in digits", ErrValidation)
	ErrDuplicateGuess    = fmt.Errorf("%w: guess already tried this game", ErrValidation)
	ErrGuessTooFast      = fmt.Errorf("%w: please wait before guessing again", ErrValidation)
)

var (
	ErrNoSession         = errors.New("no game in progress")
	ErrSessionTerminated = errors.New("game already finished")
	ErrSyncFailed        = errors.New("backup sync failed")
	ErrConfigLoad        = errors.New("config load failed")
)

// ChannelError describes why a single save channel failed. It never reaches the player;
// the dispatcher moves on to the next channel.
type ChannelError struct {
	Channel string
	Status  int
	Body    string
	Err     error
}

func (e *ChannelError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s channel: %v", e.Channel, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s channel: HTTP %d: %s", e.Channel, e.Status, e.Body)
	default:
		return fmt.Sprintf("%s channel: HTTP %d", e.Channel, e.Status)
	}
}

func (e *ChannelError) Unwrap() error { return e.Err }

var ErrGameInProgress = errors.New("game still in progress")
