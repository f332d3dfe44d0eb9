package wordchain

import (
	"context"
	"errors"

	"github.com/taxi-community/minigame/go/internal/rooms"
	"github.com/taxi-community/minigame/go/internal/users"
	"github.com/taxi-community/minigame/go/internal/wordchain/repository"
)

var (
	// ErrRoomNotFound is returned when a move targets a room that does not exist.
	ErrRoomNotFound = rooms.ErrRoomNotFound

	// ErrPlayerNotFound is returned when the player who is due to move after an
	// accepted word cannot be resolved. The transition is already committed.
	ErrPlayerNotFound = errors.New("next player not found")

	// ErrSessionNotFound is returned by read operations when a room has never
	// hosted a session.
	ErrSessionNotFound = repository.ErrSessionNotFound

	// ErrStaleSession is returned when the session changed between load and save.
	ErrStaleSession = repository.ErrStaleSession

	// ErrSessionConflict is returned when two openers race to create a session
	// for the same room.
	ErrSessionConflict = repository.ErrSessionConflict

	// ErrInvalidSession marks a transition attempted on a session that breaks
	// its own invariants, such as one already finished or with no players.
	ErrInvalidSession = errors.New("invalid session state")
)

// IsRetryable reports whether err is an infrastructure or concurrency fault the
// caller may retry. Structural faults and user rejections are not retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrPlayerNotFound) || errors.Is(err, users.ErrUserNotFound) {
		return false
	}
	if errors.Is(err, ErrInvalidSession) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
