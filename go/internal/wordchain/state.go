package wordchain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taxi-community/minigame/go/internal/models"
)

// MinPlayers is the smallest roster a session can be started with. A session
// with a single remaining player is always finished before it is persisted.
const MinPlayers = 2

var (
	errStarterNotOnRoster = fmt.Errorf("%w: starter is not on the roster", ErrInvalidSession)
	errRosterTooSmall     = fmt.Errorf("%w: roster too small", ErrInvalidSession)
	errSessionFinished    = fmt.Errorf("%w: session already finished", ErrInvalidSession)
)

// The functions below are the only code paths that produce a new session
// value. They never mutate their input.

// Start opens a session with word as the first accepted word. Turn order is
// the roster order, and the player after the starter moves next.
func Start(id, roomID uuid.UUID, roster []uuid.UUID, starter uuid.UUID, word string, now time.Time) (*models.Session, error) {
	if len(roster) < MinPlayers {
		return nil, errRosterTooSmall
	}
	pos := indexOf(roster, starter)
	if pos < 0 {
		return nil, errStarterNotOnRoster
	}

	return &models.Session{
		ID:                 id,
		RoomID:             roomID,
		CurrentWord:        word,
		UsedWords:          []string{word},
		Players:            append([]uuid.UUID(nil), roster...),
		CurrentPlayerIndex: (pos + 1) % len(roster),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Advance records an accepted word and passes the turn to the next player.
func Advance(s *models.Session, word string, now time.Time) (*models.Session, error) {
	if s.Finished {
		return nil, errSessionFinished
	}
	next := s.Clone()
	next.UsedWords = append(next.UsedWords, word)
	next.CurrentWord = word
	next.CurrentPlayerIndex = (s.CurrentPlayerIndex + 1) % len(s.Players)
	next.UpdatedAt = now
	return next, nil
}

// Eliminate removes the current player. With one player left the session is
// won, with none it is aborted, otherwise the turn index is re-normalised to
// the shrunken roster.
func Eliminate(s *models.Session, now time.Time) (*models.Session, uuid.UUID, error) {
	if s.Finished {
		return nil, uuid.Nil, errSessionFinished
	}
	eliminated, ok := s.CurrentPlayer()
	if !ok {
		return nil, uuid.Nil, errRosterTooSmall
	}

	next := s.Clone()
	next.Players = append(next.Players[:s.CurrentPlayerIndex:s.CurrentPlayerIndex], next.Players[s.CurrentPlayerIndex+1:]...)
	next.UpdatedAt = now

	switch len(next.Players) {
	case 0:
		next.Finished = true
		next.CurrentPlayerIndex = 0
		next.Outcome = &models.Outcome{Kind: models.OutcomeAborted}
	case 1:
		winner := next.Players[0]
		next.Finished = true
		next.CurrentPlayerIndex = 0
		next.Outcome = &models.Outcome{Kind: models.OutcomeWinner, Winner: &winner}
	default:
		next.CurrentPlayerIndex = s.CurrentPlayerIndex % len(next.Players)
	}
	return next, eliminated, nil
}

func indexOf(ids []uuid.UUID, id uuid.UUID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
