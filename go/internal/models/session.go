package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the explicit lifecycle state of a word-chain session.
type SessionState string

const (
	SessionStateActive          SessionState = "ACTIVE"
	SessionStateFinishedWinner  SessionState = "FINISHED_WINNER"
	SessionStateFinishedAborted SessionState = "FINISHED_ABORTED"
)

// OutcomeKind tells how a finished session ended.
type OutcomeKind string

const (
	OutcomeWinner  OutcomeKind = "WINNER"
	OutcomeAborted OutcomeKind = "ABORTED"
)

// Outcome is the terminal result of a session. Winner is set only for
// OutcomeWinner.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Winner *uuid.UUID  `json:"winner,omitempty"`
}

// Session is one word-chain game played in a room. At most one unfinished
// session exists per room; finished sessions are kept as history.
type Session struct {
	ID                 uuid.UUID   `json:"id"`
	RoomID             uuid.UUID   `json:"room_id"`
	CurrentWord        string      `json:"current_word"`
	UsedWords          []string    `json:"used_words"`
	Players            []uuid.UUID `json:"players"`
	CurrentPlayerIndex int         `json:"current_player_index"`
	Finished           bool        `json:"finished"`
	Outcome            *Outcome    `json:"outcome,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`

	used map[string]struct{}
}

// SessionCursor is a keyset position in the (updated_at, id) ordering of
// sessions. The zero value starts before every session.
type SessionCursor struct {
	UpdatedAt time.Time
	ID        uuid.UUID
}

// Cursor returns the keyset position of s, for resuming a listing after it.
func (s *Session) Cursor() SessionCursor {
	return SessionCursor{UpdatedAt: s.UpdatedAt, ID: s.ID}
}

// State derives the lifecycle state from the finished flag and outcome.
func (s *Session) State() SessionState {
	if !s.Finished {
		return SessionStateActive
	}
	if s.Outcome != nil && s.Outcome.Kind == OutcomeWinner {
		return SessionStateFinishedWinner
	}
	return SessionStateFinishedAborted
}

// CurrentPlayer returns the player whose turn it is. ok is false when the
// session has no players left.
func (s *Session) CurrentPlayer() (uuid.UUID, bool) {
	if len(s.Players) == 0 || s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return uuid.Nil, false
	}
	return s.Players[s.CurrentPlayerIndex], true
}

// HasUsed reports whether word was already accepted in this session.
func (s *Session) HasUsed(word string) bool {
	if s.used == nil || len(s.used) != len(s.UsedWords) {
		s.used = make(map[string]struct{}, len(s.UsedWords))
		for _, w := range s.UsedWords {
			s.used[w] = struct{}{}
		}
	}
	_, ok := s.used[word]
	return ok
}

// Clone returns a deep copy so transitions never alias the stored value.
func (s *Session) Clone() *Session {
	c := *s
	c.UsedWords = append([]string(nil), s.UsedWords...)
	c.Players = append([]uuid.UUID(nil), s.Players...)
	c.used = nil
	if s.Outcome != nil {
		o := *s.Outcome
		if s.Outcome.Winner != nil {
			w := *s.Outcome.Winner
			o.Winner = &w
		}
		c.Outcome = &o
	}
	return &c
}
