package wordchain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taxi-community/minigame/go/internal/models"
)

// RejectReason explains why a move was not accepted.
type RejectReason string

const (
	ReasonEmptyWord        RejectReason = "empty_word"
	ReasonNotParticipant   RejectReason = "not_participant"
	ReasonNotEnoughPlayers RejectReason = "not_enough_players"
	ReasonNotYourTurn      RejectReason = "not_your_turn"
	ReasonAlreadyUsed      RejectReason = "already_used"
	ReasonChainBroken      RejectReason = "chain_broken"
	ReasonUnknownWord      RejectReason = "unknown_word"
)

// Dictionary answers whether a word exists.
type Dictionary interface {
	Contains(ctx context.Context, word string) (bool, error)
}

// Verdict is the arbiter's decision on a candidate move. When the move is
// rejected for ReasonNotYourTurn, Rightful names the player whose turn it is.
type Verdict struct {
	Accepted bool
	Reason   RejectReason
	Rightful uuid.UUID
}

func accept() Verdict { return Verdict{Accepted: true} }

func reject(reason RejectReason) Verdict { return Verdict{Reason: reason} }

// Arbiter validates candidate moves against session state and the dictionary.
type Arbiter struct {
	dict Dictionary
}

// NewArbiter creates an Arbiter backed by dict.
func NewArbiter(dict Dictionary) *Arbiter {
	return &Arbiter{dict: dict}
}

// JudgeOpening validates the word that would start a new session in a room
// with the given roster. word must already be normalised.
func (a *Arbiter) JudgeOpening(ctx context.Context, roster []uuid.UUID, player uuid.UUID, word string) (Verdict, error) {
	if word == "" {
		return reject(ReasonEmptyWord), nil
	}
	if indexOf(roster, player) < 0 {
		return reject(ReasonNotParticipant), nil
	}
	if len(roster) < MinPlayers {
		return reject(ReasonNotEnoughPlayers), nil
	}
	return a.lookup(ctx, word)
}

// JudgeMove validates a move against an active session. Checks run in a fixed
// order and only the first failure is reported: ownership, empty word,
// repetition, chaining, dictionary.
func (a *Arbiter) JudgeMove(ctx context.Context, s *models.Session, player uuid.UUID, word string) (Verdict, error) {
	current, ok := s.CurrentPlayer()
	if !ok {
		return Verdict{}, fmt.Errorf("%w: session %s has no current player", ErrInvalidSession, s.ID)
	}
	if current != player {
		v := reject(ReasonNotYourTurn)
		v.Rightful = current
		return v, nil
	}
	if word == "" {
		return reject(ReasonEmptyWord), nil
	}
	if s.HasUsed(word) {
		return reject(ReasonAlreadyUsed), nil
	}
	if !Chains(s.CurrentWord, word) {
		return reject(ReasonChainBroken), nil
	}
	return a.lookup(ctx, word)
}

func (a *Arbiter) lookup(ctx context.Context, word string) (Verdict, error) {
	ok, err := a.dict.Contains(ctx, word)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to look up word: %w", err)
	}
	if !ok {
		return reject(ReasonUnknownWord), nil
	}
	return accept(), nil
}
