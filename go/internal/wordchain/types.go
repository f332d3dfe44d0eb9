package wordchain

import (
	"time"

	"github.com/google/uuid"
	"github.com/taxi-community/minigame/go/internal/models"
)

// DefaultTurnTimeout is how long a player has to move before forfeiting.
const DefaultTurnTimeout = 30 * time.Second

// Config holds the engine's tunables.
type Config struct {
	// TurnTimeout is the turn clock. Timer firings earlier than
	// UpdatedAt+TurnTimeout are ignored.
	TurnTimeout time.Duration
	// RetryDelay re-arms a room's timer after a timeout could not be
	// persisted, so a store outage does not stall the game.
	RetryDelay time.Duration
	// RecoverBatchSize caps how many active sessions RecoverTimers loads.
	RecoverBatchSize int32
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		TurnTimeout:      DefaultTurnTimeout,
		RetryDelay:       5 * time.Second,
		RecoverBatchSize: 1000,
	}
}

// MoveRequest is a word submitted by a player in a room.
type MoveRequest struct {
	RoomID   uuid.UUID `json:"room_id"`
	PlayerID uuid.UUID `json:"player_id"`
	Word     string    `json:"word"`
}

// MoveOutcome classifies the result of SubmitMove.
type MoveOutcome string

const (
	MoveStarted  MoveOutcome = "started"
	MoveAccepted MoveOutcome = "accepted"
	MoveRejected MoveOutcome = "rejected"
)

// MoveResult is returned by SubmitMove for every non-error outcome.
type MoveResult struct {
	Outcome    MoveOutcome
	Reason     RejectReason
	Session    *models.Session
	NextPlayer *models.User
}

// TimeoutOutcome classifies the result of HandleTimeout.
type TimeoutOutcome string

const (
	// TimeoutIgnored means the firing was obsolete or the game already ended.
	TimeoutIgnored  TimeoutOutcome = "ignored"
	TimeoutNextTurn TimeoutOutcome = "next_turn"
	TimeoutWon      TimeoutOutcome = "won"
	TimeoutAborted  TimeoutOutcome = "aborted"
)

// TimeoutResult is returned by HandleTimeout.
type TimeoutResult struct {
	Outcome    TimeoutOutcome
	Eliminated uuid.UUID
	Session    *models.Session
}
