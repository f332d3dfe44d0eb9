package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type WordChainSession struct {
	ID                 uuid.UUID
	RoomID             uuid.UUID
	CurrentWord        string
	UsedWords          []string
	Players            []string
	CurrentPlayerIndex int32
	Finished           bool
	Outcome            pqtype.NullRawMessage
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
