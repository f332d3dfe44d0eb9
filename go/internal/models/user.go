package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a platform member as seen by the mini games: an identity and the
// nickname shown in chat.
type User struct {
	ID        uuid.UUID `json:"id"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}
