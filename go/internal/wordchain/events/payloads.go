package events

import (
	"time"

	"github.com/google/uuid"
)

// Payload types shared by the engine, the move consumer and the gateway

// ChatEvent is a room notification as published on chat.events.<roomID>
type ChatEvent struct {
	EventID   uuid.UUID `json:"eventId"`
	RoomID    uuid.UUID `json:"roomId"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MoveEnvelope is an inbound word submission from a chat client
type MoveEnvelope struct {
	RoomID   uuid.UUID `json:"roomId"`
	PlayerID uuid.UUID `json:"playerId"`
	Word     string    `json:"word"`
}

const (
	// ChatEventsPrefix is the subject prefix for outbound room notifications.
	ChatEventsPrefix = "chat.events"
	// MovesPrefix is the subject prefix for inbound moves, one subject per room.
	MovesPrefix = "chat.wordchain.moves"
)
