package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LogSink writes notifications to the log. Used when no broker is configured.
type LogSink struct{}

func (LogSink) Emit(ctx context.Context, roomID uuid.UUID, category, content string) error {
	log.Info().
		Str("room_id", roomID.String()).
		Str("category", category).
		Str("content", content).
		Msg("room notification")
	return nil
}
