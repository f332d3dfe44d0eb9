package rooms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taxi-community/minigame/go/internal/rooms/db"
	"github.com/taxi-community/minigame/go/internal/sqlutil"
)

// ErrRoomNotFound is returned when the room does not exist.
var ErrRoomNotFound = errors.New("room not found")

// Querier defines what the repository needs from the database layer
type Querier interface {
	GetRoomRoster(ctx context.Context, id uuid.UUID) (db.GetRoomRosterRow, error)
}

// Repository reads room membership from the platform tables
type Repository struct {
	queries Querier
}

// NewRepository creates a new rooms repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// Roster returns the room's participants in join order. A room with no
// participants yields an empty slice.
func (r *Repository) Roster(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	row, err := r.queries.GetRoomRoster(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room roster: %w", err)
	}

	players, err := sqlutil.FromUUIDStrings(row.Players)
	if err != nil {
		return nil, fmt.Errorf("room %s has invalid participants: %w", roomID, err)
	}
	return players, nil
}
