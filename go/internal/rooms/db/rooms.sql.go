package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const getRoomRoster = `-- name: GetRoomRoster :one
SELECT r.id,
       COALESCE(array_agg(p.user_id::text ORDER BY p.position, p.joined_at) FILTER (WHERE p.user_id IS NOT NULL), '{}')::text[] AS players
FROM rooms r
LEFT JOIN room_participants p ON p.room_id = r.id
WHERE r.id = $1
GROUP BY r.id
`

type GetRoomRosterRow struct {
	ID      uuid.UUID `json:"id"`
	Players []string  `json:"players"`
}

func (q *Queries) GetRoomRoster(ctx context.Context, id uuid.UUID) (GetRoomRosterRow, error) {
	row := q.db.QueryRowContext(ctx, getRoomRoster, id)
	var i GetRoomRosterRow
	err := row.Scan(&i.ID, pq.Array(&i.Players))
	return i, err
}
