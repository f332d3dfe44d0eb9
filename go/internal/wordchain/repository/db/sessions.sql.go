package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

const sessionColumns = `id, room_id, current_word, used_words, players, current_player_index, finished, outcome, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (WordChainSession, error) {
	var i WordChainSession
	err := row.Scan(
		&i.ID,
		&i.RoomID,
		&i.CurrentWord,
		pq.Array(&i.UsedWords),
		pq.Array(&i.Players),
		&i.CurrentPlayerIndex,
		&i.Finished,
		&i.Outcome,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createSession = `-- name: CreateSession :one
INSERT INTO word_chain_sessions (
  id, room_id, current_word, used_words, players, current_player_index, finished, outcome, created_at, updated_at
) VALUES (
  $1, $2, $3, $4, $5::uuid[], $6, false, NULL, $7, $7
)
RETURNING ` + sessionColumns

type CreateSessionParams struct {
	ID                 uuid.UUID
	RoomID             uuid.UUID
	CurrentWord        string
	UsedWords          []string
	Players            []string
	CurrentPlayerIndex int32
	CreatedAt          time.Time
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (WordChainSession, error) {
	row := q.db.QueryRowContext(ctx, createSession,
		arg.ID,
		arg.RoomID,
		arg.CurrentWord,
		pq.Array(arg.UsedWords),
		pq.Array(arg.Players),
		arg.CurrentPlayerIndex,
		arg.CreatedAt,
	)
	return scanSession(row)
}

const getActiveSessionByRoom = `-- name: GetActiveSessionByRoom :one
SELECT ` + sessionColumns + `
FROM word_chain_sessions
WHERE room_id = $1 AND finished = false
LIMIT 1`

func (q *Queries) GetActiveSessionByRoom(ctx context.Context, roomID uuid.UUID) (WordChainSession, error) {
	row := q.db.QueryRowContext(ctx, getActiveSessionByRoom, roomID)
	return scanSession(row)
}

const getLatestSessionByRoom = `-- name: GetLatestSessionByRoom :one
SELECT ` + sessionColumns + `
FROM word_chain_sessions
WHERE room_id = $1
ORDER BY finished ASC, created_at DESC
LIMIT 1`

func (q *Queries) GetLatestSessionByRoom(ctx context.Context, roomID uuid.UUID) (WordChainSession, error) {
	row := q.db.QueryRowContext(ctx, getLatestSessionByRoom, roomID)
	return scanSession(row)
}

const replaceSession = `-- name: ReplaceSession :one
UPDATE word_chain_sessions
SET current_word = $2,
    used_words = $3,
    players = $4::uuid[],
    current_player_index = $5,
    finished = $6,
    outcome = $7,
    updated_at = $8
WHERE id = $1
  AND finished = false
  AND updated_at = $9
RETURNING ` + sessionColumns

type ReplaceSessionParams struct {
	ID                 uuid.UUID
	CurrentWord        string
	UsedWords          []string
	Players            []string
	CurrentPlayerIndex int32
	Finished           bool
	Outcome            pqtype.NullRawMessage
	UpdatedAt          time.Time
	PrevUpdatedAt      time.Time
}

func (q *Queries) ReplaceSession(ctx context.Context, arg ReplaceSessionParams) (WordChainSession, error) {
	row := q.db.QueryRowContext(ctx, replaceSession,
		arg.ID,
		arg.CurrentWord,
		pq.Array(arg.UsedWords),
		pq.Array(arg.Players),
		arg.CurrentPlayerIndex,
		arg.Finished,
		arg.Outcome,
		arg.UpdatedAt,
		arg.PrevUpdatedAt,
	)
	return scanSession(row)
}

const listActiveSessions = `-- name: ListActiveSessions :many
SELECT ` + sessionColumns + `
FROM word_chain_sessions
WHERE finished = false
  AND (updated_at, id) > ($1, $2)
ORDER BY updated_at ASC, id ASC
LIMIT $3`

type ListActiveSessionsParams struct {
	AfterUpdatedAt time.Time `json:"after_updated_at"`
	AfterID        uuid.UUID `json:"after_id"`
	Limit          int32     `json:"limit"`
}

func (q *Queries) ListActiveSessions(ctx context.Context, arg ListActiveSessionsParams) ([]WordChainSession, error) {
	rows, err := q.db.QueryContext(ctx, listActiveSessions, arg.AfterUpdatedAt, arg.AfterID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WordChainSession
	for rows.Next() {
		i, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
