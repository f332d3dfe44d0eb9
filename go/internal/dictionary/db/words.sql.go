package db

import (
	"context"
)

const wordExists = `-- name: WordExists :one
SELECT EXISTS (SELECT 1 FROM dictionary_words WHERE word = $1)
`

func (q *Queries) WordExists(ctx context.Context, word string) (bool, error) {
	row := q.db.QueryRowContext(ctx, wordExists, word)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listWordsAfter = `-- name: ListWordsAfter :many
SELECT word FROM dictionary_words
WHERE word > $1
ORDER BY word
LIMIT $2
`

type ListWordsAfterParams struct {
	After string `json:"after"`
	Limit int32  `json:"limit"`
}

func (q *Queries) ListWordsAfter(ctx context.Context, arg ListWordsAfterParams) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listWordsAfter, arg.After, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, err
		}
		items = append(items, word)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertWord = `-- name: InsertWord :execrows
INSERT INTO dictionary_words (word)
VALUES ($1)
ON CONFLICT (word) DO NOTHING
`

func (q *Queries) InsertWord(ctx context.Context, word string) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertWord, word)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
