package dictionary

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taxi-community/minigame/go/internal/dictionary/db"
	"github.com/taxi-community/minigame/go/internal/sqlutil"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	WordExists(ctx context.Context, word string) (bool, error)
	ListWordsAfter(ctx context.Context, arg db.ListWordsAfterParams) ([]string, error)
}

// Repository is the Postgres-backed reference dictionary
type Repository struct {
	queries Querier
	conn    sqlutil.Beginner
}

// NewRepository creates a dictionary repository. conn is only needed for
// InsertWords and may be nil for read-only use.
func NewRepository(querier Querier, conn sqlutil.Beginner) *Repository {
	return &Repository{
		queries: querier,
		conn:    conn,
	}
}

// Contains reports whether word is in the dictionary
func (r *Repository) Contains(ctx context.Context, word string) (bool, error) {
	ok, err := r.queries.WordExists(ctx, word)
	if err != nil {
		return false, fmt.Errorf("failed to check word: %w", err)
	}
	return ok, nil
}

// ListWords returns up to limit words that sort after the given word
func (r *Repository) ListWords(ctx context.Context, after string, limit int32) ([]string, error) {
	words, err := r.queries.ListWordsAfter(ctx, db.ListWordsAfterParams{
		After: after,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	return words, nil
}

// InsertWords adds words in one transaction and returns how many were new
func (r *Repository) InsertWords(ctx context.Context, words []string) (int, error) {
	if r.conn == nil {
		return 0, fmt.Errorf("dictionary repository has no connection for writes")
	}

	var inserted int
	err := sqlutil.Run(ctx, r.conn, nil,
		func(tx *sql.Tx) *db.Queries { return db.New(tx) },
		func(q *db.Queries) error {
			inserted = 0
			for _, w := range words {
				n, err := q.InsertWord(ctx, w)
				if err != nil {
					return fmt.Errorf("failed to insert word %q: %w", w, err)
				}
				inserted += int(n)
			}
			return nil
		})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
