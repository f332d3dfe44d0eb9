package dictionary

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultBatchSize is how many words the loader writes per transaction.
const DefaultBatchSize = 1000

// WordInserter stores a batch of words and reports how many were new.
type WordInserter interface {
	InsertWords(ctx context.Context, words []string) (int, error)
}

// LoadStats summarises a bulk load
type LoadStats struct {
	Read     int
	Inserted int
	Skipped  int
	Batches  int
}

// Loader bulk-loads a newline separated word list. Blank lines and lines
// starting with '#' are ignored; words are lowercased and trimmed.
type Loader struct {
	store     WordInserter
	batchSize int
}

func NewLoader(store WordInserter, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{store: store, batchSize: batchSize}
}

// Load reads r to the end, writing words in batches
func (l *Loader) Load(ctx context.Context, r io.Reader) (LoadStats, error) {
	var stats LoadStats
	batch := make([]string, 0, l.batchSize)
	seen := make(map[string]struct{})

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := l.store.InsertWords(ctx, batch)
		if err != nil {
			return fmt.Errorf("batch %d: %w", stats.Batches+1, err)
		}
		stats.Batches++
		stats.Inserted += n
		stats.Skipped += len(batch) - n
		log.Debug().Int("batch", stats.Batches).Int("inserted", n).Msg("dictionary batch written")
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		stats.Read++
		if _, dup := seen[word]; dup {
			stats.Skipped++
			continue
		}
		seen[word] = struct{}{}
		batch = append(batch, word)
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read word list: %w", err)
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}
