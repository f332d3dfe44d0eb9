package dictionary

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultPageSize is how many words a refresh reads per query.
const DefaultPageSize int32 = 1000

// WordSource pages through the stored dictionary in word order and answers
// single-word lookups.
type WordSource interface {
	ListWords(ctx context.Context, after string, limit int32) ([]string, error)
	Contains(ctx context.Context, word string) (bool, error)
}

// CachedLookup answers membership from an in-memory copy of the dictionary.
// The copy is loaded on first use and replaced wholesale by Refresh. Until a
// load succeeds, lookups go to the source one word at a time.
type CachedLookup struct {
	source   WordSource
	pageSize int32

	mu     sync.RWMutex
	words  map[string]struct{}
	loaded bool
}

// NewCachedLookup creates a cache over source
func NewCachedLookup(source WordSource, pageSize int32) *CachedLookup {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &CachedLookup{
		source:   source,
		pageSize: pageSize,
		words:    make(map[string]struct{}),
	}
}

// Contains reports whether word is in the dictionary
func (c *CachedLookup) Contains(ctx context.Context, word string) (bool, error) {
	c.mu.RLock()
	loaded := c.loaded
	_, ok := c.words[word]
	c.mu.RUnlock()
	if loaded {
		return ok, nil
	}

	if err := c.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("dictionary cache not loaded, falling back to source lookup")
		ok, lookupErr := c.source.Contains(ctx, word)
		if lookupErr != nil {
			return false, errors.Join(err, lookupErr)
		}
		return ok, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok = c.words[word]
	return ok, nil
}

// Refresh reloads every word from the source. The previous copy stays in
// service if the reload fails.
func (c *CachedLookup) Refresh(ctx context.Context) error {
	next := make(map[string]struct{})
	after := ""
	for {
		page, err := c.source.ListWords(ctx, after, c.pageSize)
		if err != nil {
			return fmt.Errorf("failed to refresh dictionary: %w", err)
		}
		for _, w := range page {
			next[w] = struct{}{}
		}
		if len(page) < int(c.pageSize) {
			break
		}
		after = page[len(page)-1]
	}

	c.mu.Lock()
	c.words = next
	c.loaded = true
	c.mu.Unlock()

	log.Debug().Int("words", len(next)).Msg("dictionary cache refreshed")
	return nil
}

// Size returns the number of cached words
func (c *CachedLookup) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.words)
}
