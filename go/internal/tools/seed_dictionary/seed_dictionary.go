package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/taxi-community/minigame/go/internal/dbconfig"
	"github.com/taxi-community/minigame/go/internal/dictionary"
	dictionarydb "github.com/taxi-community/minigame/go/internal/dictionary/db"
)

// defaultWordList is relative to the repository root.
const defaultWordList = "go/internal/assets/words.txt"

const (
	// driverPgx sends each batch as one pgx.Batch round trip.
	driverPgx = "pgx"
	// driverSQL writes each batch in one database/sql transaction through
	// the dictionary repository.
	driverSQL = "sql"
)

const insertWordSQL = `
    INSERT INTO dictionary_words (word)
    VALUES ($1)
    ON CONFLICT (word) DO NOTHING
`

// batchInserter sends each batch of words in a single round trip.
type batchInserter struct {
	pool *pgxpool.Pool
}

func (b batchInserter) InsertWords(ctx context.Context, words []string) (int, error) {
	batch := &pgx.Batch{}
	for _, w := range words {
		batch.Queue(insertWordSQL, w)
	}

	results := b.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for _, w := range words {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert word %q: %w", w, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func newCmd() *cobra.Command {
	var (
		file      string
		driver    string
		batchSize int
	)

	cmd := &cobra.Command{
		Use:           "seed_dictionary",
		Short:         "Bulk-load a newline separated word list into dictionary_words.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return seed(cmd.Context(), file, driver, batchSize)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVarP(&file, "file", "f", defaultWordList, "path to the word list")
	fs.StringVarP(&driver, "driver", "d", driverPgx, "write path: pgx (batched) or sql (transactional)")
	fs.IntVarP(&batchSize, "batch-size", "b", dictionary.DefaultBatchSize, "words written per batch")

	return cmd
}

// openInserter connects with the chosen driver. The returned close func
// releases the connection.
func openInserter(ctx context.Context, driver string, cfg dbconfig.Config) (dictionary.WordInserter, func(), error) {
	switch driver {
	case driverPgx:
		pool, err := pgxpool.New(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect: %w", err)
		}
		return batchInserter{pool: pool}, pool.Close, nil
	case driverSQL:
		database, err := sql.Open("postgres", cfg.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect: %w", err)
		}
		cfg.ApplyPool(database)
		repo := dictionary.NewRepository(dictionarydb.New(database), database)
		return repo, func() { database.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown driver %q, want %s or %s", driver, driverPgx, driverSQL)
	}
}

func seed(ctx context.Context, path, driver string, batchSize int) error {
	// 1) Open the word list
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	// 2) Connect using shared dbconfig
	store, closeStore, err := openInserter(ctx, driver, dbconfig.NewConfigFromEnv())
	if err != nil {
		return err
	}
	defer closeStore()

	// 3) Load in batches
	loader := dictionary.NewLoader(store, batchSize)
	stats, err := loader.Load(ctx, f)
	if err != nil {
		return fmt.Errorf("load words: %w", err)
	}

	// 4) Print summary
	fmt.Printf(
		"Dictionary seed complete: %d read, %d inserted, %d skipped, %d batches\n",
		stats.Read, stats.Inserted, stats.Skipped, stats.Batches,
	)
	return nil
}

func main() {
	if err := newCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
