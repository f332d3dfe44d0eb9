package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
	"github.com/taxi-community/minigame/go/internal/dictionary"
	"github.com/taxi-community/minigame/go/internal/natsutil"
	"github.com/taxi-community/minigame/go/internal/rooms"
	"github.com/taxi-community/minigame/go/internal/users"
	"github.com/taxi-community/minigame/go/internal/wordchain"
	"github.com/taxi-community/minigame/go/internal/wordchain/moves"
	"github.com/taxi-community/minigame/go/internal/wordchain/notify"
	"github.com/taxi-community/minigame/go/internal/wordchain/repository"
	"github.com/taxi-community/minigame/go/internal/wordchain/supervisor"

	dictionarydb "github.com/taxi-community/minigame/go/internal/dictionary/db"
	roomsdb "github.com/taxi-community/minigame/go/internal/rooms/db"
	usersdb "github.com/taxi-community/minigame/go/internal/users/db"
	sessiondb "github.com/taxi-community/minigame/go/internal/wordchain/repository/db"
)

type Services struct {
	Engine     *wordchain.Engine
	WordChain  *wordchain.Service
	Supervisor *supervisor.Supervisor
	Dictionary *dictionary.CachedLookup
	Listener   *dictionary.Listener
	Moves      *moves.Consumer
}

// setupServices wires the engine and its collaborators. js may be nil, in
// which case notifications go to the log and no moves are consumed.
func setupServices(ctx context.Context, config *Config, database *sql.DB, dsn string, js jetstream.JetStream) (*Services, error) {
	// Database layer → Repository layer → Engine → Service layer
	clock := clockwork.NewRealClock()

	sessionRepo := repository.NewRepository(sessiondb.New(database))
	roomRepo := rooms.NewRepository(roomsdb.New(database))
	userRepo := users.NewRepository(usersdb.New(database))

	// Dictionary
	dictRepo := dictionary.NewRepository(dictionarydb.New(database), database)
	dictCache := dictionary.NewCachedLookup(dictRepo, dictionary.DefaultPageSize)
	if err := dictCache.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}
	listenerCfg := dictionary.DefaultListenerConfig()
	listenerCfg.DatabaseURL = dsn
	listener, err := dictionary.NewListener(dictCache, listenerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start dictionary listener: %w", err)
	}

	// Notifications
	var sink wordchain.Notifier = notify.LogSink{}
	if js != nil {
		sinkCfg := notify.DefaultSinkConfig()
		sinkCfg.StreamName = config.NATS.Stream
		if err := natsutil.EnsureStream(ctx, js, sinkCfg.StreamSpec()); err != nil {
			return nil, fmt.Errorf("failed to ensure chat stream: %w", err)
		}
		sink = notify.NewJetStreamSink(js, sinkCfg, clock)
	} else {
		log.Warn().Msg("NATS disabled - notifications are only logged")
	}

	// Game engine
	sup := supervisor.New(clock, supervisor.Config{
		Workers:   config.Game.Workers,
		QueueSize: config.Game.QueueSize,
	})
	engineCfg := wordchain.DefaultConfig()
	engineCfg.TurnTimeout = config.Game.TurnTimeout
	engineCfg.RetryDelay = config.Game.RetryDelay
	engine := wordchain.NewEngine(sessionRepo, roomRepo, userRepo, dictCache, sink, sup, clock, engineCfg)

	services := &Services{
		Engine:     engine,
		WordChain:  wordchain.NewService(engine),
		Supervisor: sup,
		Dictionary: dictCache,
		Listener:   listener,
	}

	if js != nil {
		consumerCfg := moves.DefaultConsumerConfig()
		consumerCfg.StreamName = config.NATS.MovesStream
		consumer, err := moves.NewConsumer(ctx, js, engine, consumerCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create moves consumer: %w", err)
		}
		services.Moves = consumer
	}

	return services, nil
}

// handleTimeout adapts the engine to the supervisor's handler signature.
func (s *Services) handleTimeout(ctx context.Context, roomID uuid.UUID) error {
	_, err := s.Engine.HandleTimeout(ctx, roomID)
	return err
}
