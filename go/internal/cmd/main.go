package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/taxi-community/minigame/go/internal/dbconfig"
	"github.com/taxi-community/minigame/go/internal/natsutil"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if lvl, err := zerolog.ParseLevel(config.Log.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbCfg := dbconfig.NewConfigFromEnv()
	database, err := setupDatabase(ctx, dbCfg, config.Database.ApplySchema)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database")
	}
	defer database.Close()

	var js jetstream.JetStream
	if config.NATS.Enabled {
		natsCfg := natsutil.DefaultJetStreamConfig()
		natsCfg.URL = config.NATS.URL
		natsCfg.Name = "wordchain-server"
		nc, stream, err := natsutil.Connect(natsCfg)
		if err != nil {
			log.Fatal().Err(err).Str("nats_url", natsCfg.URL).Msg("failed to connect to NATS")
		}
		defer nc.Close()
		js = stream
	}

	services, err := setupServices(ctx, config, database, dbCfg.DSN(), js)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}

	if config.Game.RecoverTimers {
		if _, err := services.Engine.RecoverTimers(ctx); err != nil {
			log.Error().Err(err).Msg("failed to recover turn timers")
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := services.Supervisor.Run(ctx, services.handleTimeout); err != nil {
			log.Error().Err(err).Msg("turn supervisor failed")
		}
	}()
	go func() {
		defer wg.Done()
		if err := services.Listener.Start(ctx); err != nil {
			log.Error().Err(err).Msg("dictionary listener failed")
		}
	}()
	if services.Moves != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := services.Moves.Run(ctx); err != nil {
				log.Error().Err(err).Msg("move consumer failed")
			}
		}()
	}

	server := setupServer(config, services)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Dur("turn_timeout", config.Game.TurnTimeout).
			Msg("word chain server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()
	wg.Wait()

	log.Info().Msg("word chain server shutdown complete")
}
