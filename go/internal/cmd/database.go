package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/taxi-community/minigame/go/internal/dbconfig"
	"github.com/taxi-community/minigame/go/internal/sqlutil"
)

func setupDatabase(ctx context.Context, dbCfg dbconfig.Config, applySchema bool) (*sql.DB, error) {
	database, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	dbCfg.ApplyPool(database)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if applySchema {
		if err := sqlutil.ApplySchema(ctx, database); err != nil {
			database.Close()
			return nil, err
		}
		log.Info().Msg("database schema applied")
	}

	log.Info().
		Str("user", dbCfg.User).
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("database", dbCfg.Database).
		Msg("connected to database")
	return database, nil
}
