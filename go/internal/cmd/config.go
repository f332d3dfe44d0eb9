package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Game struct {
		TurnTimeout   time.Duration `yaml:"turn_timeout"`
		RetryDelay    time.Duration `yaml:"retry_delay"`
		Workers       int           `yaml:"workers"`
		QueueSize     int           `yaml:"queue_size"`
		RecoverTimers bool          `yaml:"recover_timers"`
	} `yaml:"game"`
	HTTP struct {
		Port string `yaml:"port"`
	} `yaml:"http"`
	NATS struct {
		URL         string `yaml:"url"`
		Stream      string `yaml:"stream"`
		MovesStream string `yaml:"moves_stream"`
		Enabled     bool   `yaml:"enabled"`
	} `yaml:"nats"`
	Database struct {
		ApplySchema bool `yaml:"apply_schema"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func defaultConfig() *Config {
	var c Config
	c.Game.TurnTimeout = 30 * time.Second
	c.Game.RetryDelay = 5 * time.Second
	c.Game.Workers = 10
	c.Game.QueueSize = 100
	c.Game.RecoverTimers = true
	c.HTTP.Port = "8080"
	c.NATS.URL = "nats://localhost:4222"
	c.NATS.Stream = "CHAT_EVENTS"
	c.NATS.MovesStream = "WORDCHAIN_MOVES"
	c.NATS.Enabled = true
	c.Log.Level = "info"
	return &c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// loadConfig reads the YAML file at path, if present, over the defaults and
// then applies environment overrides.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Game.TurnTimeout = getEnvAsDuration("GAME_TURN_TIMEOUT", config.Game.TurnTimeout)
	config.Game.RetryDelay = getEnvAsDuration("GAME_RETRY_DELAY", config.Game.RetryDelay)
	config.Game.Workers = getEnvAsInt("GAME_WORKERS", config.Game.Workers)
	config.Game.QueueSize = getEnvAsInt("GAME_QUEUE_SIZE", config.Game.QueueSize)
	config.Game.RecoverTimers = getEnvAsBool("GAME_RECOVER_TIMERS", config.Game.RecoverTimers)
	config.HTTP.Port = getEnv("PORT", config.HTTP.Port)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.NATS.Stream = getEnv("NATS_CHAT_STREAM", config.NATS.Stream)
	config.NATS.MovesStream = getEnv("NATS_MOVES_STREAM", config.NATS.MovesStream)
	config.NATS.Enabled = getEnvAsBool("NATS_ENABLED", config.NATS.Enabled)
	config.Database.ApplySchema = getEnvAsBool("DB_APPLY_SCHEMA", config.Database.ApplySchema)
	config.Log.Level = getEnv("LOG_LEVEL", config.Log.Level)

	if config.Game.TurnTimeout <= 0 {
		return nil, fmt.Errorf("game.turn_timeout must be positive, got %s", config.Game.TurnTimeout)
	}
	return config, nil
}
