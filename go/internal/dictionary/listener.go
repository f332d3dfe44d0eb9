package dictionary

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Refresher reloads a cached dictionary.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to reload in case a notification was missed
	PingInterval     time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		DatabaseURL:      "",
		NotifyChannel:    "dictionary_changed",
		FallbackInterval: 10 * time.Minute,
		PingInterval:     90 * time.Second,
	}
}

// Listener refreshes the cache whenever the dictionary table changes.
type Listener struct {
	listener *pq.Listener
	cache    Refresher
	cfg      ListenerConfig
}

func NewListener(cache Refresher, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("dictionary listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for dictionary changes")

	return &Listener{
		listener: l,
		cache:    cache,
		cfg:      cfg,
	}, nil
}

func (l *Listener) Start(ctx context.Context) error {
	pingTicker := time.NewTicker(l.cfg.PingInterval)
	fallbackTicker := time.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("dictionary listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if err := l.handleNotification(ctx, note); err != nil {
				log.Error().Err(err).Msg("failed to handle dictionary notification")
			}
		case <-fallbackTicker.C:
			if err := l.cache.Refresh(ctx); err != nil {
				log.Error().Err(err).Msg("periodic dictionary refresh failed")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.listener.Close()
}

// handleNotification reloads the cache. A nil note means the connection was
// re-established and notifications may have been lost, so it reloads too.
func (l *Listener) handleNotification(ctx context.Context, note *pq.Notification) error {
	op := "reconnect"
	if note != nil {
		op = note.Extra
	}
	if err := l.cache.Refresh(ctx); err != nil {
		return err
	}
	log.Info().Str("op", op).Msg("dictionary cache reloaded after change")
	return nil
}
