package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
	"github.com/taxi-community/minigame/go/internal/natsutil"
	"github.com/taxi-community/minigame/go/internal/wordchain/events"
	"github.com/taxi-community/minigame/go/internal/wordchain/notify"
)

// JetStreamConsumerConfig holds configuration for the JetStream consumer
type JetStreamConsumerConfig struct {
	Stream        notify.SinkConfig
	ConsumerName  string
	MaxDeliver    int           // Max delivery attempts
	AckWait       time.Duration // How long to wait for ack
	MaxAckPending int           // Max messages pending ack
}

// DefaultJetStreamConsumerConfig returns default JetStream consumer configuration
func DefaultJetStreamConsumerConfig() JetStreamConsumerConfig {
	return JetStreamConsumerConfig{
		Stream:        notify.DefaultSinkConfig(),
		ConsumerName:  "wordchain-gateway",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
	}
}

// Broadcaster delivers an event to a room's sockets
type Broadcaster interface {
	BroadcastToRoom(roomID uuid.UUID, event *events.ChatEvent)
}

// EventConsumer consumes chat events and broadcasts them to WebSocket clients
type EventConsumer struct {
	broadcaster Broadcaster
	consumer    jetstream.Consumer
	config      JetStreamConsumerConfig
}

// NewEventConsumer ensures the chat stream and the gateway consumer exist
func NewEventConsumer(ctx context.Context, js jetstream.JetStream, b Broadcaster, config JetStreamConsumerConfig) (*EventConsumer, error) {
	if err := natsutil.EnsureStream(ctx, js, config.Stream.StreamSpec()); err != nil {
		return nil, fmt.Errorf("ensure chat stream: %w", err)
	}

	consumer, err := js.CreateOrUpdateConsumer(ctx, config.Stream.StreamName, jetstream.ConsumerConfig{
		Name:          config.ConsumerName,
		Durable:       config.ConsumerName,
		Description:   "Word chain gateway WebSocket consumer",
		FilterSubject: fmt.Sprintf("%s.>", config.Stream.SubjectPrefix),
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    config.MaxDeliver,
		AckWait:       config.AckWait,
		MaxAckPending: config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	log.Info().
		Str("consumer", config.ConsumerName).
		Str("stream", config.Stream.StreamName).
		Msg("JetStream consumer ready")

	return &EventConsumer{
		broadcaster: b,
		consumer:    consumer,
		config:      config,
	}, nil
}

// Start consumes events until ctx is cancelled
func (ec *EventConsumer) Start(ctx context.Context) error {
	messageCh := make(chan jetstream.Msg, 100)

	consumeCtx, err := ec.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := ec.processMessage(msg.Data()); err != nil {
				// Undecodable events will never succeed.
				log.Error().
					Err(err).
					Str("subject", msg.Subject()).
					Msg("failed to process message")
				if termErr := msg.Term(); termErr != nil {
					log.Error().Err(termErr).Msg("failed to TERM message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

func (ec *EventConsumer) processMessage(data []byte) error {
	var event events.ChatEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("unmarshal chat event: %w", err)
	}
	if event.RoomID == uuid.Nil {
		return fmt.Errorf("chat event %s has no room id", event.EventID)
	}

	ec.broadcaster.BroadcastToRoom(event.RoomID, &event)

	log.Debug().
		Str("event_id", event.EventID.String()).
		Str("room_id", event.RoomID.String()).
		Str("type", event.Type).
		Msg("event broadcasted to WebSocket clients")
	return nil
}
