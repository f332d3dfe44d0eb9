package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
	"github.com/taxi-community/minigame/go/internal/natsutil"
	"github.com/taxi-community/minigame/go/internal/wordchain/events"
)

// MsgPublisher is the part of jetstream.JetStream the sink uses.
type MsgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type SinkConfig struct {
	StreamName    string
	SubjectPrefix string
}

func DefaultSinkConfig() SinkConfig {
	return SinkConfig{
		StreamName:    "CHAT_EVENTS",
		SubjectPrefix: events.ChatEventsPrefix,
	}
}

// StreamSpec returns the stream the sink publishes into
func (c SinkConfig) StreamSpec() natsutil.StreamSpec {
	return natsutil.StreamSpec{
		Name:            c.StreamName,
		Description:     "Room chat events",
		Subjects:        []string{fmt.Sprintf("%s.>", c.SubjectPrefix)},
		MaxAge:          24 * time.Hour,
		MaxMsgs:         -1, // No limit
		Replicas:        1,
		DuplicateWindow: 2 * time.Minute,
	}
}

// JetStreamSink publishes room notifications as chat events
type JetStreamSink struct {
	js    MsgPublisher
	cfg   SinkConfig
	clock clockwork.Clock
}

func NewJetStreamSink(js MsgPublisher, cfg SinkConfig, clock clockwork.Clock) *JetStreamSink {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &JetStreamSink{js: js, cfg: cfg, clock: clock}
}

// Emit publishes one notification for the room
func (s *JetStreamSink) Emit(ctx context.Context, roomID uuid.UUID, category, content string) error {
	ev := events.ChatEvent{
		EventID:   uuid.New(),
		RoomID:    roomID,
		Type:      category,
		Content:   content,
		Timestamp: s.clock.Now().UTC(),
	}
	data, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	subject := subjectFor(s.cfg.SubjectPrefix, roomID)
	ack, err := s.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{category},
			"Room-ID":    []string{roomID.String()},
			"Event-ID":   []string{ev.EventID.String()},
		},
	},
		jetstream.WithMsgID(ev.EventID.String()),
		jetstream.WithExpectStream(s.cfg.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", ev.EventID.String()).
		Uint64("sequence", ack.Sequence).
		Msg("published chat event")
	return nil
}

func subjectFor(prefix string, roomID uuid.UUID) string {
	return fmt.Sprintf("%s.%s", prefix, roomID)
}

func encodeEvent(ev events.ChatEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}
