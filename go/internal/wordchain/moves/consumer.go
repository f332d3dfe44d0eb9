package moves

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
	"github.com/taxi-community/minigame/go/internal/natsutil"
	"github.com/taxi-community/minigame/go/internal/wordchain"
	"github.com/taxi-community/minigame/go/internal/wordchain/events"
)

// MoveSubmitter is what the consumer needs from the game engine
type MoveSubmitter interface {
	SubmitMove(ctx context.Context, req wordchain.MoveRequest) (*wordchain.MoveResult, error)
}

type ConsumerConfig struct {
	StreamName    string
	Durable       string
	SubjectPrefix string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	BufferSize    int
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		StreamName:    "WORDCHAIN_MOVES",
		Durable:       "wordchain-moves",
		SubjectPrefix: events.MovesPrefix,
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 256,
		BufferSize:    100,
	}
}

// StreamSpec returns the stream inbound moves are published into
func (c ConsumerConfig) StreamSpec() natsutil.StreamSpec {
	return natsutil.StreamSpec{
		Name:            c.StreamName,
		Description:     "Inbound word chain moves",
		Subjects:        []string{fmt.Sprintf("%s.>", c.SubjectPrefix)},
		MaxAge:          time.Hour,
		MaxMsgs:         -1,
		Replicas:        1,
		DuplicateWindow: 2 * time.Minute,
	}
}

// message is the part of jetstream.Msg the consumer uses
type message interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

// Consumer feeds moves from JetStream into the engine
type Consumer struct {
	submitter MoveSubmitter
	consumer  jetstream.Consumer
	cfg       ConsumerConfig
}

// NewConsumer ensures the stream and durable consumer exist
func NewConsumer(ctx context.Context, js jetstream.JetStream, submitter MoveSubmitter, cfg ConsumerConfig) (*Consumer, error) {
	if err := natsutil.EnsureStream(ctx, js, cfg.StreamSpec()); err != nil {
		return nil, fmt.Errorf("ensure moves stream: %w", err)
	}

	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
		Name:          cfg.Durable,
		Durable:       cfg.Durable,
		Description:   "Word chain move consumer",
		FilterSubject: fmt.Sprintf("%s.>", cfg.SubjectPrefix),
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    cfg.MaxDeliver,
		AckWait:       cfg.AckWait,
		MaxAckPending: cfg.MaxAckPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	return &Consumer{submitter: submitter, consumer: consumer, cfg: cfg}, nil
}

// Run consumes until ctx is cancelled
func (c *Consumer) Run(ctx context.Context) error {
	msgCh := make(chan jetstream.Msg, c.cfg.BufferSize)

	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case msgCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start JetStream consumer: %w", err)
	}
	defer consumeCtx.Stop()

	log.Info().Str("durable", c.cfg.Durable).Msg("move consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("move consumer shutting down")
			return nil
		case msg := <-msgCh:
			c.handleMessage(ctx, msg)
		}
	}
}

// handleMessage submits one move. Malformed and non-retryable messages are
// terminated; retryable failures are redelivered.
func (c *Consumer) handleMessage(ctx context.Context, msg message) {
	req, err := decodeMove(msg.Subject(), msg.Data())
	if err != nil {
		log.Warn().Err(err).Str("subject", msg.Subject()).Msg("dropping malformed move")
		msg.Term()
		return
	}

	res, err := c.submitter.SubmitMove(ctx, req)
	if err != nil {
		logger := log.With().
			Err(err).
			Str("room_id", req.RoomID.String()).
			Str("player_id", req.PlayerID.String()).
			Logger()
		if wordchain.IsRetryable(err) {
			logger.Warn().Msg("move failed, will be redelivered")
			msg.Nak()
			return
		}
		logger.Error().Msg("move failed permanently")
		msg.Term()
		return
	}

	log.Debug().
		Str("room_id", req.RoomID.String()).
		Str("player_id", req.PlayerID.String()).
		Str("outcome", string(res.Outcome)).
		Str("reason", string(res.Reason)).
		Msg("move processed")
	msg.Ack()
}

// decodeMove parses an envelope. The room may be given by the last subject
// token instead of the body.
func decodeMove(subject string, data []byte) (wordchain.MoveRequest, error) {
	var env events.MoveEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return wordchain.MoveRequest{}, fmt.Errorf("unmarshal move: %w", err)
	}

	if env.RoomID == uuid.Nil {
		token := subject[strings.LastIndex(subject, ".")+1:]
		id, err := uuid.Parse(token)
		if err != nil {
			return wordchain.MoveRequest{}, fmt.Errorf("move has no room id: %w", err)
		}
		env.RoomID = id
	}
	if env.PlayerID == uuid.Nil {
		return wordchain.MoveRequest{}, fmt.Errorf("move has no player id")
	}

	return wordchain.MoveRequest{
		RoomID:   env.RoomID,
		PlayerID: env.PlayerID,
		Word:     env.Word,
	}, nil
}
