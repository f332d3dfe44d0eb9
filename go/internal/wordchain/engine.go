package wordchain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/taxi-community/minigame/go/internal/models"
	"github.com/taxi-community/minigame/go/internal/users"
)

// SessionRepository defines what the engine needs from the session store
type SessionRepository interface {
	FindActiveByRoom(ctx context.Context, roomID uuid.UUID) (*models.Session, error)
	FindLatestByRoom(ctx context.Context, roomID uuid.UUID) (*models.Session, error)
	CreateSession(ctx context.Context, s *models.Session) (*models.Session, error)
	ReplaceSession(ctx context.Context, s *models.Session, prevUpdatedAt time.Time) (*models.Session, error)
	ListActiveSessions(ctx context.Context, after models.SessionCursor, limit int32) ([]*models.Session, error)
}

// RoomDirectory supplies the ordered participant roster of a room
type RoomDirectory interface {
	Roster(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error)
}

// ParticipantDirectory resolves player identifiers to users
type ParticipantDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Notifier broadcasts a chat event to a room
type Notifier interface {
	Emit(ctx context.Context, roomID uuid.UUID, category, content string) error
}

// Scheduler owns the per-room turn timers. Schedule replaces any pending
// timer for the room; Cancel is a no-op when none is pending.
type Scheduler interface {
	Schedule(roomID uuid.UUID, delay time.Duration)
	Cancel(roomID uuid.UUID)
}

// Engine runs word-chain games. Submissions and timeouts for the same room
// are serialised; the store's UpdatedAt fence guards against writers in
// other processes.
type Engine struct {
	repo      SessionRepository
	rooms     RoomDirectory
	users     ParticipantDirectory
	notifier  Notifier
	scheduler Scheduler
	arbiter   *Arbiter
	clock     clockwork.Clock
	cfg       Config
	locks     *roomLocks
}

// NewEngine creates a new word-chain engine
func NewEngine(repo SessionRepository, roomDir RoomDirectory, userDir ParticipantDirectory, dict Dictionary, notifier Notifier, scheduler Scheduler, clock clockwork.Clock, cfg Config) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultConfig().RetryDelay
	}
	if cfg.RecoverBatchSize <= 0 {
		cfg.RecoverBatchSize = DefaultConfig().RecoverBatchSize
	}
	return &Engine{
		repo:      repo,
		rooms:     roomDir,
		users:     userDir,
		notifier:  notifier,
		scheduler: scheduler,
		arbiter:   NewArbiter(dict),
		clock:     clock,
		cfg:       cfg,
		locks:     newRoomLocks(),
	}
}

// TurnTimeout returns the configured turn clock.
func (e *Engine) TurnTimeout() time.Duration {
	return e.cfg.TurnTimeout
}

// SubmitMove handles a word posted by a player. User mistakes come back as a
// rejected MoveResult with a notification; only structural and infrastructure
// faults are returned as errors, and those emit nothing.
func (e *Engine) SubmitMove(ctx context.Context, req MoveRequest) (*MoveResult, error) {
	unlock := e.locks.lock(req.RoomID)
	defer unlock()

	roster, err := e.rooms.Roster(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, req.RoomID)
		}
		return nil, fmt.Errorf("failed to load room roster: %w", err)
	}

	word := NormalizeWord(req.Word)

	session, err := e.repo.FindActiveByRoom(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return e.start(ctx, req.RoomID, roster, req.PlayerID, word)
		}
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}

	return e.advance(ctx, session, req.PlayerID, word)
}

func (e *Engine) start(ctx context.Context, roomID uuid.UUID, roster []uuid.UUID, player uuid.UUID, word string) (*MoveResult, error) {
	verdict, err := e.arbiter.JudgeOpening(ctx, roster, player, word)
	if err != nil {
		return nil, err
	}
	if !verdict.Accepted {
		return e.rejected(ctx, roomID, nil, verdict, word), nil
	}

	session, err := Start(uuid.New(), roomID, roster, player, word, e.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	created, err := e.repo.CreateSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	e.scheduler.Schedule(roomID, e.cfg.TurnTimeout)

	log.Info().
		Str("room_id", roomID.String()).
		Str("session_id", created.ID.String()).
		Str("player_id", player.String()).
		Str("word", word).
		Msg("word chain started")

	next := e.lookupUser(ctx, created.Players[created.CurrentPlayerIndex])
	e.emit(ctx, roomID, startedMessage(word, next.Nickname))

	return &MoveResult{Outcome: MoveStarted, Session: created, NextPlayer: next}, nil
}

func (e *Engine) advance(ctx context.Context, session *models.Session, player uuid.UUID, word string) (*MoveResult, error) {
	verdict, err := e.arbiter.JudgeMove(ctx, session, player, word)
	if err != nil {
		return nil, err
	}
	if !verdict.Accepted {
		return e.rejected(ctx, session.RoomID, session, verdict, word), nil
	}

	next, err := Advance(session, word, e.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to advance session: %w", err)
	}
	saved, err := e.repo.ReplaceSession(ctx, next, session.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	// The committed state owns a fresh turn clock before anything else can fail.
	e.scheduler.Schedule(saved.RoomID, e.cfg.TurnTimeout)

	nextID := saved.Players[saved.CurrentPlayerIndex]
	nextUser, err := e.users.GetUser(ctx, nextID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			log.Error().
				Str("room_id", saved.RoomID.String()).
				Str("player_id", nextID.String()).
				Msg("next player not found after accepted move")
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, nextID)
		}
		return nil, fmt.Errorf("failed to resolve next player: %w", err)
	}

	log.Info().
		Str("room_id", saved.RoomID.String()).
		Str("session_id", saved.ID.String()).
		Str("player_id", player.String()).
		Str("word", word).
		Int("used_words", len(saved.UsedWords)).
		Msg("word accepted")

	e.emit(ctx, saved.RoomID, acceptedMessage(word, nextUser.Nickname))

	return &MoveResult{Outcome: MoveAccepted, Session: saved, NextPlayer: nextUser}, nil
}

func (e *Engine) rejected(ctx context.Context, roomID uuid.UUID, session *models.Session, v Verdict, word string) *MoveResult {
	var rightful, currentWord string
	if v.Reason == ReasonNotYourTurn {
		rightful = e.lookupUser(ctx, v.Rightful).Nickname
	}
	if session != nil {
		currentWord = session.CurrentWord
	}

	log.Debug().
		Str("room_id", roomID.String()).
		Str("reason", string(v.Reason)).
		Str("word", word).
		Msg("move rejected")

	e.emit(ctx, roomID, rejectionMessage(v, word, currentWord, rightful))
	return &MoveResult{Outcome: MoveRejected, Reason: v.Reason, Session: session}
}

// HandleTimeout is invoked when a room's turn timer fires. Obsolete firings,
// where the session moved on after the timer was armed, are ignored.
func (e *Engine) HandleTimeout(ctx context.Context, roomID uuid.UUID) (*TimeoutResult, error) {
	unlock := e.locks.lock(roomID)
	defer unlock()

	session, err := e.repo.FindActiveByRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			log.Debug().Str("room_id", roomID.String()).Msg("timeout for room without active session - ignoring")
			return &TimeoutResult{Outcome: TimeoutIgnored}, nil
		}
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}

	now := e.clock.Now()
	if now.Sub(session.UpdatedAt) < e.cfg.TurnTimeout {
		log.Debug().
			Str("room_id", roomID.String()).
			Time("updated_at", session.UpdatedAt).
			Msg("stale timeout - session updated since timer was armed")
		return &TimeoutResult{Outcome: TimeoutIgnored, Session: session}, nil
	}

	next, eliminated, err := Eliminate(session, now)
	if err != nil {
		return nil, fmt.Errorf("failed to eliminate player: %w", err)
	}
	saved, err := e.repo.ReplaceSession(ctx, next, session.UpdatedAt)
	if err != nil {
		// Nothing was committed; re-arm so the elimination is retried.
		e.scheduler.Schedule(roomID, e.cfg.RetryDelay)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	log.Info().
		Str("room_id", roomID.String()).
		Str("session_id", saved.ID.String()).
		Str("player_id", eliminated.String()).
		Int("remaining", len(saved.Players)).
		Msg("player eliminated by timeout")

	result := &TimeoutResult{Eliminated: eliminated, Session: saved}

	switch saved.State() {
	case models.SessionStateFinishedWinner:
		e.scheduler.Cancel(roomID)
		result.Outcome = TimeoutWon
		e.emit(ctx, roomID, eliminatedMessage(e.lookupUser(ctx, eliminated).Nickname))
		e.emit(ctx, roomID, winnerMessage(e.lookupUser(ctx, *saved.Outcome.Winner).Nickname))
		log.Info().
			Str("room_id", roomID.String()).
			Str("winner_id", saved.Outcome.Winner.String()).
			Msg("word chain won")

	case models.SessionStateFinishedAborted:
		e.scheduler.Cancel(roomID)
		result.Outcome = TimeoutAborted
		e.emit(ctx, roomID, eliminatedMessage(e.lookupUser(ctx, eliminated).Nickname))
		e.emit(ctx, roomID, abortedMessage())
		log.Warn().Str("room_id", roomID.String()).Msg("word chain aborted - no players left")

	default:
		e.scheduler.Schedule(roomID, e.cfg.TurnTimeout)
		result.Outcome = TimeoutNextTurn
		e.emit(ctx, roomID, eliminatedMessage(e.lookupUser(ctx, eliminated).Nickname))
		current := saved.Players[saved.CurrentPlayerIndex]
		e.emit(ctx, roomID, nextTurnMessage(e.lookupUser(ctx, current).Nickname, saved.CurrentWord))
	}

	return result, nil
}

// GetSession returns the most recent session of a room, active or finished.
func (e *Engine) GetSession(ctx context.Context, roomID uuid.UUID) (*models.Session, error) {
	session, err := e.repo.FindLatestByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// RecoverTimers re-arms the turn timers of active sessions after a restart,
// each for the time its current player had left. Sessions are read in pages
// of RecoverBatchSize until a short page comes back.
func (e *Engine) RecoverTimers(ctx context.Context) (int, error) {
	now := e.clock.Now()
	var after models.SessionCursor
	recovered := 0
	for {
		page, err := e.repo.ListActiveSessions(ctx, after, e.cfg.RecoverBatchSize)
		if err != nil {
			return recovered, fmt.Errorf("failed to list active sessions: %w", err)
		}

		for _, s := range page {
			remaining := s.UpdatedAt.Add(e.cfg.TurnTimeout).Sub(now)
			if remaining < 0 {
				remaining = 0
			}
			e.scheduler.Schedule(s.RoomID, remaining)
			log.Debug().
				Str("room_id", s.RoomID.String()).
				Dur("remaining", remaining).
				Msg("recovered turn timer")
		}
		recovered += len(page)

		if len(page) < int(e.cfg.RecoverBatchSize) {
			break
		}
		after = page[len(page)-1].Cursor()
	}

	log.Info().Int("sessions", recovered).Msg("recovered turn timers")
	return recovered, nil
}

// lookupUser resolves a nickname for informational messages, falling back to
// a placeholder when the directory cannot answer.
func (e *Engine) lookupUser(ctx context.Context, id uuid.UUID) *models.User {
	user, err := e.users.GetUser(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("player_id", id.String()).Msg("failed to resolve player nickname")
		return &models.User{ID: id, Nickname: unknownPlayerName}
	}
	return user
}

func (e *Engine) emit(ctx context.Context, roomID uuid.UUID, content string) {
	if err := e.notifier.Emit(ctx, roomID, NotificationCategory, content); err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to emit notification")
	}
}
