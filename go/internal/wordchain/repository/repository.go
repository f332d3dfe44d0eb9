package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/taxi-community/minigame/go/internal/models"
	"github.com/taxi-community/minigame/go/internal/sqlutil"
	"github.com/taxi-community/minigame/go/internal/wordchain/repository/db"
)

var (
	// ErrSessionNotFound is returned when no matching session exists.
	ErrSessionNotFound = errors.New("word chain session not found")
	// ErrStaleSession is returned when a replace loses the race on updated_at.
	ErrStaleSession = errors.New("word chain session changed since it was read")
	// ErrSessionConflict is returned when the room already has an active session.
	ErrSessionConflict = errors.New("room already has an active word chain session")
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Querier defines what the repository needs from the database layer
type Querier interface {
	CreateSession(ctx context.Context, arg db.CreateSessionParams) (db.WordChainSession, error)
	GetActiveSessionByRoom(ctx context.Context, roomID uuid.UUID) (db.WordChainSession, error)
	GetLatestSessionByRoom(ctx context.Context, roomID uuid.UUID) (db.WordChainSession, error)
	ReplaceSession(ctx context.Context, arg db.ReplaceSessionParams) (db.WordChainSession, error)
	ListActiveSessions(ctx context.Context, arg db.ListActiveSessionsParams) ([]db.WordChainSession, error)
}

// Repository is the Postgres-backed session store
type Repository struct {
	queries Querier
}

// NewRepository creates a new session repository
func NewRepository(queries Querier) *Repository {
	return &Repository{
		queries: queries,
	}
}

// FindActiveByRoom returns the room's unfinished session
func (r *Repository) FindActiveByRoom(ctx context.Context, roomID uuid.UUID) (*models.Session, error) {
	row, err := r.queries.GetActiveSessionByRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return dbSessionToModel(row)
}

// FindLatestByRoom returns the active session, or else the most recently created one
func (r *Repository) FindLatestByRoom(ctx context.Context, roomID uuid.UUID) (*models.Session, error) {
	row, err := r.queries.GetLatestSessionByRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}
	return dbSessionToModel(row)
}

// CreateSession inserts a new active session
func (r *Repository) CreateSession(ctx context.Context, s *models.Session) (*models.Session, error) {
	row, err := r.queries.CreateSession(ctx, db.CreateSessionParams{
		ID:                 s.ID,
		RoomID:             s.RoomID,
		CurrentWord:        s.CurrentWord,
		UsedWords:          s.UsedWords,
		Players:            sqlutil.ToUUIDStrings(s.Players),
		CurrentPlayerIndex: int32(s.CurrentPlayerIndex),
		CreatedAt:          s.CreatedAt,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSessionConflict
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return dbSessionToModel(row)
}

// ReplaceSession overwrites an active session. The write only applies when
// the stored updated_at still equals prevUpdatedAt.
func (r *Repository) ReplaceSession(ctx context.Context, s *models.Session, prevUpdatedAt time.Time) (*models.Session, error) {
	outcome, err := sqlutil.ToNullRawMessage(outcomeOrNil(s.Outcome))
	if err != nil {
		return nil, fmt.Errorf("failed to encode outcome: %w", err)
	}

	row, err := r.queries.ReplaceSession(ctx, db.ReplaceSessionParams{
		ID:                 s.ID,
		CurrentWord:        s.CurrentWord,
		UsedWords:          s.UsedWords,
		Players:            sqlutil.ToUUIDStrings(s.Players),
		CurrentPlayerIndex: int32(s.CurrentPlayerIndex),
		Finished:           s.Finished,
		Outcome:            outcome,
		UpdatedAt:          s.UpdatedAt,
		PrevUpdatedAt:      prevUpdatedAt,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaleSession
		}
		return nil, fmt.Errorf("failed to replace session: %w", err)
	}
	return dbSessionToModel(row)
}

// ListActiveSessions returns up to limit unfinished sessions positioned after
// the cursor, oldest turn first.
func (r *Repository) ListActiveSessions(ctx context.Context, after models.SessionCursor, limit int32) ([]*models.Session, error) {
	rows, err := r.queries.ListActiveSessions(ctx, db.ListActiveSessionsParams{
		AfterUpdatedAt: after.UpdatedAt,
		AfterID:        after.ID,
		Limit:          limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	sessions := make([]*models.Session, 0, len(rows))
	for _, row := range rows {
		s, err := dbSessionToModel(row)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// outcomeOrNil keeps a nil *Outcome from marshalling as a typed nil.
func outcomeOrNil(o *models.Outcome) any {
	if o == nil {
		return nil
	}
	return o
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Helper function to convert DB session to model
func dbSessionToModel(row db.WordChainSession) (*models.Session, error) {
	players, err := sqlutil.FromUUIDStrings(row.Players)
	if err != nil {
		return nil, fmt.Errorf("session %s has invalid players: %w", row.ID, err)
	}

	s := &models.Session{
		ID:                 row.ID,
		RoomID:             row.RoomID,
		CurrentWord:        row.CurrentWord,
		UsedWords:          row.UsedWords,
		Players:            players,
		CurrentPlayerIndex: int(row.CurrentPlayerIndex),
		Finished:           row.Finished,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
	if s.UsedWords == nil {
		s.UsedWords = []string{}
	}

	var outcome models.Outcome
	ok, err := sqlutil.FromNullRawMessage(row.Outcome, &outcome)
	if err != nil {
		return nil, fmt.Errorf("session %s has invalid outcome: %w", row.ID, err)
	}
	if ok {
		s.Outcome = &outcome
	}
	return s, nil
}
