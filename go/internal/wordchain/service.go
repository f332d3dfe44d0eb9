package wordchain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/taxi-community/minigame/go/internal/models"
)

const (
	// ServiceName is the fully-qualified name of the word chain service.
	ServiceName = "wordchain.v1.WordChainService"

	SubmitMoveProcedure = "/" + ServiceName + "/SubmitMove"
	GetSessionProcedure = "/" + ServiceName + "/GetSession"
)

type SubmitMoveRequest struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Word     string `json:"word"`
}

type SubmitMoveResponse struct {
	Outcome    string       `json:"outcome"`
	Reason     string       `json:"reason,omitempty"`
	Session    *SessionView `json:"session,omitempty"`
	NextPlayer *PlayerView  `json:"nextPlayer,omitempty"`
}

type GetSessionRequest struct {
	RoomID string `json:"roomId"`
}

type GetSessionResponse struct {
	Session *SessionView `json:"session"`
}

// SessionView is the wire form of a session
type SessionView struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"roomId"`
	State         string    `json:"state"`
	CurrentWord   string    `json:"currentWord"`
	UsedWords     []string  `json:"usedWords"`
	Players       []string  `json:"players"`
	CurrentPlayer string    `json:"currentPlayer,omitempty"`
	Winner        string    `json:"winner,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type PlayerView struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// WordChainApp defines what the service layer needs from the engine
type WordChainApp interface {
	SubmitMove(ctx context.Context, req MoveRequest) (*MoveResult, error)
	GetSession(ctx context.Context, roomID uuid.UUID) (*models.Session, error)
}

// Service implements the WordChainService RPC interface
type Service struct {
	app WordChainApp
}

// NewService creates a new word chain RPC service
func NewService(app WordChainApp) *Service {
	return &Service{
		app: app,
	}
}

// NewServiceHandler builds an HTTP handler serving both procedures with the
// JSON codec. It returns the path prefix to mount it on.
func NewServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SubmitMoveProcedure, connect.NewUnaryHandler(SubmitMoveProcedure, svc.SubmitMove, opts...))
	mux.Handle(GetSessionProcedure, connect.NewUnaryHandler(GetSessionProcedure, svc.GetSession, opts...))
	return "/" + ServiceName + "/", mux
}

// SubmitMove submits a word for a player in a room
func (s *Service) SubmitMove(ctx context.Context, req *connect.Request[SubmitMoveRequest]) (*connect.Response[SubmitMoveResponse], error) {
	roomID, err := uuid.Parse(req.Msg.RoomID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid room id: %w", err))
	}
	playerID, err := uuid.Parse(req.Msg.PlayerID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid player id: %w", err))
	}

	res, err := s.app.SubmitMove(ctx, MoveRequest{
		RoomID:   roomID,
		PlayerID: playerID,
		Word:     req.Msg.Word,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	out := &SubmitMoveResponse{
		Outcome: string(res.Outcome),
		Reason:  string(res.Reason),
		Session: sessionToView(res.Session),
	}
	if res.NextPlayer != nil {
		out.NextPlayer = &PlayerView{ID: res.NextPlayer.ID.String(), Nickname: res.NextPlayer.Nickname}
	}
	return connect.NewResponse(out), nil
}

// GetSession returns the latest session of a room
func (s *Service) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[GetSessionResponse], error) {
	roomID, err := uuid.Parse(req.Msg.RoomID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid room id: %w", err))
	}

	session, err := s.app.GetSession(ctx, roomID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetSessionResponse{
		Session: sessionToView(session),
	}), nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrSessionNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrPlayerNotFound):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case IsRetryable(err):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func sessionToView(s *models.Session) *SessionView {
	if s == nil {
		return nil
	}

	view := &SessionView{
		ID:          s.ID.String(),
		RoomID:      s.RoomID.String(),
		State:       string(s.State()),
		CurrentWord: s.CurrentWord,
		UsedWords:   s.UsedWords,
		Players:     make([]string, len(s.Players)),
		UpdatedAt:   s.UpdatedAt,
	}
	for i, p := range s.Players {
		view.Players[i] = p.String()
	}
	if current, ok := s.CurrentPlayer(); ok && !s.Finished {
		view.CurrentPlayer = current.String()
	}
	if s.Outcome != nil && s.Outcome.Winner != nil {
		view.Winner = s.Outcome.Winner.String()
	}
	return view
}
