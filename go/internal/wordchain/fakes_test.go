package wordchain

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taxi-community/minigame/go/internal/models"
	"github.com/taxi-community/minigame/go/internal/rooms"
	"github.com/taxi-community/minigame/go/internal/users"
)

// fakeRepo keeps sessions in memory with the same fencing rules as the
// Postgres repository.
type fakeRepo struct {
	mu       sync.Mutex
	sessions []*models.Session

	replaceErr error
	findErr    error
	writes     int
	lists      int
}

func (f *fakeRepo) FindActiveByRoom(ctx context.Context, roomID uuid.UUID) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, s := range f.sessions {
		if s.RoomID == roomID && !s.Finished {
			return s.Clone(), nil
		}
	}
	return nil, ErrSessionNotFound
}

func (f *fakeRepo) FindLatestByRoom(ctx context.Context, roomID uuid.UUID) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Session
	for _, s := range f.sessions {
		if s.RoomID != roomID {
			continue
		}
		if !s.Finished {
			return s.Clone(), nil
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, ErrSessionNotFound
	}
	return latest.Clone(), nil
}

func (f *fakeRepo) CreateSession(ctx context.Context, s *models.Session) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.RoomID == s.RoomID && !existing.Finished {
			return nil, ErrSessionConflict
		}
	}
	f.writes++
	f.sessions = append(f.sessions, s.Clone())
	return s.Clone(), nil
}

func (f *fakeRepo) ReplaceSession(ctx context.Context, s *models.Session, prevUpdatedAt time.Time) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return nil, f.replaceErr
	}
	for i, existing := range f.sessions {
		if existing.ID != s.ID {
			continue
		}
		if existing.Finished || !existing.UpdatedAt.Equal(prevUpdatedAt) {
			return nil, ErrStaleSession
		}
		f.writes++
		f.sessions[i] = s.Clone()
		return s.Clone(), nil
	}
	return nil, ErrStaleSession
}

func (f *fakeRepo) ListActiveSessions(ctx context.Context, after models.SessionCursor, limit int32) ([]*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var matches []*models.Session
	for _, s := range f.sessions {
		if !s.Finished && cursorLess(after, s.Cursor()) {
			matches = append(matches, s.Clone())
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return cursorLess(matches[i].Cursor(), matches[j].Cursor())
	})
	if len(matches) > int(limit) {
		matches = matches[:limit]
	}
	return matches, nil
}

// cursorLess orders cursors the way Postgres compares (updated_at, id) rows.
func cursorLess(a, b models.SessionCursor) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.Before(b.UpdatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// active returns the stored active session for room, or nil.
func (f *fakeRepo) active(roomID uuid.UUID) *models.Session {
	s, err := f.FindActiveByRoom(context.Background(), roomID)
	if err != nil {
		return nil
	}
	return s
}

type fakeRooms struct {
	rosters map[uuid.UUID][]uuid.UUID
	err     error
}

func (f *fakeRooms) Roster(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	roster, ok := f.rosters[roomID]
	if !ok {
		return nil, rooms.ErrRoomNotFound
	}
	return append([]uuid.UUID(nil), roster...), nil
}

type fakeUsers struct {
	mu    sync.Mutex
	names map[uuid.UUID]string
	err   error
}

func (f *fakeUsers) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	name, ok := f.names[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return &models.User{ID: id, Nickname: name}, nil
}

type fakeDict struct {
	words map[string]bool
	all   bool
	err   error
}

func newDict(words ...string) *fakeDict {
	d := &fakeDict{words: make(map[string]bool)}
	for _, w := range words {
		d.words[w] = true
	}
	return d
}

func (f *fakeDict) Contains(ctx context.Context, word string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.all || f.words[word], nil
}

type notification struct {
	room     uuid.UUID
	category string
	content  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (f *fakeNotifier) Emit(ctx context.Context, roomID uuid.UUID, category, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{room: roomID, category: category, content: content})
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeNotifier) last() notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return notification{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeScheduler struct {
	mu        sync.Mutex
	pending   map[uuid.UUID]time.Duration
	schedules int
	cancels   int
}

func newScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[uuid.UUID]time.Duration)}
}

func (f *fakeScheduler) Schedule(roomID uuid.UUID, delay time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[roomID] = delay
	f.schedules++
}

func (f *fakeScheduler) Cancel(roomID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, roomID)
	f.cancels++
}

func (f *fakeScheduler) delay(roomID uuid.UUID) (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.pending[roomID]
	return d, ok
}
