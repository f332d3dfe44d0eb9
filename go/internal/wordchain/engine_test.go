package wordchain

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/taxi-community/minigame/go/internal/models"
)

var t0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type harness struct {
	engine   *Engine
	repo     *fakeRepo
	rooms    *fakeRooms
	users    *fakeUsers
	dict     *fakeDict
	notifier *fakeNotifier
	sched    *fakeScheduler
	clock    *clockwork.FakeClock

	room    uuid.UUID
	players []uuid.UUID
}

func newHarness(t *testing.T, nPlayers int, dict *fakeDict) *harness {
	t.Helper()

	h := &harness{
		repo:     &fakeRepo{},
		users:    &fakeUsers{names: make(map[uuid.UUID]string)},
		dict:     dict,
		notifier: &fakeNotifier{},
		sched:    newScheduler(),
		clock:    clockwork.NewFakeClockAt(t0),
		room:     uuid.New(),
	}
	for i := 0; i < nPlayers; i++ {
		id := uuid.New()
		h.players = append(h.players, id)
		h.users.names[id] = fmt.Sprintf("P%d", i+1)
	}
	h.rooms = &fakeRooms{rosters: map[uuid.UUID][]uuid.UUID{h.room: h.players}}
	h.engine = NewEngine(h.repo, h.rooms, h.users, h.dict, h.notifier, h.sched, h.clock, DefaultConfig())
	return h
}

func (h *harness) submit(t *testing.T, player int, word string) *MoveResult {
	t.Helper()
	res, err := h.engine.SubmitMove(context.Background(), MoveRequest{RoomID: h.room, PlayerID: h.players[player], Word: word})
	if err != nil {
		t.Fatalf("submit %q by P%d: %v", word, player+1, err)
	}
	return res
}

func (h *harness) timeout(t *testing.T) *TimeoutResult {
	t.Helper()
	res, err := h.engine.HandleTimeout(context.Background(), h.room)
	if err != nil {
		t.Fatalf("handle timeout: %v", err)
	}
	return res
}

var ignoreCache = cmpopts.IgnoreUnexported(models.Session{})

func TestScenarioAThroughD(t *testing.T) {
	h := newHarness(t, 3, newDict("apple", "elephant", "tiger"))
	p1, p2, p3 := h.players[0], h.players[1], h.players[2]

	// A: P1 opens with "apple".
	res := h.submit(t, 0, "apple")
	if res.Outcome != MoveStarted {
		t.Fatalf("outcome = %s, want started", res.Outcome)
	}
	s := h.repo.active(h.room)
	if s.CurrentWord != "apple" || s.CurrentPlayerIndex != 1 {
		t.Fatalf("after A: word=%q index=%d", s.CurrentWord, s.CurrentPlayerIndex)
	}
	if diff := cmp.Diff([]string{"apple"}, s.UsedWords); diff != "" {
		t.Fatalf("used words (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uuid.UUID{p1, p2, p3}, s.Players); diff != "" {
		t.Fatalf("players (-want +got):\n%s", diff)
	}
	if res.NextPlayer == nil || res.NextPlayer.ID != p2 {
		t.Fatalf("next player = %+v, want P2", res.NextPlayer)
	}
	if d, ok := h.sched.delay(h.room); !ok || d != DefaultTurnTimeout {
		t.Fatalf("timer = %v, %v; want %v", d, ok, DefaultTurnTimeout)
	}
	if got := h.notifier.last(); got.category != NotificationCategory || !strings.Contains(got.content, "apple") || !strings.Contains(got.content, "P2") {
		t.Fatalf("start notification = %+v", got)
	}

	// B: P2 continues with "elephant".
	h.clock.Advance(5 * time.Second)
	res = h.submit(t, 1, "elephant")
	if res.Outcome != MoveAccepted || res.NextPlayer.ID != p3 {
		t.Fatalf("B: outcome=%s next=%+v", res.Outcome, res.NextPlayer)
	}
	afterB := h.repo.active(h.room)
	if afterB.CurrentWord != "elephant" || afterB.CurrentPlayerIndex != 2 {
		t.Fatalf("after B: word=%q index=%d", afterB.CurrentWord, afterB.CurrentPlayerIndex)
	}
	if !afterB.UpdatedAt.Equal(t0.Add(5 * time.Second)) {
		t.Fatalf("updated_at = %v, want %v", afterB.UpdatedAt, t0.Add(5*time.Second))
	}
	if !strings.Contains(h.notifier.last().content, `"t"`) {
		t.Fatalf("accepted notification should hint the next letter: %q", h.notifier.last().content)
	}

	// C: P3 repeats "apple".
	sent := h.notifier.count()
	writes := h.repo.writes
	res = h.submit(t, 2, "apple")
	if res.Outcome != MoveRejected || res.Reason != ReasonAlreadyUsed {
		t.Fatalf("C: outcome=%s reason=%s", res.Outcome, res.Reason)
	}
	if diff := cmp.Diff(afterB, h.repo.active(h.room), ignoreCache); diff != "" {
		t.Fatalf("rejected move changed state (-want +got):\n%s", diff)
	}
	if h.repo.writes != writes {
		t.Fatalf("rejected move wrote to the store")
	}
	if h.notifier.count() != sent+1 {
		t.Fatalf("rejection should emit exactly one notification")
	}

	// D: P3's clock runs out.
	h.clock.Advance(DefaultTurnTimeout)
	tres := h.timeout(t)
	if tres.Outcome != TimeoutNextTurn || tres.Eliminated != p3 {
		t.Fatalf("D: outcome=%s eliminated=%s", tres.Outcome, tres.Eliminated)
	}
	afterD := h.repo.active(h.room)
	if diff := cmp.Diff([]uuid.UUID{p1, p2}, afterD.Players); diff != "" {
		t.Fatalf("players after D (-want +got):\n%s", diff)
	}
	if afterD.CurrentPlayerIndex != 0 {
		t.Fatalf("index after D = %d, want 0", afterD.CurrentPlayerIndex)
	}
	if d, ok := h.sched.delay(h.room); !ok || d != DefaultTurnTimeout {
		t.Fatalf("timer after D = %v, %v", d, ok)
	}
}

func TestScenarioETwoPlayerTimeoutDeclaresWinner(t *testing.T) {
	h := newHarness(t, 2, newDict("apple"))
	h.submit(t, 0, "apple")

	h.clock.Advance(DefaultTurnTimeout)
	sent := h.notifier.count()
	res := h.timeout(t)

	if res.Outcome != TimeoutWon || res.Eliminated != h.players[1] {
		t.Fatalf("outcome=%s eliminated=%s", res.Outcome, res.Eliminated)
	}
	if !res.Session.Finished || res.Session.State() != models.SessionStateFinishedWinner {
		t.Fatalf("session state = %s", res.Session.State())
	}
	if *res.Session.Outcome.Winner != h.players[0] {
		t.Fatalf("winner = %s, want P1", res.Session.Outcome.Winner)
	}
	if _, ok := h.sched.delay(h.room); ok {
		t.Fatalf("a timer is still pending after the game was won")
	}
	if h.notifier.count() != sent+2 {
		t.Fatalf("want eliminated and winner notifications, got %d", h.notifier.count()-sent)
	}
	if !strings.Contains(h.notifier.last().content, "P1") {
		t.Fatalf("winner notification = %q", h.notifier.last().content)
	}
	if h.repo.active(h.room) != nil {
		t.Fatalf("finished session is still active")
	}

	// Finished is absorbing: a late firing changes nothing.
	h.clock.Advance(DefaultTurnTimeout)
	if late := h.timeout(t); late.Outcome != TimeoutIgnored {
		t.Fatalf("late timeout outcome = %s, want ignored", late.Outcome)
	}
}

func TestNewGameAfterFinish(t *testing.T) {
	h := newHarness(t, 2, newDict("apple", "tiger"))
	h.submit(t, 0, "apple")
	h.clock.Advance(DefaultTurnTimeout)
	h.timeout(t)

	res := h.submit(t, 1, "tiger")
	if res.Outcome != MoveStarted {
		t.Fatalf("outcome = %s, want a fresh start", res.Outcome)
	}
	if res.Session.CurrentPlayerIndex != 0 || len(res.Session.Players) != 2 {
		t.Fatalf("new session = %+v", res.Session)
	}
}

func TestMoveFromWrongPlayerNamesRightfulPlayer(t *testing.T) {
	h := newHarness(t, 3, newDict("apple", "elephant"))
	h.submit(t, 0, "apple")
	before := h.repo.active(h.room)

	res := h.submit(t, 2, "elephant")
	if res.Outcome != MoveRejected || res.Reason != ReasonNotYourTurn {
		t.Fatalf("outcome=%s reason=%s", res.Outcome, res.Reason)
	}
	if diff := cmp.Diff(before, h.repo.active(h.room), ignoreCache); diff != "" {
		t.Fatalf("state changed (-want +got):\n%s", diff)
	}
	if !strings.Contains(h.notifier.last().content, "P2") {
		t.Fatalf("rejection should name P2: %q", h.notifier.last().content)
	}
}

func TestMoveValidationOrder(t *testing.T) {
	tests := []struct {
		name   string
		player int
		word   string
		want   RejectReason
	}{
		{name: "ownership before repetition", player: 2, word: "apple", want: ReasonNotYourTurn},
		{name: "repetition before chaining", player: 1, word: "apple", want: ReasonAlreadyUsed},
		{name: "chaining before dictionary", player: 1, word: "zzz", want: ReasonChainBroken},
		{name: "dictionary last", player: 1, word: "eqq", want: ReasonUnknownWord},
		{name: "ownership before empty word", player: 2, word: "   ", want: ReasonNotYourTurn},
		{name: "empty word", player: 1, word: "   ", want: ReasonEmptyWord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 3, newDict("apple", "elephant"))
			h.submit(t, 0, "apple")

			res := h.submit(t, tt.player, tt.word)
			if res.Outcome != MoveRejected || res.Reason != tt.want {
				t.Fatalf("outcome=%s reason=%s, want rejected %s", res.Outcome, res.Reason, tt.want)
			}
		})
	}
}

func TestMoveIsNormalised(t *testing.T) {
	h := newHarness(t, 2, newDict("apple", "elephant"))
	h.submit(t, 0, "  Apple ")

	res := h.submit(t, 1, "ELEPHANT")
	if res.Outcome != MoveAccepted {
		t.Fatalf("outcome=%s reason=%s", res.Outcome, res.Reason)
	}
	if diff := cmp.Diff([]string{"apple", "elephant"}, res.Session.UsedWords); diff != "" {
		t.Fatalf("used words (-want +got):\n%s", diff)
	}
}

func TestOpeningRejections(t *testing.T) {
	tests := []struct {
		name    string
		players int
		word    string
		starter func(h *harness) uuid.UUID
		want    RejectReason
	}{
		{
			name:    "outsider cannot start",
			players: 3,
			word:    "apple",
			starter: func(h *harness) uuid.UUID { return uuid.New() },
			want:    ReasonNotParticipant,
		},
		{
			name:    "unknown opening word",
			players: 3,
			word:    "qwzx",
			starter: func(h *harness) uuid.UUID { return h.players[0] },
			want:    ReasonUnknownWord,
		},
		{
			name:    "solo room",
			players: 1,
			word:    "apple",
			starter: func(h *harness) uuid.UUID { return h.players[0] },
			want:    ReasonNotEnoughPlayers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.players, newDict("apple"))

			res, err := h.engine.SubmitMove(context.Background(), MoveRequest{RoomID: h.room, PlayerID: tt.starter(h), Word: tt.word})
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if res.Outcome != MoveRejected || res.Reason != tt.want {
				t.Fatalf("outcome=%s reason=%s, want %s", res.Outcome, res.Reason, tt.want)
			}
			if h.repo.active(h.room) != nil {
				t.Fatalf("rejected opening created a session")
			}
			if h.sched.schedules != 0 {
				t.Fatalf("rejected opening armed a timer")
			}
			if h.notifier.count() != 1 {
				t.Fatalf("notifications = %d, want 1", h.notifier.count())
			}
		})
	}
}

func TestRoomNotFound(t *testing.T) {
	h := newHarness(t, 2, newDict("apple"))

	_, err := h.engine.SubmitMove(context.Background(), MoveRequest{RoomID: uuid.New(), PlayerID: h.players[0], Word: "apple"})
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
	if IsRetryable(err) {
		t.Fatalf("room not found should not be retryable")
	}
	if h.notifier.count() != 0 {
		t.Fatalf("hard error emitted a notification")
	}
}

func TestInfrastructureFaultsEmitNothing(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name  string
		setup func(h *harness)
	}{
		{name: "dictionary down", setup: func(h *harness) { h.dict.err = boom }},
		{name: "store down", setup: func(h *harness) { h.repo.replaceErr = boom }},
		{name: "rooms down", setup: func(h *harness) { h.rooms.err = boom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 2, newDict("apple", "elephant"))
			h.submit(t, 0, "apple")
			before := h.repo.active(h.room)
			sent := h.notifier.count()
			schedules := h.sched.schedules
			tt.setup(h)

			_, err := h.engine.SubmitMove(context.Background(), MoveRequest{RoomID: h.room, PlayerID: h.players[1], Word: "elephant"})
			if !errors.Is(err, boom) {
				t.Fatalf("err = %v, want wrapped infrastructure error", err)
			}
			if !IsRetryable(err) {
				t.Fatalf("infrastructure fault should be retryable")
			}
			if h.notifier.count() != sent {
				t.Fatalf("infrastructure fault emitted a notification")
			}
			if h.sched.schedules != schedules {
				t.Fatalf("timer changed without a committed transition")
			}
			h.repo.replaceErr = nil
			if diff := cmp.Diff(before, h.repo.active(h.room), ignoreCache); diff != "" {
				t.Fatalf("state changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNextPlayerNotFoundAfterCommit(t *testing.T) {
	h := newHarness(t, 3, newDict("apple", "elephant"))
	h.submit(t, 0, "apple")
	delete(h.users.names, h.players[2])
	sent := h.notifier.count()

	h.clock.Advance(time.Second)
	_, err := h.engine.SubmitMove(context.Background(), MoveRequest{RoomID: h.room, PlayerID: h.players[1], Word: "elephant"})
	if !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("err = %v, want ErrPlayerNotFound", err)
	}
	if IsRetryable(err) {
		t.Fatalf("a committed move must not be retried")
	}

	s := h.repo.active(h.room)
	if s.CurrentWord != "elephant" || s.CurrentPlayerIndex != 2 {
		t.Fatalf("transition not committed: word=%q index=%d", s.CurrentWord, s.CurrentPlayerIndex)
	}
	if d, ok := h.sched.delay(h.room); !ok || d != DefaultTurnTimeout {
		t.Fatalf("committed move left the timer at %v, %v", d, ok)
	}
	if h.notifier.count() != sent {
		t.Fatalf("hard error emitted a notification")
	}
}

func TestUnknownNicknameFallsBack(t *testing.T) {
	h := newHarness(t, 3, newDict("apple"))
	delete(h.users.names, h.players[1])

	res := h.submit(t, 0, "apple")
	if res.Outcome != MoveStarted || res.NextPlayer.Nickname != unknownPlayerName {
		t.Fatalf("outcome=%s next=%+v", res.Outcome, res.NextPlayer)
	}
	if !strings.Contains(h.notifier.last().content, unknownPlayerName) {
		t.Fatalf("start notification = %q", h.notifier.last().content)
	}
}

func TestNotifierFailureDoesNotRollBack(t *testing.T) {
	h := newHarness(t, 2, newDict("apple"))
	h.notifier.err = errors.New("broker down")

	res := h.submit(t, 0, "apple")
	if res.Outcome != MoveStarted || h.repo.active(h.room) == nil {
		t.Fatalf("session should be created despite the notifier failing")
	}
}

func TestEarlyTimeoutIsNoOp(t *testing.T) {
	h := newHarness(t, 3, newDict("apple"))
	h.submit(t, 0, "apple")
	before := h.repo.active(h.room)
	sent := h.notifier.count()

	h.clock.Advance(DefaultTurnTimeout - time.Nanosecond)
	res := h.timeout(t)

	if res.Outcome != TimeoutIgnored {
		t.Fatalf("outcome = %s, want ignored", res.Outcome)
	}
	if diff := cmp.Diff(before, h.repo.active(h.room), ignoreCache); diff != "" {
		t.Fatalf("state changed (-want +got):\n%s", diff)
	}
	if h.notifier.count() != sent {
		t.Fatalf("early timeout emitted a notification")
	}
}

func TestTimeoutWithoutSession(t *testing.T) {
	h := newHarness(t, 2, newDict())

	res := h.timeout(t)
	if res.Outcome != TimeoutIgnored || h.notifier.count() != 0 {
		t.Fatalf("outcome=%s notifications=%d", res.Outcome, h.notifier.count())
	}
}

func TestTimeoutPersistFailureRearms(t *testing.T) {
	h := newHarness(t, 3, newDict("apple"))
	h.submit(t, 0, "apple")
	sent := h.notifier.count()

	h.clock.Advance(DefaultTurnTimeout)
	h.repo.replaceErr = errors.New("deadlock detected")

	if _, err := h.engine.HandleTimeout(context.Background(), h.room); err == nil {
		t.Fatalf("expected error")
	}
	if d, ok := h.sched.delay(h.room); !ok || d != DefaultConfig().RetryDelay {
		t.Fatalf("timer = %v, %v; want retry in %v", d, ok, DefaultConfig().RetryDelay)
	}
	if h.notifier.count() != sent {
		t.Fatalf("failed elimination emitted a notification")
	}

	h.repo.replaceErr = nil
	h.clock.Advance(DefaultConfig().RetryDelay)
	if res := h.timeout(t); res.Outcome != TimeoutNextTurn {
		t.Fatalf("retry outcome = %s, want next_turn", res.Outcome)
	}
}

func TestConcurrentMovesAreSerialised(t *testing.T) {
	h := newHarness(t, 3, newDict("apple", "elephant", "eagle", "egg", "eel"))
	h.submit(t, 0, "apple")

	words := []string{"elephant", "eagle", "egg", "eel"}
	results := make([]*MoveResult, len(words))
	var wg sync.WaitGroup
	for i, w := range words {
		wg.Add(1)
		go func(i int, w string) {
			defer wg.Done()
			res, err := h.engine.SubmitMove(context.Background(), MoveRequest{RoomID: h.room, PlayerID: h.players[1], Word: w})
			if err != nil {
				t.Errorf("submit %q: %v", w, err)
				return
			}
			results[i] = res
		}(i, w)
	}
	wg.Wait()

	accepted := 0
	for _, res := range results {
		if res != nil && res.Outcome == MoveAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("accepted = %d, want exactly 1", accepted)
	}
	if got := len(h.repo.active(h.room).UsedWords); got != 2 {
		t.Fatalf("used words = %d, want 2", got)
	}
}

func TestRecoverTimers(t *testing.T) {
	h := newHarness(t, 2, newDict("apple"))
	h.submit(t, 0, "apple")

	other := newHarness(t, 2, newDict("tiger"))
	other.engine = NewEngine(h.repo, other.rooms, other.users, other.dict, h.notifier, h.sched, h.clock, DefaultConfig())
	other.submit(t, 0, "tiger")

	h.sched.pending = make(map[uuid.UUID]time.Duration)
	h.clock.Advance(10 * time.Second)

	n, err := h.engine.RecoverTimers(context.Background())
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if n != 2 {
		t.Fatalf("recovered = %d, want 2", n)
	}
	if d, _ := h.sched.delay(h.room); d != 20*time.Second {
		t.Fatalf("remaining = %v, want 20s", d)
	}

	h.clock.Advance(time.Minute)
	if _, err := h.engine.RecoverTimers(context.Background()); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if d, _ := h.sched.delay(other.room); d != 0 {
		t.Fatalf("overdue timer = %v, want 0", d)
	}
}

func TestRecoverTimersPagesPastBatchSize(t *testing.T) {
	tests := []struct {
		name      string
		sessions  int
		batch     int32
		wantLists int
	}{
		{name: "short last page", sessions: 25, batch: 10, wantLists: 3},
		{name: "exact multiple", sessions: 20, batch: 10, wantLists: 3},
		{name: "single page", sessions: 4, batch: 10, wantLists: 1},
		{name: "no sessions", sessions: 0, batch: 10, wantLists: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			sched := newScheduler()
			clock := clockwork.NewFakeClockAt(t0)
			for i := 0; i < tt.sessions; i++ {
				// Pairs share an UpdatedAt so paging has to break ties on ID.
				at := t0.Add(time.Duration(i/2) * time.Second)
				repo.sessions = append(repo.sessions, &models.Session{
					ID:          uuid.New(),
					RoomID:      uuid.New(),
					CurrentWord: "apple",
					UsedWords:   []string{"apple"},
					Players:     []uuid.UUID{uuid.New(), uuid.New()},
					CreatedAt:   at,
					UpdatedAt:   at,
				})
			}
			cfg := DefaultConfig()
			cfg.RecoverBatchSize = tt.batch
			engine := NewEngine(repo, &fakeRooms{}, &fakeUsers{}, newDict(), &fakeNotifier{}, sched, clock, cfg)

			n, err := engine.RecoverTimers(context.Background())
			if err != nil {
				t.Fatalf("recover: %v", err)
			}
			if n != tt.sessions {
				t.Fatalf("recovered = %d, want %d", n, tt.sessions)
			}
			if len(sched.pending) != tt.sessions {
				t.Fatalf("pending timers = %d, want %d", len(sched.pending), tt.sessions)
			}
			for _, s := range repo.sessions {
				if _, ok := sched.delay(s.RoomID); !ok {
					t.Fatalf("room %s has no timer", s.RoomID)
				}
			}
			if repo.lists != tt.wantLists {
				t.Fatalf("list calls = %d, want %d", repo.lists, tt.wantLists)
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	h := newHarness(t, 2, newDict("apple"))

	if _, err := h.engine.GetSession(context.Background(), h.room); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}

	h.submit(t, 0, "apple")
	h.clock.Advance(DefaultTurnTimeout)
	h.timeout(t)

	s, err := h.engine.GetSession(context.Background(), h.room)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if s.State() != models.SessionStateFinishedWinner {
		t.Fatalf("state = %s, want finished winner", s.State())
	}
}

// TestInvariantsUnderRandomPlay drives random moves and timeouts and checks
// the session invariants after every step.
func TestInvariantsUnderRandomPlay(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	letters := "abcdefghij"

	for game := 0; game < 20; game++ {
		d := &fakeDict{all: true}
		h := newHarness(t, 2+rng.Intn(4), d)

		for step := 0; step < 60; step++ {
			s := h.repo.active(h.room)
			switch {
			case s != nil && rng.Intn(4) == 0:
				h.clock.Advance(time.Duration(rng.Intn(40)) * time.Second)
				h.timeout(t)
			default:
				word := string(letters[rng.Intn(len(letters))]) + string(letters[rng.Intn(len(letters))])
				if s != nil && rng.Intn(3) > 0 {
					word = string(LastRune(s.CurrentWord)) + word
				}
				h.clock.Advance(time.Second)
				h.submit(t, rng.Intn(len(h.players)), word)
			}

			after := h.repo.active(h.room)
			if after == nil {
				continue
			}
			if len(after.Players) < MinPlayers {
				t.Fatalf("game %d step %d: active session with %d players", game, step, len(after.Players))
			}
			if after.CurrentPlayerIndex < 0 || after.CurrentPlayerIndex >= len(after.Players) {
				t.Fatalf("game %d step %d: index %d out of range", game, step, after.CurrentPlayerIndex)
			}
			seen := make(map[string]bool)
			for _, w := range after.UsedWords {
				if seen[w] {
					t.Fatalf("game %d step %d: duplicate used word %q", game, step, w)
				}
				seen[w] = true
			}
			if after.CurrentWord != after.UsedWords[len(after.UsedWords)-1] {
				t.Fatalf("game %d step %d: current word %q is not the last used word", game, step, after.CurrentWord)
			}
			if s != nil && s.ID == after.ID && !cmp.Equal(s.UsedWords, after.UsedWords[:len(s.UsedWords)]) {
				t.Fatalf("game %d step %d: used words were rewritten", game, step)
			}
		}
	}
}
