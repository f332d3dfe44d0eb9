package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Handler processes an expired turn for a room.
type Handler func(ctx context.Context, roomID uuid.UUID) error

// Config controls the worker pool that drains expired timers.
type Config struct {
	Workers   int
	QueueSize int
}

// DefaultConfig returns the pool sizing used when none is configured.
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		QueueSize: 64,
	}
}

// pendingTimer is one armed turn timer. stop is closed when the timer is
// replaced or cancelled so its waiting goroutine exits.
type pendingTimer struct {
	timer    clockwork.Timer
	deadline time.Time
	gen      uint64
	stop     chan struct{}
}

// Supervisor keeps at most one pending turn timer per room and hands
// expired rooms to a pool of workers.
type Supervisor struct {
	clock      clockwork.Clock
	instanceID string
	numWorkers int
	workCh     chan uuid.UUID

	done     chan struct{}
	doneOnce sync.Once

	activeTimersMu sync.Mutex
	activeTimers   map[uuid.UUID]*pendingTimer
	gen            uint64
}

// New creates a supervisor. Timers may be scheduled before Run is called;
// rooms that expire early wait in the queue until workers start.
func New(clock clockwork.Clock, cfg Config) *Supervisor {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Supervisor{
		clock:        clock,
		instanceID:   uuid.New().String()[:8], // short ID for logging
		numWorkers:   cfg.Workers,
		workCh:       make(chan uuid.UUID, cfg.QueueSize),
		done:         make(chan struct{}),
		activeTimers: make(map[uuid.UUID]*pendingTimer),
	}
}

// Schedule arms a timer that fires after delay, replacing any timer already
// pending for the room. A negative delay fires immediately.
func (s *Supervisor) Schedule(roomID uuid.UUID, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}

	s.activeTimersMu.Lock()
	if existing, ok := s.activeTimers[roomID]; ok {
		s.release(existing)
		log.Debug().Str("room_id", roomID.String()).Msg("replaced existing timer")
	}
	s.gen++
	pt := &pendingTimer{
		timer:    s.clock.NewTimer(delay),
		deadline: s.clock.Now().Add(delay),
		gen:      s.gen,
		stop:     make(chan struct{}),
	}
	s.activeTimers[roomID] = pt
	s.activeTimersMu.Unlock()

	go s.wait(roomID, pt)

	log.Debug().
		Str("room_id", roomID.String()).
		Time("deadline", pt.deadline).
		Dur("duration", delay).
		Msg("scheduled turn timer")
}

// Cancel stops the room's pending timer. It is a no-op when none is pending.
func (s *Supervisor) Cancel(roomID uuid.UUID) {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()

	if pt, ok := s.activeTimers[roomID]; ok {
		s.release(pt)
		delete(s.activeTimers, roomID)
		log.Debug().Str("room_id", roomID.String()).Msg("cancelled turn timer")
	}
}

// Pending returns the deadline of the room's armed timer.
func (s *Supervisor) Pending(roomID uuid.UUID) (time.Time, bool) {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()

	pt, ok := s.activeTimers[roomID]
	if !ok {
		return time.Time{}, false
	}
	return pt.deadline, true
}

// Count returns the number of armed timers.
func (s *Supervisor) Count() int {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()
	return len(s.activeTimers)
}

// Run starts the worker pool and blocks until ctx is cancelled. Pending
// timers are stopped on return and later Schedule calls never fire.
func (s *Supervisor) Run(ctx context.Context, handler Handler) error {
	log.Info().
		Str("instance", s.instanceID).
		Int("workers", s.numWorkers).
		Msg("turn supervisor started")

	var wg sync.WaitGroup
	for i := 0; i < s.numWorkers; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, i, handler)
	}

	<-ctx.Done()
	log.Info().Str("instance", s.instanceID).Msg("turn supervisor shutdown requested")

	s.doneOnce.Do(func() { close(s.done) })
	wg.Wait()

	s.activeTimersMu.Lock()
	for roomID, pt := range s.activeTimers {
		s.release(pt)
		log.Debug().Str("room_id", roomID.String()).Msg("cancelled timer on shutdown")
	}
	s.activeTimers = make(map[uuid.UUID]*pendingTimer)
	s.activeTimersMu.Unlock()

	log.Info().Str("instance", s.instanceID).Msg("all workers shut down")
	return nil
}

// wait blocks until the timer fires, is released or the supervisor stops.
func (s *Supervisor) wait(roomID uuid.UUID, pt *pendingTimer) {
	select {
	case <-pt.timer.Chan():
		if !s.claim(roomID, pt.gen) {
			return
		}
		select {
		case s.workCh <- roomID:
			log.Debug().Str("room_id", roomID.String()).Msg("timer fired - enqueued for processing")
		case <-s.done:
		}
	case <-pt.stop:
	case <-s.done:
		stopAndDrainTimer(pt.timer)
	}
}

// claim removes the fired timer from the active set unless it was replaced
// in the meantime.
func (s *Supervisor) claim(roomID uuid.UUID, gen uint64) bool {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()

	cur, ok := s.activeTimers[roomID]
	if !ok || cur.gen != gen {
		return false
	}
	delete(s.activeTimers, roomID)
	return true
}

// release stops pt and wakes its goroutine. Callers hold activeTimersMu.
func (s *Supervisor) release(pt *pendingTimer) {
	stopAndDrainTimer(pt.timer)
	close(pt.stop)
}

func (s *Supervisor) worker(ctx context.Context, wg *sync.WaitGroup, workerID int, handler Handler) {
	defer wg.Done()

	logger := log.With().
		Str("instance", s.instanceID).
		Int("worker_id", workerID).
		Logger()
	logger.Debug().Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("worker shutting down")
			return
		case roomID := <-s.workCh:
			logger.Info().Str("room_id", roomID.String()).Msg("worker handling timeout")

			if err := handler(ctx, roomID); err != nil {
				logger.Error().
					Err(err).
					Str("room_id", roomID.String()).
					Msg("worker timeout handling failed")
			}
		}
	}
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
