package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultSweepInterval is how often the sweeper scans for idle sessions.
const DefaultSweepInterval = 15 * time.Minute

var (
	ErrSweeperRunning    = errors.New("sweeper is already running")
	ErrSweeperNotRunning = errors.New("sweeper is not running")
)

// Sweeper periodically evicts idle sessions from a Service. A sweep that
// races with an in-flight request may evict a session right after the
// request refreshed it; expiry is approximate.
type Sweeper struct {
	store    *Service
	interval time.Duration
	cron     *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewSweeper schedules store.Sweep every interval. Intervals below one
// second are rounded up by the scheduler.
func NewSweeper(store *Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	s := &Sweeper{
		store:    store,
		interval: interval,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() { s.SweepNow() }))
	return s
}

// Start begins the periodic sweep.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSweeperRunning
	}
	s.cron.Start()
	s.running = true

	log.Info().
		Str("component", "sweeper").
		Dur("interval", s.interval).
		Dur("ttl", s.store.TTL()).
		Msg("session sweeper started")
	return nil
}

// Stop halts the schedule and waits for a sweep in progress to finish.
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSweeperNotRunning
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Info().Str("component", "sweeper").Msg("session sweeper stopped")
	return nil
}

// Running reports whether the schedule is active.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run starts the sweeper and blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// SweepNow runs one sweep immediately and returns how many sessions it evicted.
func (s *Sweeper) SweepNow() int {
	expired := s.store.Sweep()
	for _, id := range expired {
		log.Debug().Str("component", "sweeper").Str("session_id", id).Msg("session expired")
	}
	if len(expired) > 0 {
		log.Info().
			Str("component", "sweeper").
			Int("expired", len(expired)).
			Int("remaining", s.store.Count()).
			Msg("cleaned up idle sessions")
	}
	return len(expired)
}
