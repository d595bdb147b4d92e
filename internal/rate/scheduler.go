package rate

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

// Refresher is the refresh entry point the scheduler drives. Satisfied by
// *Service, whose Refresh also invalidates the memoized lookup cache.
type Refresher interface {
	Refresh(ctx context.Context, source string) (domain.RefreshResult, error)
}

// Scheduler runs the full refresh on a fixed interval in the background,
// independent of foreground requests. A failing run is logged and the next
// tick fires regardless.
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	// -----
	mu    sync.Mutex // guards sched: Start/Shutdown/Running race with the ctx goroutine
	sched gocron.Scheduler
}

const defaultRefreshInterval = 30 * time.Second

func NewScheduler(refresher Refresher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &Scheduler{refresher: refresher, interval: interval}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched != nil {
		return nil
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	job := func(jobCtx context.Context) {
		result, refreshErr := s.refresher.Refresh(jobCtx, SourceAll)
		if refreshErr != nil {
			logrus.Errorf("Scheduled refresh failed: %v", refreshErr)
			return
		}
		logrus.Infof("Scheduled refresh done: %d fetched, %d pairs, %d error(s)",
			result.PairsFetched, result.PairsTotal, len(result.Errors))
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	s.sched = scheduler

	scheduler.Start()
	logrus.Infof("Scheduler started, interval: %s", s.interval)

	// Stop when the provided context is canceled; Shutdown waits for the
	// in-flight run instead of aborting it mid-write.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

// Running reports whether the background loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil
}
