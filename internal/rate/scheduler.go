package rate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

type RatesRefresher interface {
	RefreshRates(ctx context.Context) error
}

type Scheduler struct {
	refresher RatesRefresher
	hour      uint
	minute    uint
	// -----
	mu    sync.Mutex
	sched gocron.Scheduler
}

// Start refreshes rates once, then schedules a daily refresh. A failed startup refresh is
// logged and does not prevent scheduling; pricing reports upstream unavailable until a refresh succeeds.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.refresher.RefreshRates(ctx); err != nil {
		logrus.WithError(err).Warn("Startup rate refresh failed, next attempt at the daily run")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	job := func(jobCtx context.Context) {
		if refreshErr := s.refresher.RefreshRates(jobCtx); refreshErr != nil {
			logrus.Errorf("Daily rate refresh failed: %v", refreshErr)
		}
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(s.hour, s.minute, 0))),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return err
	}

	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()
	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
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

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil
}

// NewScheduler builds a scheduler running at dailyAt ("HH:MM", local time).
func NewScheduler(refresher RatesRefresher, dailyAt string) (*Scheduler, error) {
	hour, minute, err := parseDailyAt(dailyAt)
	if err != nil {
		return nil, err
	}
	return &Scheduler{refresher: refresher, hour: hour, minute: minute}, nil
}

func parseDailyAt(v string) (uint, uint, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid daily time %q, want HH:MM", v)
	}
	hour, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in daily time %q", v)
	}
	minute, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in daily time %q", v)
	}
	return uint(hour), uint(minute), nil
}
