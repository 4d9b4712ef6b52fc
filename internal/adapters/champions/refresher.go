package champions

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/okian/sniped/pkg/logger"
)

// Refresher reloads a Registry on a fixed interval.
type Refresher struct {
	s        gocron.Scheduler
	registry *Registry
	interval time.Duration
	timeout  time.Duration
	log      logger.Logger
}

// NewRefresher schedules registry reloads every interval.
func NewRefresher(registry *Registry, interval time.Duration, log logger.Logger) (*Refresher, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", interval)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	if log == nil {
		log = logger.Get().Named("champions")
	}
	return &Refresher{
		s:        s,
		registry: registry,
		interval: interval,
		timeout:  30 * time.Second,
		log:      log,
	}, nil
}

// Start registers the refresh job, runs it once immediately and starts the
// scheduler. Runs never overlap.
func (r *Refresher) Start() error {
	_, err := r.s.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.refresh),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create champion refresh job: %w", err)
	}
	r.s.Start()
	return nil
}

// Shutdown stops the scheduler and waits for a running refresh.
func (r *Refresher) Shutdown() error {
	return r.s.Shutdown()
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.registry.Load(ctx); err != nil {
		r.log.Warn(ctx, "champion refresh failed", logger.Error(err))
	}
}
