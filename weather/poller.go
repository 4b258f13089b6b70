package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

// poller runs a refresh function on a fixed interval, first run immediately.
type poller struct {
	scheduler *gocron.Scheduler
	cancel    context.CancelFunc
}

func startPoller(interval time.Duration, tick func(context.Context)) (*poller, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(interval).StartImmediately().Do(func() { tick(ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("schedule refresh: %w", err)
	}
	s.StartAsync()

	return &poller{scheduler: s, cancel: cancel}, nil
}

// stop cancels the running tick's context and shuts the scheduler down
// without blocking the caller on a tick that is still in flight.
func (p *poller) stop() {
	p.cancel()
	go p.scheduler.Stop()
}
