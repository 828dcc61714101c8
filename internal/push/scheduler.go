package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/getresett/resett/internal/store"
	"github.com/getresett/resett/internal/usage"
)

// Scheduler watches for each device's local midnight and sends a "free resets
// are back" notification once per local day. The rollover is detected per
// subscription by comparing today's date key in the device's own timezone
// against the last key we notified for.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	push     *store.PushStore
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a notification scheduler.
func NewScheduler(svc *Service, pushStore *store.PushStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		push:     pushStore,
		interval: 60 * time.Second,
		now:      time.Now,
		logger:   logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	subs, err := s.push.List()
	if err != nil {
		s.logger.Error("push scheduler: list subscriptions", "error", err)
		return
	}

	now := s.now()
	for i := range subs {
		sub := &subs[i]

		loc, err := time.LoadLocation(sub.Timezone)
		if err != nil {
			loc = time.Local
		}
		todayKey := usage.DateKey(now.In(loc))

		if sub.LastResetKey == todayKey {
			continue
		}

		// First tick after subscribing just records the baseline so we
		// don't greet a brand-new subscriber with a rollover message.
		if sub.LastResetKey == "" {
			if err := s.push.MarkNotified(sub.ID, todayKey); err != nil {
				s.logger.Error("push scheduler: mark baseline", "error", err)
			}
			continue
		}

		payload := Payload{
			Title: "Your free resets are back",
			Body:  "A new day means 3 fresh reset sessions. Take a moment for yourself.",
			URL:   "/",
			Tag:   "daily-reset",
		}

		if err := s.service.Send(sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if derr := s.push.DeleteByEndpoint(sub.Endpoint); derr != nil {
					s.logger.Error("push scheduler: delete expired subscription", "error", derr)
				}
				continue
			}
			s.logger.Error("push scheduler: send daily reset", "error", err)
			continue
		}

		if err := s.push.MarkNotified(sub.ID, todayKey); err != nil {
			s.logger.Error("push scheduler: mark notified", "error", err)
		}
	}
}
