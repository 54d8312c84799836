// Package stalker runs the background polling loop: every cycle it diffs
// each followed handle's newest submission against what was already
// reported, and fans out notifications to the subscribed chats.
package stalker

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"stalkbot/internal/judge"
	"stalkbot/internal/registry"
	"stalkbot/internal/transport"
	logx "stalkbot/pkg/logx"
)

// Watcher is one judge's poll surface.
type Watcher interface {
	Platform() judge.Platform
	// Latest returns the handle's newest submission, or nil when the
	// handle has none.
	Latest(ctx context.Context, handle string) (*judge.Latest, error)
}

// Sink delivers notifications. Satisfied by transport.Adapter.
type Sink interface {
	SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error)
}

type Config struct {
	// Schedule is a cron expression or an interval; defaults to "60s".
	Schedule string
	// HandleDelay paces requests to the judge APIs; defaults to 500ms.
	HandleDelay time.Duration
	// Enabled seeds the per-platform toggles; platforms absent from the
	// map start enabled.
	Enabled map[judge.Platform]bool
}

type Service struct {
	log      logx.Logger
	reg      *registry.Registry
	sink     Sink
	watchers []Watcher

	spec     parsedSpec
	cronSch  cron.Schedule // set when spec.Kind == specCron
	limiter  *rate.Limiter

	mu      sync.Mutex
	enabled map[judge.Platform]bool
}

// New builds the service. Watchers are polled in the given order within
// each cycle; one watcher's phase fully completes before the next begins.
func New(cfg Config, reg *registry.Registry, sink Sink, watchers []Watcher, log logx.Logger) (*Service, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "60s"
	}
	if cfg.HandleDelay <= 0 {
		cfg.HandleDelay = 500 * time.Millisecond
	}
	spec, err := parseSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}

	s := &Service{
		log:      log,
		reg:      reg,
		sink:     sink,
		watchers: watchers,
		spec:     spec,
		limiter:  rate.NewLimiter(rate.Every(cfg.HandleDelay), 1),
		enabled:  make(map[judge.Platform]bool),
	}
	for _, w := range watchers {
		on, seeded := cfg.Enabled[w.Platform()]
		s.enabled[w.Platform()] = !seeded || on
	}
	if spec.Kind == specCron {
		sch, err := cron.ParseStandard(spec.Cron)
		if err != nil {
			return nil, err
		}
		s.cronSch = sch
	}
	return s, nil
}

// Enabled reports whether the platform's polling phase runs.
func (s *Service) Enabled(p judge.Platform) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled[p]
}

// SetEnabled flips the platform's toggle. It reports whether the value
// changed. While off, the platform's handles are not fetched and the
// last-seen state is not touched.
func (s *Service) SetEnabled(p judge.Platform, on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled[p] == on {
		return false
	}
	s.enabled[p] = on
	return true
}

// Run executes cycles until ctx is cancelled. With an interval schedule
// the cycle itself counts toward the period: the sleep covers only the
// remainder, and a long cycle simply elongates the period.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("stalker started",
		logx.String("schedule", s.spec.Cron),
		logx.Duration("every", s.spec.Every),
		logx.Int("watchers", len(s.watchers)),
	)
	for {
		started := time.Now()
		s.runCycle(ctx)
		if ctx.Err() != nil {
			return nil
		}

		var wait time.Duration
		if s.cronSch != nil {
			wait = time.Until(s.cronSch.Next(time.Now()))
		} else {
			wait = s.spec.Every - time.Since(started)
		}
		if wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-t.C:
			}
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	for _, w := range s.watchers {
		if ctx.Err() != nil {
			return
		}
		p := w.Platform()
		if !s.Enabled(p) {
			continue
		}
		s.pollPlatform(ctx, w)
	}
}

func (s *Service) pollPlatform(ctx context.Context, w Watcher) {
	p := w.Platform()
	idx := s.reg.HandleIndex(p)
	if len(idx) == 0 {
		return
	}

	for _, handle := range sortedKeys(idx) {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		latest, err := w.Latest(ctx, handle)
		if err != nil {
			// A broken handle and a flaky API look the same here; both
			// mean nothing to report this cycle.
			s.log.Debug("poll failed",
				logx.String("platform", string(p)),
				logx.String("handle", handle),
				logx.Err(err),
			)
			continue
		}
		if latest == nil || !latest.Accepted {
			continue
		}
		if last, ok := s.reg.LastSeen(p, handle); ok && last == latest.ID {
			continue
		}

		text := solveMessage(p, handle, latest)
		opts := &transport.SendOptions{ParseMode: "HTML", DisablePreview: true}
		var delivered, failed int
		for _, chat := range sortedChats(idx[handle]) {
			if _, err := s.sink.SendText(ctx, transport.ChatTarget{ChatID: chat}, text, opts); err != nil {
				failed++
				s.log.Warn("notify failed",
					logx.String("platform", string(p)),
					logx.String("handle", handle),
					logx.Int64("chat", chat),
					logx.Err(err),
				)
				continue
			}
			delivered++
		}
		// The cache advances exactly once per new solve, even when some
		// deliveries failed; those chats are not retried next cycle.
		s.reg.SetLastSeen(ctx, p, handle, latest.ID)
		s.log.Info("new solve reported",
			logx.String("platform", string(p)),
			logx.String("handle", handle),
			logx.String("submission", latest.ID),
			logx.Int("delivered", delivered),
			logx.Int("failed", failed),
		)
	}
}
