// Package app assembles the bot: config, logging, storage, judge clients,
// the stalker loop, and the command router, with one supervisor owning all
// background goroutines.
package app

import (
	"context"
	"fmt"
	"time"

	"stalkbot/internal/adapters/telegram"
	"stalkbot/internal/bot"
	"stalkbot/internal/config"
	"stalkbot/internal/fetch"
	"stalkbot/internal/judge"
	"stalkbot/internal/judge/atcoder"
	"stalkbot/internal/judge/codeforces"
	"stalkbot/internal/registry"
	"stalkbot/internal/runtime/supervisor"
	"stalkbot/internal/stalker"
	"stalkbot/internal/storage"
	"stalkbot/internal/transport"
	logx "stalkbot/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	adapter *telegram.Adapter
	store   storage.Store
	fetcher *fetch.Client
	reg     *registry.Registry
	stk     *stalker.Service
	router  *bot.Router

	sup     *supervisor.Supervisor
	updates chan transport.Update
}

func New(ctx context.Context, cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logCfg(cfg))
	mgr.SetLogger(log.With(logx.String("svc", "config")))

	a := &App{cfgMgr: mgr, logSvc: logSvc, log: log}
	if err := a.build(ctx, cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

func logCfg(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func (a *App) build(ctx context.Context, cfg *config.Config) error {
	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, a.log.With(logx.String("svc", "telegram")))
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	a.adapter = adapter

	if cfg.Storage != nil {
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
		if err != nil {
			return err
		}
		store, err := storage.Open(storage.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
		}, a.log.With(logx.String("svc", "storage")))
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		a.store = store
	}

	reg, err := registry.Load(ctx, a.store, a.log.With(logx.String("svc", "registry")))
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	a.reg = reg

	fetchTimeout, err := config.ParseDurationOrDefault("fetch.timeout", cfg.Fetch.Timeout, 10*time.Second)
	if err != nil {
		return err
	}
	retryBase, err := config.ParseDurationOrDefault("fetch.retry_base", cfg.Fetch.RetryBase, time.Second)
	if err != nil {
		return err
	}
	a.fetcher = fetch.New(fetch.Config{
		Timeout:     fetchTimeout,
		MaxAttempts: cfg.Fetch.RetryMax,
		RetryBase:   retryBase,
	}, a.log.With(logx.String("svc", "fetch")))

	cf := codeforces.NewClientWithBaseURL(a.fetcher, cfg.Judges.CodeforcesBaseURL)
	ac := atcoder.NewClientWithBaseURLs(a.fetcher, cfg.Judges.AtCoderBaseURL, "")

	handleDelay, err := config.ParseDurationOrDefault("stalker.handle_delay", cfg.Stalker.HandleDelay, 500*time.Millisecond)
	if err != nil {
		return err
	}
	enabled := map[judge.Platform]bool{}
	if cfg.Stalker.Codeforces != nil {
		enabled[judge.Codeforces] = *cfg.Stalker.Codeforces
	}
	if cfg.Stalker.AtCoder != nil {
		enabled[judge.AtCoder] = *cfg.Stalker.AtCoder
	}
	stk, err := stalker.New(stalker.Config{
		Schedule:    cfg.Stalker.Schedule,
		HandleDelay: handleDelay,
		Enabled:     enabled,
	}, reg, adapter, []stalker.Watcher{cf, ac}, a.log.With(logx.String("svc", "stalker")))
	if err != nil {
		return fmt.Errorf("stalker: %w", err)
	}
	a.stk = stk

	router := bot.NewRouter(adapter, a.log.With(logx.String("svc", "bot")),
		bot.MWPanicRecover(a.log),
		bot.MWRequestLog(),
		bot.MWTimeout(30*time.Second),
	)
	bot.RegisterAll(router, bot.Deps{
		Registry: reg,
		Stalker:  stk,
		CF:       cf,
		AC:       ac,
	})
	a.router = router
	return nil
}

// Start brings the bot up: the Telegram long-poll loop, the dispatch loop
// draining its updates, the stalker, and the config watcher.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("svc", "supervisor"))))
	a.updates = make(chan transport.Update, 128)

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return fmt.Errorf("telegram start: %w", err)
	}

	a.sup.Go0("dispatch", func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case up := <-a.updates:
				// One goroutine per command keeps slow fetches from
				// blocking the queue.
				a.sup.Go0("command", func(ctx context.Context) {
					a.router.Dispatch(ctx, up)
				})
			}
		}
	})

	cfg := a.cfgMgr.Get()
	if cfg == nil || cfg.Stalker.LoopEnabled() {
		a.sup.Go("stalker", a.stk.Run)
	} else {
		a.log.Info("stalker disabled by config")
	}

	a.sup.Go("config-watch", a.cfgMgr.Watch)
	a.sup.Go0("config-apply", func(ctx context.Context) {
		ch := a.cfgMgr.Subscribe(1)
		defer a.cfgMgr.Unsubscribe(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case next := <-ch:
				if next == nil {
					continue
				}
				// Only logging is hot-reloadable; the rest needs a restart.
				a.logSvc.Apply(logCfg(next))
				a.log.Info("logging config reloaded", logx.String("level", next.Logging.Level))
			}
		}
	})

	a.log.Info("bot started")
	return nil
}

// Stop shuts everything down in reverse order of Start.
func (a *App) Stop(ctx context.Context) error {
	var firstErr error
	if a.sup != nil {
		if err := a.sup.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.adapter.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	a.fetcher.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.log.Info("bot stopped")
	_ = a.logSvc.Close()
	return firstErr
}
