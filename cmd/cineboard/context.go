package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cineboard/internal/config"
	"cineboard/internal/logging"
	"cineboard/internal/notifications"
	"cineboard/internal/session"
	"cineboard/internal/store"
	"cineboard/internal/workflow"
)

type commandContext struct {
	configFlag *string
	quietFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, quietFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		quietFlag:  quietFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) quiet() bool {
	return c.quietFlag != nil && *c.quietFlag
}

func (c *commandContext) ensureLogger(forceQuiet bool) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, c.quiet() || forceQuiet)
	})
	return c.logger, c.loggerErr
}

// readSession loads the persisted session without taking the writer lock.
// SQLite's WAL mode lets readers run next to an active writer.
func (c *commandContext) readSession(ctx context.Context) (session.State, bool, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return session.State{}, false, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return session.State{}, false, fmt.Errorf("open session store: %w", err)
	}
	defer st.Close()
	return st.Load(ctx)
}

// app is a writable session: lock, store and orchestrator.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	lock   *store.Lock
	store  *store.Store
	orch   *workflow.Orchestrator
}

type appOptions struct {
	interactiveKeys bool
	quietLogs       bool
}

// openApp acquires the writer lock, opens the store and restores the
// persisted session into a new orchestrator.
func (c *commandContext) openApp(ctx context.Context, cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger(opts.quietLogs)
	if err != nil {
		return nil, err
	}

	lock, err := store.AcquireLock(cfg.LockPath())
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("open session store: %w", err)
	}

	deps, err := buildDependencies(ctx, cfg, logger, keyPrompt{
		interactive: opts.interactiveKeys,
		in:          cmd.InOrStdin(),
		out:         cmd.ErrOrStderr(),
	})
	if err != nil {
		_ = st.Close()
		_ = lock.Release()
		return nil, err
	}

	orch := workflow.New(deps.analyzer, deps.factory,
		workflow.WithStore(st),
		workflow.WithSink(deps.sink),
		workflow.WithLogger(logger),
		workflow.WithNotifier(notifications.NewService(cfg)),
		workflow.WithSceneSeconds(cfg.Media.SceneSeconds),
	)
	if err := orch.Restore(ctx); err != nil {
		orch.Close()
		_ = st.Close()
		_ = lock.Release()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return &app{cfg: cfg, logger: logger, lock: lock, store: st, orch: orch}, nil
}

func (a *app) Close() {
	if a == nil {
		return
	}
	a.orch.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close session store", logging.Error(err))
	}
	if err := a.lock.Release(); err != nil {
		a.logger.Warn("failed to release data directory lock", logging.Error(err))
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
