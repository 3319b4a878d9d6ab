package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptest/internal/config"
	"github.com/abhisek/adaptest/internal/llm"
	"github.com/abhisek/adaptest/internal/peers"
	"github.com/abhisek/adaptest/internal/questiongen"
	"github.com/abhisek/adaptest/internal/service"
	"github.com/abhisek/adaptest/internal/store"
)

// app holds the dependencies a command runs against.
type app struct {
	cfg      config.Config
	store    *store.Store
	services *service.Services
	provider llm.Provider
	logger   *slog.Logger
	closers  []io.Closer
}

type appOptions struct {
	// withLLM wires question generation when a provider is configured.
	withLLM bool
	// withRedis connects the shared peer index when ADAPTEST_REDIS_URL is set.
	withRedis bool
	logger    *slog.Logger
}

// openApp loads configuration, opens the store and builds the services.
func openApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := opts.logger
	if logger == nil {
		logger = cliLogger(cmd)
	}

	dbPath, err := resolveDBPath(cmd, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &app{cfg: cfg, store: st, logger: logger}
	a.closers = append(a.closers, st)

	deps := service.Deps{
		Store:  st,
		Policy: cfg.Policy(),
		Logger: logger,
	}

	if opts.withRedis {
		idx, err := peers.Open(ctx, cfg.RedisURL, peers.NewStoreIndex(st.SnapshotRepo()))
		if err != nil {
			a.Close()
			return nil, err
		}
		if c, ok := idx.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
		deps.Peers = idx
	}

	if opts.withLLM {
		provider, llmCfg, err := newProvider(ctx, st.EventRepo(), logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
			fmt.Fprintln(os.Stderr, "Question generation will be unavailable.")
		} else {
			a.provider = provider
			genCfg := questiongen.DefaultConfig()
			genCfg.ProviderName = llmCfg.Provider
			deps.Generator = questiongen.New(provider, genCfg)
		}
	}

	a.services = service.New(deps)
	return a, nil
}

// Close releases the store and any peer index connection, last opened
// first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

// newProvider builds an LLM provider from ADAPTEST_* variables, falling
// back to the vendors' standard API key variables.
func newProvider(ctx context.Context, eventRepo store.EventRepo, logger *slog.Logger) (llm.Provider, llm.Config, error) {
	cfg := llm.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := llm.DiscoverConfig()
		if !ok {
			return nil, cfg, err
		}
		discovered.Timeout = cfg.Timeout
		cfg = discovered
	}
	p, err := llm.NewProvider(ctx, cfg, eventRepo, logger)
	if err != nil {
		return nil, cfg, err
	}
	return p, cfg, nil
}

// cliLogger writes warnings to stderr, or everything from info up with
// --verbose.
func cliLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
