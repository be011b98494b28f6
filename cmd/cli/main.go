package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bundlescope/bundlescope/internal/bus"
	"github.com/bundlescope/bundlescope/internal/cache"
	"github.com/bundlescope/bundlescope/internal/collectors"
	"github.com/bundlescope/bundlescope/internal/config"
	"github.com/bundlescope/bundlescope/internal/llm"
	"github.com/bundlescope/bundlescope/internal/session"
	"github.com/bundlescope/bundlescope/internal/ui"
)

var (
	cfgPath    string
	bundlePath string
	liveMode   bool
	noColor    bool
	jsonOut    bool
)

var rootCmd = &cobra.Command{
	Use:   "bundlescope",
	Short: "Inspect Kubernetes support bundles and explain what is broken",
	Long: `bundlescope digests a Kubernetes support bundle (or a live cluster),
caches the analysis, and answers questions about it.

Examples:
  # Print the bundle digest
  bundlescope summary --bundle /bundles/prod-2025-06-01.tgz

  # Full analysis, reusing the cache when the bundle is unchanged
  bundlescope analyze --bundle /bundles/prod-2025-06-01.tgz

  # Force a fresh AI analysis
  bundlescope analyze --bundle /bundles/prod-2025-06-01.tgz --force

  # Ask a follow-up question against the live cluster
  bundlescope chat --live "why is postgres crash-looping?"

  # Check whether the local agent server is reachable
  bundlescope health`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&bundlePath, "bundle", "", "Support bundle path served by the backend")
	rootCmd.PersistentFlags().BoolVar(&liveMode, "live", false, "Collect from the current cluster instead of a bundle")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print raw JSON instead of formatted output")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(cacheCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the pieces every subcommand needs. The CLI drives the same
// session the server does, just without the HTTP hop.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *cache.Store
	client  llm.Client
	session *session.Session
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	store, err := cache.New(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis cache: %w", err)
	}

	client, err := llm.NewClient(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		client:  client,
		session: session.New(store, client, bus.New(), logger),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.logger.Sync()
}

func (a *app) source() (collectors.ContextSource, error) {
	if liveMode {
		return collectors.NewLiveCollector(a.cfg, a.logger)
	}
	if bundlePath == "" {
		return nil, errors.New("--bundle is required unless --live is set")
	}
	return collectors.NewBundleClient(a.cfg, bundlePath, a.logger), nil
}

func (a *app) load(ctx context.Context) (*session.LoadResult, error) {
	src, err := a.source()
	if err != nil {
		return nil, err
	}
	return a.session.Load(ctx, src)
}

func startProgress(message string) ui.ProgressReporter {
	if jsonOut {
		return ui.NoopProgress{}
	}
	sp := ui.NewSpinnerProgress()
	sp.Start(message)
	return sp
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
