package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/pairlock/config"
	"github.com/alejandrodnm/pairlock/internal/adapters/notify"
	"github.com/alejandrodnm/pairlock/internal/adapters/polymarket"
	"github.com/alejandrodnm/pairlock/internal/adapters/storage"
	"github.com/alejandrodnm/pairlock/internal/scanner"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	dryRun := flag.Bool("dry-run", false, "use local fixtures instead of real API")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full candidate table (default: compact 1-line)")
	validate := flag.Bool("validate", false, "print step-by-step calculation for top 3 markets")
	backtest := flag.Bool("backtest", false, "scan once + fetch real trades to validate fill rates")
	accumulate := flag.Bool("accumulate", false, "run the binary accumulation engine with real money")
	accumulatePaper := flag.Bool("accumulate-dry-run", false, "run the accumulation engine against a real exchange read path but never submit orders")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("pairlock starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"dry_run", *dryRun,
		"once", *once,
		"validate", *validate,
		"backtest", *backtest,
		"accumulate", *accumulate,
	)

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The accumulation engine is a self-contained composition root: it owns
	// its own exchange/feed/persistence wiring on top of the shared scanner.
	if *accumulate || *accumulatePaper {
		runAccumulate(ctx, cfg, client, store, *accumulatePaper)
		return
	}

	notifier := notify.NewConsole(cfg.Scanner.OrderSizeUSDC, *table || *backtest, *validate)

	scanCfg := scanner.DefaultConfig()
	scanCfg.ScanInterval = cfg.ScanInterval()
	scanCfg.OrderSize = cfg.Scanner.OrderSizeUSDC
	scanCfg.FeeRate = cfg.Scanner.FeeRateDefault
	scanCfg.MaxPairCost = cfg.Accumulation.MaxPairCost
	scanCfg.DryRun = *dryRun || *once || *backtest
	scanCfg.Filter = scanner.FilterConfig{
		MaxPairCost:          cfg.Accumulation.MaxPairCost,
		MaxSpreadTotal:       cfg.Scanner.MaxSpreadTotal,
		MaxCompetition:       cfg.Scanner.MaxCompetition,
		MinHoursToResolution: cfg.Scanner.MinHoursToResolution,
		OnlyFillsProfit:      cfg.Scanner.OnlyFillsProfit,
	}

	s := scanner.New(scanCfg, client, client, store, notifier)

	// Backtest mode: validate candidate quality against real trade history.
	if *backtest {
		runBacktest(ctx, s, client, notifier, scanCfg.OrderSize)
		return
	}

	if err := s.Run(ctx); err != nil {
		slog.Error("scanner exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("pairlock stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
