package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"capture-dispatcher/internal/bootstrap"
	"capture-dispatcher/internal/capture"
	"capture-dispatcher/internal/config"
	"capture-dispatcher/internal/dispatch"
	"capture-dispatcher/internal/exclusion"
	"capture-dispatcher/internal/history"
	"capture-dispatcher/internal/logging"
	"capture-dispatcher/internal/picker"
	"capture-dispatcher/internal/routes"
	"capture-dispatcher/internal/runnable"
	"capture-dispatcher/internal/schedule"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	var historyPath string
	var debug bool
	var chromeDevtoolsProtocolURL string
	flag.StringVar(&configPath, "config", config.EnvOrDefault("CONFIG_PATH", "dispatcher.toml"), "Path to the TOML destination configuration")
	flag.StringVar(&historyPath, "history", config.EnvOrDefault("HISTORY_PATH", ""), "Path to the sqlite database remembering the last destination (overrides history.path)")
	flag.BoolVar(&debug, "debug", config.EnvOrDefault("DEBUG", false), "Enable text logging and pprof endpoints")
	flag.StringVar(&chromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", config.EnvOrDefault("CHROME_DEVTOOLS_PROTOCOL_URL", ""), "Connect to existing browser via Chrome DevTools Protocol URL (e.g., http://localhost:9222)")
	flag.Parse()

	logger, err := logging.New(os.Stderr, debug)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	runnable.Debug = debug
	log := logging.Logr(logger)
	entrypointLogger := log.WithName("entrypoint")

	cfg, err := config.Load(configPath)
	if err != nil {
		entrypointLogger.Error(err, "unable to load configuration", "path", configPath)
		os.Exit(1)
	}
	if historyPath != "" {
		cfg.History.Path = historyPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := exclusion.NewRegistry(log.WithName("exclusion"))
	cat, err := bootstrap.Catalog(ctx, cfg, registry, log.WithName("destinations"))
	if err != nil {
		entrypointLogger.Error(err, "unable to create destination catalog")
		os.Exit(1)
	}

	var prompter dispatch.Prompter = picker.Decline{}
	var recorder routes.Recorder
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			entrypointLogger.Error(err, "unable to open history", "path", cfg.History.Path)
			os.Exit(1)
		}
		defer store.Close()
		prompter = &picker.Remembered{
			Store:    store,
			Scope:    routes.HistoryScope,
			Fallback: picker.Decline{},
			Log:      log.WithName("picker"),
		}
		recorder = store
	}

	engine := dispatch.NewEngine(cat, prompter, append(
		bootstrap.EngineOptions(cfg, log),
		dispatch.WithTracerProvider(otel.GetTracerProvider()),
		dispatch.WithMeterProvider(otel.GetMeterProvider()),
	)...)

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer stop()
		return runnable.NewServer(cat, engine, recorder, logger).Start(ctx)
	})

	if jobs := bootstrap.Jobs(cfg); len(jobs) > 0 {
		playwrightConfig := capture.DefaultPlaywrightConfig()
		playwrightConfig.ChromeDevtoolsProtocolURL = chromeDevtoolsProtocolURL

		capturer, err := capture.NewPlaywrightCapturer(ctx, playwrightConfig)
		if err != nil {
			entrypointLogger.Error(err, "unable to create screenshot capturer")
			os.Exit(1)
		}
		scheduler, err := schedule.New(capturer, engine, log.WithName("schedule"), jobs...)
		if err != nil {
			entrypointLogger.Error(err, "unable to create scheduler")
			os.Exit(1)
		}
		eg.Go(func() error {
			return scheduler.Start(ctx)
		})
	}

	entrypointLogger.Info("starting dispatcher", "destinations", len(cat.Descriptors()), "jobs", len(cfg.Jobs))
	if err := eg.Wait(); err != nil {
		entrypointLogger.Error(err, "problem running dispatcher")
		os.Exit(1)
	}
}
