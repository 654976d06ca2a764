package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"capture-dispatcher/internal/bootstrap"
	"capture-dispatcher/internal/capture"
	"capture-dispatcher/internal/config"
	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/dispatch"
	"capture-dispatcher/internal/exclusion"
	"capture-dispatcher/internal/logging"
	"capture-dispatcher/internal/picker"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

type FileResult struct {
	File   string             `json:"file"`
	Result destination.Result `json:"result"`
}

func main() {
	var configPath string
	var trigger string
	var preselected string
	var concurrency int
	var timeout time.Duration
	flag.StringVar(&configPath, "config", config.EnvOrDefault("CONFIG_PATH", "dispatcher.toml"), "Path to the TOML destination configuration")
	flag.StringVar(&trigger, "trigger", config.EnvOrDefault("TRIGGER", "automatic"), "Dispatch trigger (manual or automatic)")
	flag.StringVar(&preselected, "destination", config.EnvOrDefault("DESTINATION", ""), "Destination key or designation to export to without asking")
	flag.IntVar(&concurrency, "concurrency", config.EnvOrDefault("CONCURRENCY", 4), "Number of files dispatched at once")
	flag.DurationVar(&timeout, "timeout", config.EnvOrDefault("TIMEOUT", 5*time.Minute), "Timeout for the whole run")

	flag.Parse()

	logger, err := logging.New(os.Stderr, config.EnvOrDefault("DEBUG", false))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.Logr(logger)

	files := flag.Args()
	if len(files) == 0 {
		log.Error(nil, "no image files specified")
		os.Exit(1)
	}

	t, err := destination.ParseTrigger(trigger)
	if err != nil {
		log.Error(err, "invalid trigger")
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error(err, "failed to load configuration", "path", configPath)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cat, err := bootstrap.Catalog(ctx, cfg, exclusion.NewRegistry(log.WithName("exclusion")), log.WithName("destinations"))
	if err != nil {
		log.Error(err, "failed to create destination catalog")
		os.Exit(1)
	}

	var prompter dispatch.Prompter = picker.Decline{}
	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompter = picker.NewTerminal(os.Stdin, os.Stderr)
	}
	engine := dispatch.NewEngine(cat, prompter, bootstrap.EngineOptions(cfg, log)...)

	var mu sync.Mutex
	results := make([]FileResult, len(files))
	failed := false

	eg := errgroup.Group{}
	eg.SetLimit(concurrency)
	for i, file := range files {
		eg.Go(func() error {
			image, err := os.ReadFile(file)
			if err != nil {
				return xerrors.Errorf("failed to read %s: %w", file, err)
			}
			c := capture.NewContext(image, strings.TrimPrefix(filepath.Ext(file), "."), strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)))
			c.Filename = file

			result := engine.Dispatch(ctx, dispatch.Request{
				Capture:     c,
				Trigger:     t,
				Preselected: preselected,
			})

			mu.Lock()
			defer mu.Unlock()
			results[i] = FileResult{File: file, Result: result}
			if !result.Succeeded && !result.Cancelled {
				failed = true
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Error(err, "failed to dispatch")
		os.Exit(1)
	}

	if err := json.NewEncoder(os.Stdout).Encode(results); err != nil {
		log.Error(err, "failed to encode results")
		os.Exit(1)
	}
	if failed {
		os.Exit(2)
	}
}
