package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
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
)

type headers []string

func (h *headers) String() string {
	return strings.Join(*h, ", ")
}

func (h *headers) Set(value string) error {
	*h = append(*h, value)
	return nil
}

func main() {
	var configPath string
	var format string
	var title string
	var delay time.Duration
	var viewportWidth int
	var viewportHeight int
	var userAgent string
	var chromeDevtoolsProtocolURL string
	var trigger string
	var preselected string
	var list bool
	var headers headers
	flag.StringVar(&configPath, "config", config.EnvOrDefault("CONFIG_PATH", "dispatcher.toml"), "Path to the TOML destination configuration")
	flag.StringVar(&format, "format", config.EnvOrDefault("FORMAT", "png"), "Output format (jpeg or png)")
	flag.StringVar(&title, "title", config.EnvOrDefault("TITLE", ""), "Capture title (defaults to the page title)")
	flag.DurationVar(&delay, "delay", config.EnvOrDefault("DELAY", 3*time.Second), "Delay before capturing")
	flag.IntVar(&viewportWidth, "viewport-width", config.EnvOrDefault("VIEWPORT_WIDTH", 1920), "Viewport width in pixels")
	flag.IntVar(&viewportHeight, "viewport-height", config.EnvOrDefault("VIEWPORT_HEIGHT", 1080), "Viewport height in pixels")
	flag.StringVar(&userAgent, "user-agent", config.EnvOrDefault("USER_AGENT", ""), "User-Agent string to use for requests")
	flag.StringVar(&chromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", config.EnvOrDefault("CHROME_DEVTOOLS_PROTOCOL_URL", ""), "Connect to existing browser via Chrome DevTools Protocol URL (e.g., http://localhost:9222)")
	flag.StringVar(&trigger, "trigger", config.EnvOrDefault("TRIGGER", "manual"), "Dispatch trigger (manual or automatic)")
	flag.StringVar(&preselected, "destination", config.EnvOrDefault("DESTINATION", ""), "Destination key or designation to export to without asking")
	flag.BoolVar(&list, "list", false, "List the available destinations and exit")
	flag.Var(&headers, "H", "Add HTTP header (can be used multiple times, e.g., -H 'Accept: text/html' -H 'Authorization: Bearer token')")

	flag.Parse()

	logger, err := logging.New(os.Stderr, config.EnvOrDefault("DEBUG", false))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.Logr(logger)

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

	cat, err := bootstrap.Catalog(ctx, cfg, exclusion.NewRegistry(log.WithName("exclusion")), log.WithName("destinations"))
	if err != nil {
		log.Error(err, "failed to create destination catalog")
		os.Exit(1)
	}

	if list {
		picker.RenderTable(os.Stdout, cat.CandidatesFor(ctx, t))
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		log.Error(nil, "url not specified")
		os.Exit(1)
	}
	url := args[0]

	playwrightConfig := capture.DefaultPlaywrightConfig()
	if format != "" {
		playwrightConfig.Format = format
	}
	if delay > 0 {
		playwrightConfig.Delay = delay
	}
	if chromeDevtoolsProtocolURL != "" {
		playwrightConfig.ChromeDevtoolsProtocolURL = chromeDevtoolsProtocolURL
	}
	if display := os.Getenv("DISPLAY"); display != "" {
		playwrightConfig.Headless = false
	}
	if viewportWidth > 0 {
		playwrightConfig.ViewportWidth = viewportWidth
	}
	if viewportHeight > 0 {
		playwrightConfig.ViewportHeight = viewportHeight
	}
	if userAgent != "" {
		playwrightConfig.UserAgent = userAgent
	}

	capturer, err := capture.NewPlaywrightCapturer(ctx, playwrightConfig)
	if err != nil {
		log.Error(err, "failed to create capturer")
		os.Exit(1)
	}

	captureOptions := capture.Options{Title: title}
	if len(headers) > 0 {
		captureOptions.Headers = make(map[string]string)
		for _, header := range headers {
			parts := strings.SplitN(header, ":", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])
				captureOptions.Headers[key] = value
			}
		}
	}

	c, err := capturer.Capture(ctx, url, captureOptions)
	if err != nil {
		log.Error(err, "failed to capture screenshot", "url", url)
		os.Exit(1)
	}

	var prompter dispatch.Prompter = picker.Decline{}
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		prompter = picker.NewTerminal(os.Stdin, os.Stderr)
	}

	engine := dispatch.NewEngine(cat, prompter, bootstrap.EngineOptions(cfg, log)...)
	result := engine.Dispatch(ctx, dispatch.Request{
		Capture:     c,
		Trigger:     t,
		Preselected: preselected,
	})

	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		log.Error(err, "failed to encode result")
		os.Exit(1)
	}
	if !result.Succeeded && !result.Cancelled {
		os.Exit(2)
	}
}
