package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/shadepanel/pkg/client"
	shademcp "github.com/urmzd/shadepanel/pkg/mcp"
	"github.com/urmzd/shadepanel/pkg/panel"
)

func main() {
	// Logging must go to stderr, stdout is the MCP transport
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	apiURL := flag.String("api", "http://localhost:3000", "Base URL of the shadepanel API")
	safeMode := flag.String("safe-mode", "auto", "Confirmation mode: on, off or auto (use the saved setting)")
	timeout := flag.Duration("timeout", 0, "Confirmation window (default: saved setting, else 3s)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", *logLevel).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var p *panel.Panel
	c := client.New(*apiURL, client.WithConnectionHandler(func(connected bool) {
		if p != nil {
			p.SetConnected(connected)
		}
	}))

	opts := panelOptions(ctx, c, *safeMode, *timeout)
	p = panel.New(c, opts...)
	defer p.Close()

	go func() {
		if err := p.Run(ctx, c.Subscribe(ctx)); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("State feed stopped")
		}
	}()

	log.Info().Str("api", *apiURL).Bool("safe_mode", p.SafeMode()).Dur("timeout", p.Timeout()).Msg("Starting MCP server on stdio")

	if err := shademcp.NewServer(p).ServeStdio(); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}

// panelOptions resolves safe mode and the confirmation window from the flags,
// falling back to the service's saved settings.
func panelOptions(ctx context.Context, c *client.Client, mode string, timeout time.Duration) []panel.Option {
	var opts []panel.Option

	switch mode {
	case "on":
		opts = append(opts, panel.WithSafeMode(true))
	case "off":
		opts = append(opts, panel.WithSafeMode(false))
	case "auto":
	default:
		log.Fatal().Str("safe_mode", mode).Msg("safe-mode must be on, off or auto")
	}

	if mode != "auto" && timeout > 0 {
		return append(opts, panel.WithConfirmTimeout(timeout))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	settings, err := c.Settings(fetchCtx, "")
	if err != nil {
		log.Warn().Err(err).Msg("Saved settings unavailable, using defaults")
		if timeout > 0 {
			opts = append(opts, panel.WithConfirmTimeout(timeout))
		}
		return opts
	}

	if mode == "auto" {
		opts = append(opts, panel.WithSafeMode(settings.SafeMode))
	}
	switch {
	case timeout > 0:
		opts = append(opts, panel.WithConfirmTimeout(timeout))
	case settings.ConfirmTimeoutMs > 0:
		opts = append(opts, panel.WithConfirmTimeout(time.Duration(settings.ConfirmTimeoutMs)*time.Millisecond))
	}
	return opts
}
