package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/shadepanel/pkg/api"
	"github.com/urmzd/shadepanel/pkg/api/handlers"
	"github.com/urmzd/shadepanel/pkg/db"
	"github.com/urmzd/shadepanel/pkg/device"
	"github.com/urmzd/shadepanel/pkg/device/schema"
	"github.com/urmzd/shadepanel/pkg/mqtt"
	"github.com/urmzd/shadepanel/pkg/shelly"

	_ "github.com/urmzd/shadepanel/docs"
)

// @title           Shadepanel API
// @version         1.0
// @description     REST and SSE API for Shelly driven blinds and roller shutters

// @host      localhost:3000
// @BasePath  /api
// @schemes   http https

func main() {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/shadepanel/shadepanel.db)")
	importPath := flag.String("import", "", "Replace the active profile's devices with the ones in this JSON file")
	addrFlag := flag.String("addr", "", "Listen address (overrides the stored API server config)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	mqttBroker := flag.String("mqtt-broker", "", "MQTT broker URL for command topics, e.g. tcp://localhost:1883 (disabled when empty)")
	mqttTopic := flag.String("mqtt-topic", "shelly-commands", "MQTT command topic prefix")
	mqttUser := flag.String("mqtt-user", "", "MQTT username (password from SHADE_MQTT_PASSWORD)")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", *logLevel).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open database
	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check bootstrap status")
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
		if err := database.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap database")
		}
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if *importPath != "" {
		n, err := database.ImportDevices(ctx, cfg.Profile.ID, *importPath)
		if err != nil {
			log.Fatal().Err(err).Str("file", *importPath).Msg("Failed to import devices")
		}
		log.Info().Int("devices", n).Str("file", *importPath).Msg("Devices imported")

		if cfg, err = database.ActiveConfig(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to reload configuration")
		}
	}

	prefs := cfg.Preferences
	log.Info().
		Str("profile", cfg.Profile.Name).
		Str("api_address", cfg.APIAddress()).
		Int("devices", len(cfg.Devices)).
		Dur("poll_interval", prefs.PollInterval).
		Bool("optimize_tilt", prefs.OptimizeTilt).
		Msg("Configuration loaded")

	// Without configured devices the API still serves, backed by a NullController
	var controller device.Controller
	var subscriber device.EventSubscriber

	if len(cfg.Devices) == 0 {
		log.Warn().Msg("No devices configured, using null controller")
		controller = device.NewNullController()
		subscriber = device.NewNullEventSubscriber()
	} else {
		reg := shelly.NewRegistry(shelly.WithOptimizeTilt(prefs.OptimizeTilt))
		reg.Load(ctx, actorConfigs(cfg.Devices), &http.Client{Timeout: 10 * time.Second})
		go reg.Poll(ctx, prefs.PollInterval)
		controller = reg
		subscriber = reg
	}
	defer controller.Close()

	hub := handlers.NewHub(controller)
	defer hub.Close()
	go hub.Run(ctx, subscriber, prefs.PollInterval)

	validator := schema.NewValidator()

	if *mqttBroker != "" {
		ingress := mqtt.NewIngress(mqtt.Config{
			Broker:   *mqttBroker,
			Username: *mqttUser,
			Password: os.Getenv("SHADE_MQTT_PASSWORD"),
			Topic:    *mqttTopic,
		}, controller, validator)
		if err := ingress.Start(ctx); err != nil {
			log.Fatal().Err(err).Str("broker", *mqttBroker).Msg("Failed to start MQTT command ingress")
		}
	}

	router := api.NewRouter(api.Dependencies{
		Controller:  controller,
		Validator:   validator,
		Hub:         hub,
		Preferences: database.Preferences(),
		ProfileID:   cfg.Profile.ID,
		OnSettings: func(p *db.Preferences) {
			if reg, ok := controller.(*shelly.Registry); ok {
				reg.SetOptimizeTilt(p.OptimizeTilt)
			}
		},
	})

	addr := cfg.APIAddress()
	if *addrFlag != "" {
		addr = *addrFlag
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().Str("address", addr).Msg("Starting API server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func actorConfigs(devices []*db.Device) []shelly.ActorConfig {
	configs := make([]shelly.ActorConfig, 0, len(devices))
	for _, d := range devices {
		configs = append(configs, shelly.ActorConfig{
			Name:           d.Name,
			DisplayName:    d.DisplayName,
			Address:        d.Address,
			Serial:         d.Serial,
			DeviceType:     device.DeviceType(d.DeviceType),
			TiltPercentage: d.TiltPercentage,
			Rank:           d.Rank,
			GroupID:        d.GroupID,
		})
	}
	return configs
}
