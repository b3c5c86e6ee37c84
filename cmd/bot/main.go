package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tazhate/eventbot/config"
	"github.com/tazhate/eventbot/internal/bot"
	caldavclient "github.com/tazhate/eventbot/internal/clients/caldav"
	"github.com/tazhate/eventbot/internal/reminder"
	"github.com/tazhate/eventbot/internal/service"
	"github.com/tazhate/eventbot/internal/storage"
)

func main() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().
		Timestamp().
		Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	var store storage.Store
	switch cfg.StoreBackend {
	case "json":
		store = storage.NewFileStore(cfg.CatalogPath, logger)
	default:
		store, err = storage.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to init storage")
		}
	}
	defer store.Close()

	catalog := storage.NewCatalog(store)

	eventSvc := service.NewEventService(catalog, cfg.Timezone, cfg.SessionTTL, logger)
	caldav := caldavclient.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, cfg.CalDAVCalendarPath)
	exportSvc := service.NewExportService(catalog, caldav, logger)

	tgBot, err := bot.New(cfg, eventSvc, exportSvc, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to init bot")
	}

	if err := tgBot.SetupWebhook(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to setup webhook")
	}

	loop := reminder.New(catalog, eventSvc, reminder.Options{
		Interval:  cfg.ScanInterval,
		Window:    cfg.DueWindow,
		Retention: cfg.LedgerRetention,
	}, logger)
	loop.SetSender(tgBot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := loop.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("Reminder loop")
		}
	}()

	go func() {
		if err := tgBot.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("Bot")
		}
	}()

	logger.Info().Msg("eventbot started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("Shutting down...")

	cancel()
	loop.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := tgBot.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error stopping bot")
	}

	logger.Info().Msg("eventbot stopped")
}
