package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string

	StoreBackend string // "sqlite" or "json"
	DatabasePath string
	CatalogPath  string

	Timezone        *time.Location
	ScanInterval    time.Duration
	DueWindow       time.Duration
	LedgerRetention time.Duration
	SessionTTL      time.Duration

	WebhookURL string
	ServerPort string

	CalDAVURL          string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendarPath string
}

func Load() (*Config, error) {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	backend := getenv("STORE_BACKEND", "sqlite")
	if backend != "sqlite" && backend != "json" {
		return nil, fmt.Errorf("STORE_BACKEND must be sqlite or json, got %q", backend)
	}

	tzName := getenv("TIMEZONE", "Europe/Moscow")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	scanInterval, err := getduration("SCAN_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	dueWindow, err := getduration("DUE_WINDOW", 45*time.Second)
	if err != nil {
		return nil, err
	}
	retention, err := getduration("LEDGER_RETENTION", 48*time.Hour)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getduration("SESSION_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramToken:      token,
		StoreBackend:       backend,
		DatabasePath:       getenv("DATABASE_PATH", "./data/eventbot.db"),
		CatalogPath:        getenv("CATALOG_PATH", "./data/events.json"),
		Timezone:           tz,
		ScanInterval:       scanInterval,
		DueWindow:          dueWindow,
		LedgerRetention:    retention,
		SessionTTL:         sessionTTL,
		WebhookURL:         getenv("WEBHOOK_URL", ""),
		ServerPort:         getenv("SERVER_PORT", "8080"),
		CalDAVURL:          os.Getenv("CALDAV_URL"),
		CalDAVUsername:     os.Getenv("CALDAV_USERNAME"),
		CalDAVPassword:     os.Getenv("CALDAV_PASSWORD"),
		CalDAVCalendarPath: os.Getenv("CALDAV_CALENDAR_PATH"),
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getduration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
