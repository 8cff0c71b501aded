// config/config.go
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting the service reads from the environment.
type Config struct {
	Port           string   `env:"PORT" envDefault:"5000"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Bearer token the sorting bins present on /token/generate. Empty disables the check.
	DeviceToken string `env:"DEVICE_API_TOKEN"`

	// Messaging
	MQTTBrokerURL string `env:"MQTT_BROKER_URL"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"recycle-reward-system"`
	DetectedTopic string `env:"DETECTED_TOPIC" envDefault:"item-detected"`
	DisplayTopic  string `env:"DISPLAY_TOPIC" envDefault:"token-ready"`

	// Tokens
	TokenTTL      time.Duration  `env:"TOKEN_TTL" envDefault:"10m"`
	PointSchedule map[string]int `env:"POINT_SCHEDULE" envSeparator:"," envKeyValSeparator:":"`
	QRBaseURL     string         `env:"QR_BASE_URL" envDefault:"https://api.qrserver.com/v1/create-qr-code/?size=200x200&data="`

	// Background jobs
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	RepairInterval   time.Duration `env:"REPAIR_INTERVAL" envDefault:"1m"`
	RepairGrace      time.Duration `env:"REPAIR_GRACE" envDefault:"1m"`
	ExpiredRetention time.Duration `env:"EXPIRED_RETENTION" envDefault:"24h"`
	ArchiveInterval  time.Duration `env:"ARCHIVE_INTERVAL" envDefault:"24h"`

	// Account mirror
	SyncServiceURL   string        `env:"SYNC_SERVICE_URL"`
	SyncServiceToken string        `env:"SYNC_SERVICE_TOKEN"`
	SyncInterval     time.Duration `env:"SYNC_INTERVAL" envDefault:"1m"`

	// Ledger archive (Cloudflare R2)
	R2AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	R2Bucket          string `env:"R2_BUCKET_NAME"`

	SeedChallenges bool `env:"SEED_CHALLENGES" envDefault:"true"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return Parse()
}

// Parse parses the current environment without touching .env files.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	for i, origin := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	return &cfg, nil
}

// ArchiveEnabled reports whether all R2 credentials are present.
func (c *Config) ArchiveEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2Bucket != ""
}
