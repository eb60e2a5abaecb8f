package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/obhavo-bot/internal/channel"
)

var (
	// ErrMissingToken is returned when no bot token is configured.
	ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN is required")
	// ErrTickTooCoarse is returned when exact-minute matching would skip
	// scheduled minutes that fall between two ticks.
	ErrTickTooCoarse = errors.New("SCHEDULER_TICK above 1m requires SCHEDULER_CATCH_UP=true")
)

type AppConfig struct {
	BotToken       string
	APIEndpoint    string
	BotPolling     bool
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int `validate:"gte=0"`
	Port           string `validate:"required,numeric"`
	DetailsURL     string `validate:"omitempty,url"`
	MiniAppURL     string `validate:"omitempty,url"`
	FeaturedRegion string

	// Scheduler.
	Tick          time.Duration `validate:"gt=0"`
	UTCOffset     string
	Location      *time.Location
	DefaultTime   channel.Schedule
	CatchUp       bool
	MarkOnFailure bool

	// Delivery.
	SendTimeout   time.Duration `validate:"gt=0"`
	SendPerSecond float64       `validate:"gte=0"`

	// Weather refresh. Zero disables the job.
	RefreshInterval time.Duration `validate:"gte=0"`
	HTTPTimeout     time.Duration `validate:"gt=0"`

	// Legacy single-channel settings.
	Legacy channel.LegacySettings

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		BotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIEndpoint:    os.Getenv("TELEGRAM_API_ENDPOINT"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getenvInt("REDIS_DB", 0),
		Port:           getenvDefault("PORT", "8080"),
		DetailsURL:     getenvDefault("DETAILS_URL", "https://t.me/Ztobhavobot"),
		MiniAppURL:     os.Getenv("MINI_APP_URL"),
		FeaturedRegion: getenvDefault("FEATURED_REGION", "toshkent"),
		LogLevel:       strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getenvDefault("LOG_FORMAT", "json")),
	}

	var err error
	if cfg.BotPolling, err = getenvBool("BOT_POLLING_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.Tick, err = getenvDuration("SCHEDULER_TICK", time.Minute); err != nil {
		return nil, err
	}
	if cfg.CatchUp, err = getenvBool("SCHEDULER_CATCH_UP", false); err != nil {
		return nil, err
	}
	if cfg.MarkOnFailure, err = getenvBool("MARK_SENT_ON_FAILURE", true); err != nil {
		return nil, err
	}
	if cfg.SendTimeout, err = getenvDuration("SEND_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("WEATHER_REFRESH_INTERVAL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	rate := getenvDefault("SEND_RATE_PER_SECOND", "20")
	if cfg.SendPerSecond, err = strconv.ParseFloat(rate, 64); err != nil {
		return nil, fmt.Errorf("invalid SEND_RATE_PER_SECOND: %w", err)
	}

	cfg.UTCOffset = getenvDefault("SCHEDULER_UTC_OFFSET", "+05:00")
	if cfg.Location, err = ParseUTCOffset(cfg.UTCOffset); err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_UTC_OFFSET: %w", err)
	}

	if cfg.DefaultTime, err = channel.ParseSchedule(getenvDefault("DEFAULT_SEND_TIME", "08:00")); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_SEND_TIME: %w", err)
	}

	cfg.Legacy.ChannelID = os.Getenv("BOT_CHANNEL_ID")
	cfg.Legacy.DailyMessageTime = getenvDefault("DAILY_MESSAGE_TIME", cfg.DefaultTime.String())
	if cfg.Legacy.DailyMessageEnabled, err = getenvBool("DAILY_MESSAGE_ENABLED", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded values. A missing bot token is reported last,
// as ErrMissingToken, so commands that do not talk to Telegram can ignore it
// after every other rule has passed.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Tick > time.Minute && !c.CatchUp {
		return fmt.Errorf("%w (got %s)", ErrTickTooCoarse, c.Tick)
	}
	if c.BotToken == "" {
		return ErrMissingToken
	}
	return nil
}

// ParseUTCOffset turns "+05:00", "-03:30" or "Z" into a fixed zone.
func ParseUTCOffset(raw string) (*time.Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "Z" || raw == "UTC" {
		return time.UTC, nil
	}
	if len(raw) != 6 || (raw[0] != '+' && raw[0] != '-') || raw[3] != ':' {
		return nil, fmt.Errorf("offset %q is not in ±HH:MM form", raw)
	}
	h, err := strconv.Atoi(raw[1:3])
	if err != nil || h > 14 {
		return nil, fmt.Errorf("offset %q has an invalid hour", raw)
	}
	m, err := strconv.Atoi(raw[4:6])
	if err != nil || m > 59 {
		return nil, fmt.Errorf("offset %q has an invalid minute", raw)
	}
	secs := h*3600 + m*60
	if raw[0] == '-' {
		secs = -secs
	}
	return time.FixedZone("UTC"+raw, secs), nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
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
