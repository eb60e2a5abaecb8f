package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/i474232898/obhavo-bot/internal/channel"
	"github.com/i474232898/obhavo-bot/internal/config"
	"github.com/i474232898/obhavo-bot/internal/database"
	"github.com/i474232898/obhavo-bot/internal/digest"
	"github.com/i474232898/obhavo-bot/internal/store"
	"github.com/i474232898/obhavo-bot/internal/user"
	"github.com/i474232898/obhavo-bot/internal/weather"
)

// stores groups the persistence backends picked from configuration.
type stores struct {
	cache    weather.Store
	registry channel.Registry
	users    user.Store

	db    *sql.DB
	redis *redis.Client
}

func (s *stores) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// openStores uses Postgres when DATABASE_URL is set and memory otherwise.
// REDIS_ADDR moves the weather cache to Redis in either case.
func openStores(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*stores, error) {
	s := &stores{}

	if cfg.DatabaseURL != "" {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Ping(ctx, db, 5*time.Second); err != nil {
			_ = db.Close()
			return nil, err
		}
		s.db = db
		s.cache = store.NewPostgresSnapshots(db, log)
		s.registry = store.NewPostgresRegistry(db)
		s.users = store.NewPostgresUsers(db)
		log.Info("using postgres storage")
	} else {
		s.cache = store.NewMemoryStore()
		s.registry = store.NewMemoryRegistry()
		s.users = store.NewMemoryUsers()
		log.Warn("DATABASE_URL not set, destinations are kept in memory only")
	}

	if cfg.RedisAddr != "" {
		s.redis = store.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.cache = store.NewRedisSnapshots(s.redis, store.DefaultRedisKey, log)
		log.Info("using redis weather cache", zap.String("addr", cfg.RedisAddr))
	}

	return s, nil
}

// adoptLegacy registers the single-channel settings from the environment
// and from the bot_settings table as ordinary destinations.
func adoptLegacy(ctx context.Context, cfg *config.AppConfig, s *stores, log *zap.Logger) error {
	sources := []channel.LegacySettings{cfg.Legacy}
	if s.db != nil {
		fromDB, err := store.LoadLegacySettings(ctx, s.db)
		if err != nil {
			return err
		}
		sources = append(sources, fromDB)
	}
	for _, settings := range sources {
		added, err := channel.AdoptLegacy(ctx, s.registry, settings)
		if err != nil {
			return err
		}
		if added {
			log.Info("adopted legacy channel settings",
				zap.String("chat_id", settings.ChannelID),
				zap.Bool("enabled", settings.DailyMessageEnabled),
				zap.String("time", settings.DailyMessageTime))
		}
	}
	return nil
}

func newBotAPI(cfg *config.AppConfig) (*tgbotapi.BotAPI, error) {
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, newHTTPClient(cfg.SendTimeout + 5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return api, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func newRenderer(cfg *config.AppConfig) *digest.Renderer {
	return digest.NewRenderer(weather.Regions(), digest.Options{
		Location:       cfg.Location,
		FeaturedRegion: cfg.FeaturedRegion,
		DetailsURL:     cfg.DetailsURL,
	})
}
