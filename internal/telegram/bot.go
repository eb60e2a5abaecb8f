package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/i474232898/obhavo-bot/internal/digest"
	"github.com/i474232898/obhavo-bot/internal/user"
	"github.com/i474232898/obhavo-bot/internal/weather"
)

// UpdatesAPI is the subset of *tgbotapi.BotAPI the command loop needs.
type UpdatesAPI interface {
	API
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot answers user commands. User preferences it stores are unrelated to
// broadcast destinations.
type Bot struct {
	api        UpdatesAPI
	users      user.Store
	cache      weather.Store
	renderer   *digest.Renderer
	miniAppURL string
	log        *zap.Logger
}

func NewBot(api UpdatesAPI, users user.Store, cache weather.Store, renderer *digest.Renderer, miniAppURL string, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		api:        api,
		users:      users,
		cache:      cache,
		renderer:   renderer,
		miniAppURL: miniAppURL,
		log:        log.Named("bot"),
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("bot polling started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.manageUpdate(ctx, update)
		}
	}
}

func (b *Bot) manageUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		err = b.handleCommand(ctx, update.Message)
	}
	if err != nil {
		b.log.Warn("update handling failed", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}
}

func (b *Bot) preference(ctx context.Context, from *tgbotapi.User) (user.Preference, error) {
	if from == nil {
		return user.Preference{}, fmt.Errorf("update without sender")
	}
	return user.GetOrCreate(ctx, b.users, strconv.FormatInt(from.ID, 10), from.UserName)
}

func (b *Bot) reply(chatID int64, msg digest.Message) error {
	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	cfg.ParseMode = tgbotapi.ModeHTML
	if len(msg.Buttons) > 0 {
		cfg.ReplyMarkup = urlKeyboard(msg.Buttons)
	}
	_, err := b.api.Send(cfg)
	return err
}

func (b *Bot) sendRegionWeather(ctx context.Context, chatID int64, pref user.Preference) error {
	region, ok := weather.LookupRegion(pref.Region)
	if !ok {
		region, _ = weather.LookupRegion(user.DefaultRegion)
	}
	snap, err := b.cache.Get(ctx, region.ID)
	have := err == nil
	if err != nil && !errors.Is(err, weather.ErrSnapshotUnavailable) {
		b.log.Warn("weather cache read failed", zap.String("region", region.ID), zap.Error(err))
	}
	return b.reply(chatID, b.renderer.RenderRegion(time.Now(), pref.Lang, region, snap, have))
}
