package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/i474232898/obhavo-bot/internal/weather"
)

// Callback is the JSON payload carried by inline keyboard buttons.
// Telegram limits it to 64 bytes.
type Callback struct {
	CallbackType CallbackType `json:"callbackType"`
	Data         interface{}  `json:"data"`
}

type CallbackType int

const (
	regionCallback CallbackType = iota
)

type regionPayload struct {
	Region string `json:"region" mapstructure:"region"`
}

var (
	ErrWrongCallback = errors.New("wrong callback")

	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Always acknowledge so the client stops showing a spinner.
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.log.Debug("callback ack failed", zap.Error(err))
		}
	}()

	callback := Callback{}
	if err := json.Unmarshal([]byte(query.Data), &callback); err != nil {
		return ErrWrongCallback
	}
	switch callback.CallbackType {
	case regionCallback:
		payload := regionPayload{}
		if err := mapstructure.Decode(callback.Data, &payload); err != nil {
			return ErrWrongCallback
		}
		return b.handleRegionCallback(ctx, query, payload)
	default:
		return ErrWrongCallback
	}
}

func (b *Bot) handleRegionCallback(ctx context.Context, query *tgbotapi.CallbackQuery, payload regionPayload) error {
	if _, ok := weather.LookupRegion(payload.Region); !ok {
		return fmt.Errorf("%w: unknown region %q", ErrWrongCallback, payload.Region)
	}
	if query.Message == nil || query.Message.Chat == nil {
		return fmt.Errorf("%w: callback without message", ErrWrongCallback)
	}

	pref, err := b.preference(ctx, query.From)
	if err != nil {
		return err
	}
	pref.Region = payload.Region
	if err := b.users.Update(ctx, pref); err != nil {
		return fmt.Errorf("save region: %w", err)
	}
	return b.sendRegionWeather(ctx, query.Message.Chat.ID, pref)
}
