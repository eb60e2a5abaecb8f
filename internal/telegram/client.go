// Package telegram is the Telegram Bot API side of the service: the
// delivery client used for digests and the interactive command loop.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/i474232898/obhavo-bot/internal/digest"
)

// API is the subset of *tgbotapi.BotAPI used for sending.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client delivers digests. Every send is rate limited and bounded by a
// timeout so one stuck chat cannot hold up a scheduler tick.
type Client struct {
	api     API
	limiter *rate.Limiter
	timeout time.Duration
	log     *zap.Logger
}

// NewClient builds a Client. perSecond <= 0 disables rate limiting.
func NewClient(api API, timeout time.Duration, perSecond float64, log *zap.Logger) *Client {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
		log:     log.Named("telegram_client"),
	}
}

type sendResult struct {
	msg tgbotapi.Message
	err error
}

// Send posts msg to chatID, a numeric chat id or an @channel username.
func (c *Client) Send(ctx context.Context, chatID string, msg digest.Message) (digest.Receipt, error) {
	cfg, err := newMessageConfig(chatID, msg)
	if err != nil {
		return digest.Receipt{}, fmt.Errorf("%w: %v", digest.ErrDeliveryFailed, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return digest.Receipt{}, fmt.Errorf("%w: rate limiter: %v", digest.ErrDeliveryFailed, err)
	}

	done := make(chan sendResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- sendResult{err: fmt.Errorf("panic in send: %v", r)}
			}
		}()
		sent, err := c.api.Send(cfg)
		done <- sendResult{msg: sent, err: err}
	}()

	select {
	case <-ctx.Done():
		c.log.Warn("send timed out", zap.String("chat_id", chatID))
		return digest.Receipt{}, fmt.Errorf("%w: %s: %v", digest.ErrDeliveryFailed, chatID, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return digest.Receipt{Raw: rawError(res.err)}, fmt.Errorf("%w: %s: %v", digest.ErrDeliveryFailed, chatID, res.err)
		}
		raw, _ := json.Marshal(res.msg)
		return digest.Receipt{OK: true, MessageID: res.msg.MessageID, Raw: string(raw)}, nil
	}
}

func newMessageConfig(chatID string, msg digest.Message) (tgbotapi.MessageConfig, error) {
	chatID = strings.TrimSpace(chatID)
	var cfg tgbotapi.MessageConfig
	switch {
	case chatID == "" || chatID == "@":
		return cfg, errors.New("empty chat id")
	case strings.HasPrefix(chatID, "@"):
		cfg = tgbotapi.NewMessageToChannel(chatID, msg.Text)
	default:
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid chat id %q", chatID)
		}
		cfg = tgbotapi.NewMessage(id, msg.Text)
	}
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.DisableWebPagePreview = true
	if len(msg.Buttons) > 0 {
		cfg.ReplyMarkup = urlKeyboard(msg.Buttons)
	}
	return cfg, nil
}

func urlKeyboard(buttons []digest.Button) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func rawError(err error) string {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Sprintf(`{"ok":false,"error_code":%d,"description":%q}`, apiErr.Code, apiErr.Message)
	}
	return err.Error()
}

// ValidChatID reports whether chatID is usable as a destination.
func ValidChatID(chatID string) bool {
	_, err := newMessageConfig(chatID, digest.Message{})
	return err == nil
}

var _ digest.Sender = (*Client)(nil)
