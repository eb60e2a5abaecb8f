package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/i474232898/obhavo-bot/internal/user"
	"github.com/i474232898/obhavo-bot/internal/weather"
)

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	switch message.Command() {
	case "start":
		return b.handleStartCommand(ctx, message)
	case "weather":
		return b.handleWeatherCommand(ctx, message)
	case "lang":
		return b.handleLangCommand(ctx, message)
	default:
	}
	return nil
}

func (b *Bot) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	pref, err := b.preference(ctx, message.From)
	if err != nil {
		return err
	}

	name := ""
	if message.From != nil {
		name = message.From.FirstName
	}
	var text string
	if pref.Lang == user.LangArabic {
		text = fmt.Sprintf("🎓 <b>مشروع التعليم الحديث</b>\n\n☀️ مرحباً %s!\n\nاختر المنطقة لمعرفة الطقس:", esc(name))
	} else {
		text = fmt.Sprintf("🎓 <b>Zamonaviy ta'lim loyihasi</b>\n\n☀️ Assalomu alaykum %s!\n\nOb-havo ma'lumotini ko'rish uchun viloyatni tanlang:", esc(name))
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = b.regionKeyboard(pref.Lang)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleWeatherCommand(ctx context.Context, message *tgbotapi.Message) error {
	pref, err := b.preference(ctx, message.From)
	if err != nil {
		return err
	}
	return b.sendRegionWeather(ctx, message.Chat.ID, pref)
}

func (b *Bot) handleLangCommand(ctx context.Context, message *tgbotapi.Message) error {
	pref, err := b.preference(ctx, message.From)
	if err != nil {
		return err
	}
	pref.Lang = pref.Lang.Toggle()
	if err := b.users.Update(ctx, pref); err != nil {
		return fmt.Errorf("save language: %w", err)
	}

	text := "🇺🇿 Til o'zgartirildi: O'zbekcha"
	if pref.Lang == user.LangArabic {
		text = "🇸🇦 تم تغيير اللغة إلى العربية"
	}
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = b.regionKeyboard(pref.Lang)
	_, err = b.api.Send(msg)
	return err
}

// regionKeyboard lists the catalog two regions per row, followed by the
// mini app link when one is configured.
func (b *Bot) regionKeyboard(lang user.Lang) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, r := range weather.Regions() {
		label := r.NameUz
		if lang == user.LangArabic {
			label = r.NameAr
		}
		data, _ := json.Marshal(Callback{
			CallbackType: regionCallback,
			Data:         regionPayload{Region: r.ID},
		})
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, string(data)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if b.miniAppURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📱 Batafsil", b.miniAppURL),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func esc(s string) string {
	return htmlEscaper.Replace(s)
}
