package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/i474232898/obhavo-bot/internal/digest"
)

var testDigest = digest.Message{
	Text:    "☀️ <b>Ob-havo</b>",
	Buttons: []digest.Button{{Text: "📱 Batafsil", URL: "https://t.me/Ztobhavobot"}},
}

func TestClientSendNumericChat(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api, time.Second, 0, nil)

	receipt, err := c.Send(context.Background(), "-100123", testDigest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !receipt.OK || receipt.MessageID != 101 || receipt.Raw == "" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if m.ChatID != -100123 || m.ParseMode != tgbotapi.ModeHTML || m.Text != testDigest.Text {
		t.Fatalf("unexpected message config: %+v", m)
	}
	kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 1 {
		t.Fatalf("unexpected keyboard: %#v", m.ReplyMarkup)
	}
	if btn := kb.InlineKeyboard[0][0]; btn.URL == nil || *btn.URL != "https://t.me/Ztobhavobot" {
		t.Fatalf("unexpected button: %+v", btn)
	}
}

func TestClientSendChannelUsername(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api, time.Second, 0, nil)

	if _, err := c.Send(context.Background(), "@obhavo", digest.Message{Text: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := api.messages()[0]
	if m.ChannelUsername != "@obhavo" || m.ReplyMarkup != nil {
		t.Fatalf("unexpected message config: %+v", m)
	}
}

func TestClientRejectsBadChatID(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api, time.Second, 0, nil)

	for _, id := range []string{"", "@", "abc"} {
		if _, err := c.Send(context.Background(), id, testDigest); !errors.Is(err, digest.ErrDeliveryFailed) {
			t.Errorf("chat %q: expected ErrDeliveryFailed, got %v", id, err)
		}
	}
	if len(api.messages()) != 0 {
		t.Fatal("api should not be called for invalid chat ids")
	}
	if ValidChatID("abc") || !ValidChatID("-100123") || !ValidChatID("@obhavo") {
		t.Fatal("ValidChatID mismatch")
	}
}

func TestClientWrapsAPIErrors(t *testing.T) {
	api := &fakeAPI{send: func(tgbotapi.Chattable) (tgbotapi.Message, error) {
		return tgbotapi.Message{}, &tgbotapi.Error{Code: 403, Message: "Forbidden: bot is not a member of the channel chat"}
	}}
	c := NewClient(api, time.Second, 0, nil)

	receipt, err := c.Send(context.Background(), "-100123", testDigest)
	if !errors.Is(err, digest.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if receipt.OK || !strings.Contains(receipt.Raw, "403") || !strings.Contains(receipt.Raw, "not a member") {
		t.Fatalf("expected raw transport response, got %+v", receipt)
	}
}

func TestClientTimesOutHungSend(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	api := &fakeAPI{send: func(tgbotapi.Chattable) (tgbotapi.Message, error) {
		<-release
		return tgbotapi.Message{}, nil
	}}
	c := NewClient(api, 20*time.Millisecond, 0, nil)

	start := time.Now()
	_, err := c.Send(context.Background(), "-100123", testDigest)
	if !errors.Is(err, digest.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("send was not bounded by the timeout: %v", elapsed)
	}
}

func TestClientRecoversPanics(t *testing.T) {
	api := &fakeAPI{send: func(tgbotapi.Chattable) (tgbotapi.Message, error) {
		panic("boom")
	}}
	c := NewClient(api, time.Second, 0, nil)

	if _, err := c.Send(context.Background(), "-100123", testDigest); !errors.Is(err, digest.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
}
