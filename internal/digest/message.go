// Package digest composes the daily bilingual weather digest and hands it
// to a Sender for delivery.
package digest

import (
	"context"
	"errors"
)

// ErrDeliveryFailed wraps every transport-level failure: network errors,
// unknown chats, missing permissions and rate limits alike.
var ErrDeliveryFailed = errors.New("delivery failed")

// Button is an inline keyboard link.
type Button struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Message is a rendered message in Telegram HTML markup.
type Message struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}

// Receipt is the transport's answer to one send.
type Receipt struct {
	OK        bool   `json:"ok"`
	MessageID int    `json:"messageId,omitempty"`
	Raw       string `json:"raw,omitempty"`
}

// Sender delivers one message to one chat. Implementations must return an
// error wrapping ErrDeliveryFailed instead of panicking.
type Sender interface {
	Send(ctx context.Context, chatID string, msg Message) (Receipt, error)
}
