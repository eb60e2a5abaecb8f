// Package user holds per-user bot preferences. These are separate from
// broadcast destinations: a user picks a language and a region for their
// own conversations with the bot.
package user

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no preference row exists for a Telegram user.
var ErrNotFound = errors.New("user not found")

// Lang is a supported interface language.
type Lang string

const (
	LangArabic Lang = "ar"
	LangUzbek  Lang = "uz"
)

// Toggle switches between Arabic and Uzbek.
func (l Lang) Toggle() Lang {
	if l == LangArabic {
		return LangUzbek
	}
	return LangArabic
}

// DefaultRegion is assigned to users on first contact.
const DefaultRegion = "toshkent"

// Preference is one Telegram user's settings.
type Preference struct {
	ID         string    `json:"id"`
	TelegramID string    `json:"telegramId"`
	Username   string    `json:"username,omitempty"`
	Lang       Lang      `json:"lang"`
	Region     string    `json:"region"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists preferences.
type Store interface {
	GetByTelegramID(ctx context.Context, telegramID string) (Preference, error)
	Create(ctx context.Context, p Preference) (Preference, error)
	Update(ctx context.Context, p Preference) error
}

// GetOrCreate returns the stored preference or creates one with defaults.
func GetOrCreate(ctx context.Context, s Store, telegramID, username string) (Preference, error) {
	p, err := s.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Preference{}, err
	}
	return s.Create(ctx, Preference{
		TelegramID: telegramID,
		Username:   username,
		Lang:       LangUzbek,
		Region:     DefaultRegion,
	})
}
