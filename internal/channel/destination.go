// Package channel models broadcast destinations (Telegram channels and
// groups) that receive the scheduled daily digest.
package channel

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when an operation references an unregistered chat id.
	ErrNotFound = errors.New("destination not found")
	// ErrDuplicate is returned when registering a chat id twice.
	ErrDuplicate = errors.New("destination already registered")
)

// Type distinguishes channels from groups.
type Type string

const (
	TypeChannel Type = "channel"
	TypeGroup   Type = "group"
)

// Valid reports whether t is a known destination type.
func (t Type) Valid() bool {
	return t == TypeChannel || t == TypeGroup
}

// Destination is a chat registered for the daily digest.
// ChatID is immutable once registered. LastSentAt is written only by the
// scheduler.
type Destination struct {
	ID            string     `json:"id"`
	ChatID        string     `json:"chatId"`
	Title         string     `json:"title,omitempty"`
	Type          Type       `json:"type"`
	Enabled       bool       `json:"enabled"`
	ScheduledTime string     `json:"scheduledTime,omitempty"`
	LastSentAt    *time.Time `json:"lastSentAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Label returns the title if present, otherwise the chat id.
func (d Destination) Label() string {
	if d.Title != "" {
		return d.Title
	}
	return d.ChatID
}

// SentOn reports whether the last delivery happened on the same calendar
// day as now, both evaluated in loc.
func (d Destination) SentOn(now time.Time, loc *time.Location) bool {
	if d.LastSentAt == nil {
		return false
	}
	return SameDay(*d.LastSentAt, now, loc)
}

// Registry is the durable store of destinations.
type Registry interface {
	// Add fails with ErrDuplicate if the chat id is already registered.
	Add(ctx context.Context, d Destination) (Destination, error)
	// Remove is idempotent.
	Remove(ctx context.Context, chatID string) error
	Get(ctx context.Context, chatID string) (Destination, error)
	List(ctx context.Context) ([]Destination, error)
	// ListEnabled returns enabled destinations in no guaranteed order.
	ListEnabled(ctx context.Context) ([]Destination, error)
	SetEnabled(ctx context.Context, chatID string, enabled bool) error
	SetSchedule(ctx context.Context, chatID string, hhmm string) error
	MarkSent(ctx context.Context, chatID string, at time.Time) error
}

// SameDay compares the calendar dates of a and b in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
