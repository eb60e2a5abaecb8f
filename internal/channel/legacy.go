package channel

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LegacyTitle marks destinations synthesized from single-channel settings.
const LegacyTitle = "legacy bot settings"

// LegacySettings is the single-channel configuration that predates the
// destination list.
type LegacySettings struct {
	ChannelID            string
	DailyMessageEnabled  bool
	DailyMessageTime     string
	LastDailyMessageSent *time.Time
}

// Destination converts the settings into a synthetic destination.
// It reports false when no channel is configured.
func (s LegacySettings) Destination() (Destination, bool) {
	if s.ChannelID == "" {
		return Destination{}, false
	}
	return Destination{
		ChatID:        s.ChannelID,
		Title:         LegacyTitle,
		Type:          TypeChannel,
		Enabled:       s.DailyMessageEnabled,
		ScheduledTime: s.DailyMessageTime,
		LastSentAt:    s.LastDailyMessageSent,
	}, true
}

// AdoptLegacy registers the legacy channel as a regular destination so the
// scheduler only ever sees the destination list. An already registered chat
// id is left untouched. It reports whether a destination was added.
func AdoptLegacy(ctx context.Context, reg Registry, s LegacySettings) (bool, error) {
	d, ok := s.Destination()
	if !ok {
		return false, nil
	}
	if _, err := reg.Add(ctx, d); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("adopt legacy channel %s: %w", s.ChannelID, err)
	}
	return true, nil
}
