package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/obhavo-bot/internal/channel"
	"github.com/i474232898/obhavo-bot/internal/user"
)

// MemoryRegistry keeps destinations in memory. It is used when no
// database is configured and in tests.
type MemoryRegistry struct {
	mu   sync.RWMutex
	data map[string]channel.Destination // key: chat id
	now  func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		data: make(map[string]channel.Destination),
		now:  time.Now,
	}
}

func (r *MemoryRegistry) Add(_ context.Context, d channel.Destination) (channel.Destination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[d.ChatID]; ok {
		return channel.Destination{}, channel.ErrDuplicate
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = r.now().UTC()
	}
	if d.LastSentAt != nil {
		at := *d.LastSentAt
		d.LastSentAt = &at
	}
	r.data[d.ChatID] = d
	return d, nil
}

func (r *MemoryRegistry) Remove(_ context.Context, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.data, chatID)
	return nil
}

func (r *MemoryRegistry) Get(_ context.Context, chatID string) (channel.Destination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.data[chatID]
	if !ok {
		return channel.Destination{}, channel.ErrNotFound
	}
	return d, nil
}

// List returns all destinations ordered by creation time.
func (r *MemoryRegistry) List(_ context.Context) ([]channel.Destination, error) {
	return r.collect(func(channel.Destination) bool { return true }), nil
}

func (r *MemoryRegistry) ListEnabled(_ context.Context) ([]channel.Destination, error) {
	return r.collect(func(d channel.Destination) bool { return d.Enabled }), nil
}

func (r *MemoryRegistry) collect(keep func(channel.Destination) bool) []channel.Destination {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]channel.Destination, 0, len(r.data))
	for _, d := range r.data {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ChatID < out[j].ChatID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryRegistry) SetEnabled(_ context.Context, chatID string, enabled bool) error {
	return r.update(chatID, func(d *channel.Destination) { d.Enabled = enabled })
}

func (r *MemoryRegistry) SetSchedule(_ context.Context, chatID string, hhmm string) error {
	return r.update(chatID, func(d *channel.Destination) { d.ScheduledTime = hhmm })
}

func (r *MemoryRegistry) MarkSent(_ context.Context, chatID string, at time.Time) error {
	return r.update(chatID, func(d *channel.Destination) {
		t := at
		d.LastSentAt = &t
	})
}

func (r *MemoryRegistry) update(chatID string, fn func(*channel.Destination)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.data[chatID]
	if !ok {
		return channel.ErrNotFound
	}
	fn(&d)
	r.data[chatID] = d
	return nil
}

// MemoryUsers keeps user preferences in memory.
type MemoryUsers struct {
	mu   sync.RWMutex
	data map[string]user.Preference // key: telegram id
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{data: make(map[string]user.Preference)}
}

func (u *MemoryUsers) GetByTelegramID(_ context.Context, telegramID string) (user.Preference, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	p, ok := u.data[telegramID]
	if !ok {
		return user.Preference{}, user.ErrNotFound
	}
	return p, nil
}

func (u *MemoryUsers) Create(_ context.Context, p user.Preference) (user.Preference, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if existing, ok := u.data[p.TelegramID]; ok {
		return existing, nil
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	u.data[p.TelegramID] = p
	return p, nil
}

func (u *MemoryUsers) Update(_ context.Context, p user.Preference) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.data[p.TelegramID]; !ok {
		return user.ErrNotFound
	}
	u.data[p.TelegramID] = p
	return nil
}

var (
	_ channel.Registry = (*MemoryRegistry)(nil)
	_ user.Store       = (*MemoryUsers)(nil)
)
