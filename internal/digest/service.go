package digest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/obhavo-bot/internal/weather"
)

// Service ties the weather cache, the renderer and the sender together.
// The scheduler and the operator test path both go through it so a manual
// send is byte-for-byte what the scheduled one would be.
type Service struct {
	store    weather.Store
	renderer *Renderer
	sender   Sender
	log      *zap.Logger
	now      func() time.Time
}

func NewService(store weather.Store, renderer *Renderer, sender Sender, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		renderer: renderer,
		sender:   sender,
		log:      log.Named("digest"),
		now:      time.Now,
	}
}

// Compose reads every cached snapshot and renders the digest for now.
func (s *Service) Compose(ctx context.Context, now time.Time) (Message, error) {
	snaps, err := s.store.ListAll(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("read weather cache: %w", err)
	}
	return s.renderer.Render(now, weather.Index(snaps)), nil
}

// Preview renders the digest as it would be sent right now.
func (s *Service) Preview(ctx context.Context) (Message, error) {
	return s.Compose(ctx, s.now())
}

// Deliver sends an already rendered message to one chat.
func (s *Service) Deliver(ctx context.Context, chatID string, msg Message) (Receipt, error) {
	if s.sender == nil {
		return Receipt{}, fmt.Errorf("%w: no sender configured", ErrDeliveryFailed)
	}
	receipt, err := s.sender.Send(ctx, chatID, msg)
	if err != nil {
		s.log.Warn("digest delivery failed", zap.String("chat_id", chatID), zap.Error(err))
		return receipt, err
	}
	s.log.Info("digest delivered", zap.String("chat_id", chatID), zap.Int("message_id", receipt.MessageID))
	return receipt, nil
}

// SendNow composes and delivers outside the schedule. It does not touch
// the destination's last-sent marker.
func (s *Service) SendNow(ctx context.Context, chatID string) (Receipt, error) {
	msg, err := s.Compose(ctx, s.now())
	if err != nil {
		return Receipt{}, err
	}
	return s.Deliver(ctx, chatID, msg)
}

// Renderer exposes the renderer for interactive replies.
func (s *Service) Renderer() *Renderer {
	return s.renderer
}
