package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/obhavo-bot/internal/channel"
	"github.com/i474232898/obhavo-bot/internal/digest"
)

// Digester renders and delivers digests.
type Digester interface {
	Compose(ctx context.Context, now time.Time) (digest.Message, error)
	Deliver(ctx context.Context, chatID string, msg digest.Message) (digest.Receipt, error)
}

// RefreshJob repopulates the weather cache.
type RefreshJob interface {
	Refresh(ctx context.Context) (int, error)
}

// Recorder receives tick outcomes for metrics.
type Recorder interface {
	RecordTick(duration time.Duration)
	RecordTickSkipped()
	RecordDelivery(ok bool)
	RecordMalformedSchedule()
	RecordMarkSentFailure()
}

// Options tune the tick algorithm.
type Options struct {
	// Tick is the polling period. Without CatchUp it is capped at one
	// minute, since a coarser tick would step over scheduled minutes.
	Tick time.Duration
	// Location is the canonical timezone for every time-of-day and
	// calendar-day comparison. Host local time is never consulted.
	Location *time.Location
	// DefaultTime applies to destinations with an empty or malformed schedule.
	DefaultTime channel.Schedule
	// CatchUp delivers when now is at or past the scheduled minute instead
	// of only during it. The once-per-day rule still holds.
	CatchUp bool
	// MarkOnFailure records failed attempts as sent for the day.
	MarkOnFailure bool
	// RefreshInterval runs the weather refresh job. Zero disables it.
	RefreshInterval time.Duration
}

// DefaultLocation is UTC+05:00.
var DefaultLocation = time.FixedZone("UTC+05:00", 5*60*60)

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Tick:          time.Minute,
		Location:      DefaultLocation,
		DefaultTime:   channel.DefaultSchedule,
		MarkOnFailure: true,
	}
}

// TickReport summarizes one tick.
type TickReport struct {
	Skipped   bool `json:"skipped"`
	Enabled   int  `json:"enabled"`
	Due       int  `json:"due"`
	Delivered int  `json:"delivered"`
	Failed    int  `json:"failed"`
	Malformed int  `json:"malformed"`
}

// Scheduler delivers the daily digest to every enabled destination once
// per canonical calendar day.
type Scheduler struct {
	scheduler *gocron.Scheduler
	registry  channel.Registry
	digester  Digester
	refresher RefreshJob
	opts      Options
	log       *zap.Logger
	metrics   Recorder
	now       func() time.Time

	inFlight atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a Scheduler. refresher and metrics may be nil.
func New(registry channel.Registry, digester Digester, refresher RefreshJob, opts Options, log *zap.Logger, metrics Recorder) *Scheduler {
	def := DefaultOptions()
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Tick <= 0 {
		opts.Tick = def.Tick
	}
	// Exact matching only sees minutes a tick lands in.
	if opts.Tick > time.Minute && !opts.CatchUp {
		log.Warn("tick above one minute without catch-up, clamping to 1m", zap.Duration("tick", opts.Tick))
		opts.Tick = time.Minute
	}
	if opts.Location == nil {
		opts.Location = def.Location
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(opts.Location),
		registry:  registry,
		digester:  digester,
		refresher: refresher,
		opts:      opts,
		log:       log.Named("scheduler"),
		metrics:   metrics,
		now:       time.Now,
	}
}

// Start registers the digest tick and the optional refresh job and starts
// them in the background. The first tick is aligned to the next tick
// boundary. Both jobs run in singleton mode so a slow run is never
// overlapped by the next one.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("scheduler already started")
	}
	ctx, cancel := context.WithCancel(ctx)

	if s.refresher != nil && s.opts.RefreshInterval > 0 {
		_, err := s.scheduler.Every(s.opts.RefreshInterval).SingletonMode().Do(func() {
			if _, err := s.refresher.Refresh(ctx); err != nil {
				s.log.Error("weather refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			cancel()
			return fmt.Errorf("schedule weather refresh: %w", err)
		}
	}

	first := s.now().Truncate(s.opts.Tick).Add(s.opts.Tick)
	_, err := s.scheduler.Every(s.opts.Tick).StartAt(first).SingletonMode().Do(func() {
		s.Tick(ctx, s.now())
	})
	if err != nil {
		cancel()
		return fmt.Errorf("schedule digest tick: %w", err)
	}

	s.cancel = cancel
	s.scheduler.StartAsync()
	s.log.Info("scheduler started",
		zap.Duration("tick", s.opts.Tick),
		zap.String("timezone", s.opts.Location.String()),
		zap.String("default_time", s.opts.DefaultTime.String()),
		zap.Bool("catch_up", s.opts.CatchUp),
		zap.Bool("mark_on_failure", s.opts.MarkOnFailure),
		zap.Time("first_tick", first),
	)
	return nil
}

// Stop cancels in-flight work and stops future jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.scheduler.Stop()
	s.log.Info("scheduler stopped")
}

// Tick evaluates every enabled destination against now and delivers to
// those that are due. A tick that starts while another is running returns
// immediately with Skipped set.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) TickReport {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Warn("previous tick still running, skipping")
		if s.metrics != nil {
			s.metrics.RecordTickSkipped()
		}
		return TickReport{Skipped: true}
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	var report TickReport
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordTick(time.Since(start))
		}
		if report.Due > 0 {
			s.log.Info("tick finished",
				zap.Int("due", report.Due),
				zap.Int("delivered", report.Delivered),
				zap.Int("failed", report.Failed),
			)
		}
	}()

	dests, err := s.registry.ListEnabled(ctx)
	if err != nil {
		s.log.Error("list enabled destinations", zap.Error(err))
		return report
	}
	report.Enabled = len(dests)

	local := now.In(s.opts.Location)
	var (
		msg      digest.Message
		composed bool
		compErr  error
	)
	for _, d := range dests {
		if !s.due(d, now, local, &report) {
			continue
		}
		report.Due++

		// Compose once per tick, only when someone is due.
		if !composed {
			msg, compErr = s.digester.Compose(ctx, now)
			composed = true
			if compErr != nil {
				s.log.Error("compose digest", zap.Error(compErr))
			}
		}
		if compErr != nil {
			// Nothing was sent, so the destination stays eligible.
			report.Failed++
			s.recordDelivery(false)
			continue
		}

		ok := s.deliver(ctx, d, msg)
		s.recordDelivery(ok)
		if ok {
			report.Delivered++
		} else {
			report.Failed++
		}
		if ok || s.opts.MarkOnFailure {
			s.markSent(ctx, d.ChatID, now)
		}
	}
	return report
}

func (s *Scheduler) due(d channel.Destination, now, local time.Time, report *TickReport) bool {
	sched, err := channel.ResolveSchedule(d.ScheduledTime, s.opts.DefaultTime)
	if err != nil {
		report.Malformed++
		if s.metrics != nil {
			s.metrics.RecordMalformedSchedule()
		}
		s.log.Warn("malformed schedule, using default",
			zap.String("chat_id", d.ChatID),
			zap.String("scheduled_time", d.ScheduledTime),
			zap.String("default", sched.String()),
		)
	}

	matched := sched.Matches(local)
	if s.opts.CatchUp {
		matched = sched.Reached(local)
	}
	if !matched {
		return false
	}
	return !d.SentOn(now, s.opts.Location)
}

// deliver reports whether the send succeeded. Panics count as failures.
func (s *Scheduler) deliver(ctx context.Context, d channel.Destination, msg digest.Message) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic during delivery", zap.String("chat_id", d.ChatID), zap.Any("panic", r))
			ok = false
		}
	}()

	receipt, err := s.digester.Deliver(ctx, d.ChatID, msg)
	if err != nil {
		s.log.Warn("scheduled delivery failed",
			zap.String("chat_id", d.ChatID),
			zap.String("destination", d.Label()),
			zap.String("raw", receipt.Raw),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (s *Scheduler) markSent(ctx context.Context, chatID string, at time.Time) {
	if err := s.registry.MarkSent(ctx, chatID, at); err != nil {
		if s.metrics != nil {
			s.metrics.RecordMarkSentFailure()
		}
		s.log.Error("mark destination sent", zap.String("chat_id", chatID), zap.Error(err))
	}
}

func (s *Scheduler) recordDelivery(ok bool) {
	if s.metrics != nil {
		s.metrics.RecordDelivery(ok)
	}
}
