package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cornip/Rina/common/logger"
	"github.com/cornip/Rina/core/config"
	"github.com/cornip/Rina/internal/model"
)

// Behavior is one selectable category of work within a channel.
type Behavior struct {
	Category model.Category
	Weight   int
	// Run executes one cycle. Use pace.BetweenItems between items of a batch.
	Run func(ctx context.Context, pace *Pacer) error
}

// CycleResult is reported to observers after each cycle.
type CycleResult struct {
	Channel  model.Channel
	Category model.Category
	Cycle    int64
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Observer is notified after every cycle, including failed ones.
type Observer interface {
	CycleCompleted(ctx context.Context, result CycleResult)
}

type Option func(*Scheduler)

// WithRand fixes the random source, mainly for tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) { s.rng = rng }
}

func WithSleeper(sl Sleeper) Option {
	return func(s *Scheduler) { s.sleeper = sl }
}

func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observers = append(s.observers, o) }
}

// Scheduler is the outer loop of one channel: select a behavior by weight,
// run it, sleep a jittered interval, repeat until the context ends.
type Scheduler struct {
	channel     model.Channel
	behaviors   []Behavior
	totalWeight int
	pacing      config.PacingConfig
	rng         *rand.Rand
	sleeper     Sleeper
	observers   []Observer

	pacer *Pacer
	cycle int64
}

// New validates the behaviors. Zero-weight behaviors are never selected;
// at least one behavior must have a positive weight.
func New(channel model.Channel, behaviors []Behavior, pacing config.PacingConfig, opts ...Option) (*Scheduler, error) {
	if err := pacing.Validate(); err != nil {
		return nil, fmt.Errorf("%s pacing: %w", channel, err)
	}

	total := 0
	for _, b := range behaviors {
		if b.Weight < 0 {
			return nil, fmt.Errorf("%s behavior %s: negative weight %d", channel, b.Category, b.Weight)
		}
		if b.Run == nil {
			return nil, fmt.Errorf("%s behavior %s: missing run func", channel, b.Category)
		}
		total += b.Weight
	}
	if total == 0 {
		return nil, fmt.Errorf("%s: no behavior with positive weight", channel)
	}

	s := &Scheduler{
		channel:     channel,
		behaviors:   behaviors,
		totalWeight: total,
		pacing:      pacing,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		sleeper:     timerSleeper{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pacer = NewPacer(pacing, s.rng, s.sleeper)

	return s, nil
}

func (s *Scheduler) Channel() model.Channel {
	return s.channel
}

// Select draws a behavior with probability weight/totalWeight.
func (s *Scheduler) Select() Behavior {
	n := s.rng.IntN(s.totalWeight)
	for _, b := range s.behaviors {
		if n < b.Weight {
			return b
		}
		n -= b.Weight
	}
	// Unreachable while totalWeight is the sum of weights.
	return s.behaviors[len(s.behaviors)-1]
}

// Run loops until ctx is cancelled. A failing or panicking behavior is
// logged and the loop continues after the usual inter-cycle delay.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Channel:   logger.Ptr(string(s.channel)),
		Component: "agent.scheduler",
	})

	slog.InfoContext(ctx, "scheduler started", "behaviors", len(s.behaviors))

	for {
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "scheduler stopped", "cycles", s.cycle)
			return nil
		}

		s.RunOnce(ctx)

		if err := s.pacer.BetweenCycles(ctx); err != nil {
			slog.InfoContext(ctx, "scheduler stopped", "cycles", s.cycle)
			return nil
		}
	}
}

// RunOnce selects and executes a single cycle.
func (s *Scheduler) RunOnce(ctx context.Context) CycleResult {
	s.cycle++
	b := s.Select()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Category: logger.Ptr(string(b.Category)),
		Cycle:    logger.Ptr(s.cycle),
	})

	sc := logger.StartSpan(ctx, "scheduler.cycle", trace.WithAttributes(
		attribute.String("channel", string(s.channel)),
		attribute.String("category", string(b.Category)),
		attribute.Int64("cycle", s.cycle),
	))
	defer sc.End()
	ctx = sc.Context()

	result := CycleResult{
		Channel:  s.channel,
		Category: b.Category,
		Cycle:    s.cycle,
		Started:  time.Now(),
	}

	slog.InfoContext(ctx, "cycle started")

	result.Err = s.runSafe(ctx, b)
	result.Duration = time.Since(result.Started)

	switch {
	case result.Err == nil:
		slog.InfoContext(ctx, "cycle completed", "duration_ms", result.Duration.Milliseconds())
	case errors.Is(result.Err, context.Canceled):
		slog.InfoContext(ctx, "cycle interrupted by shutdown")
	default:
		sc.RecordError(result.Err)
		slog.ErrorContext(ctx, "cycle failed",
			"error", result.Err,
			"duration_ms", result.Duration.Milliseconds())
	}

	for _, o := range s.observers {
		o.CycleCompleted(ctx, result)
	}

	return result
}

func (s *Scheduler) runSafe(ctx context.Context, b Behavior) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in behavior", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.Run(ctx, s.pacer)
}
