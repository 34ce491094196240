package scheduler

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cornip/Rina/core/config"
)

// Range is an inclusive delay range. Min == Max is a fixed delay.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Draw picks a delay uniformly from [Min, Max].
func (r Range) Draw(rng *rand.Rand) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rng.Int64N(int64(r.Max-r.Min)+1))
}

// Sleeper blocks for a duration or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer spaces out work inside a cycle and between cycles.
type Pacer struct {
	item    Range
	cycle   Range
	rng     *rand.Rand
	sleeper Sleeper
}

// NewPacer builds a Pacer from cfg. A nil rng or sleeper gets the default.
func NewPacer(cfg config.PacingConfig, rng *rand.Rand, sleeper Sleeper) *Pacer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if sleeper == nil {
		sleeper = timerSleeper{}
	}
	return &Pacer{
		item:    Range{Min: cfg.ItemMin, Max: cfg.ItemMax},
		cycle:   Range{Min: cfg.CycleMin, Max: cfg.CycleMax},
		rng:     rng,
		sleeper: sleeper,
	}
}

// BetweenItems sleeps a jittered inter-item delay.
// It returns ctx.Err() if the context ends first.
func (p *Pacer) BetweenItems(ctx context.Context) error {
	return p.sleeper.Sleep(ctx, p.item.Draw(p.rng))
}

// BetweenCycles sleeps a jittered inter-cycle delay.
func (p *Pacer) BetweenCycles(ctx context.Context) error {
	return p.sleeper.Sleep(ctx, p.cycle.Draw(p.rng))
}
