package status

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cornip/Rina/internal/model"
	"github.com/cornip/Rina/internal/scheduler"
)

const streamMaxLen = 1000

// ChannelStats is the running summary of one channel's cycles.
type ChannelStats struct {
	Channel      model.Channel            `json:"channel"`
	Cycles       int64                    `json:"cycles"`
	Failures     int64                    `json:"failures"`
	ByCategory   map[model.Category]int64 `json:"by_category"`
	LastCategory model.Category           `json:"last_category,omitempty"`
	LastStarted  time.Time                `json:"last_started"`
	LastDuration time.Duration            `json:"last_duration_ns"`
	LastError    string                   `json:"last_error,omitempty"`
}

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Reporter observes scheduler cycles. It keeps per-channel stats in memory
// and, when a stream client is set, publishes every cycle to a redis stream.
type Reporter struct {
	mu     sync.RWMutex
	stats  map[model.Channel]*ChannelStats
	client streamAdder
	stream string
}

var _ scheduler.Observer = (*Reporter)(nil)

// NewReporter creates a Reporter. client may be nil.
func NewReporter(client streamAdder, stream string) *Reporter {
	return &Reporter{
		stats:  make(map[model.Channel]*ChannelStats),
		client: client,
		stream: stream,
	}
}

func (r *Reporter) CycleCompleted(ctx context.Context, res scheduler.CycleResult) {
	r.record(res)

	if r.client == nil || r.stream == "" {
		return
	}

	fields := map[string]any{
		"channel":     string(res.Channel),
		"category":    string(res.Category),
		"cycle":       res.Cycle,
		"started_at":  res.Started.UTC().Format(time.RFC3339Nano),
		"duration_ms": res.Duration.Milliseconds(),
		"ok":          res.Err == nil,
	}
	if res.Err != nil {
		fields["error"] = res.Err.Error()
	}

	if err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: fields,
	}).Err(); err != nil {
		slog.WarnContext(ctx, "failed to publish cycle status", "stream", r.stream, "error", err)
	}
}

func (r *Reporter) record(res scheduler.CycleResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.stats[res.Channel]
	if !ok {
		st = &ChannelStats{Channel: res.Channel, ByCategory: make(map[model.Category]int64)}
		r.stats[res.Channel] = st
	}

	st.Cycles++
	st.ByCategory[res.Category]++
	st.LastCategory = res.Category
	st.LastStarted = res.Started
	st.LastDuration = res.Duration
	st.LastError = ""
	if res.Err != nil {
		st.Failures++
		st.LastError = res.Err.Error()
	}
}

// Snapshot returns a copy of all channel stats ordered by channel name.
func (r *Reporter) Snapshot() []ChannelStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ChannelStats, 0, len(r.stats))
	for _, st := range r.stats {
		cp := *st
		cp.ByCategory = make(map[model.Category]int64, len(st.ByCategory))
		for k, v := range st.ByCategory {
			cp.ByCategory[k] = v
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Channel < out[j].Channel })
	return out
}
