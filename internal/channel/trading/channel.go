package trading

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cornip/Rina/common/id"
	"github.com/cornip/Rina/common/llm"
	"github.com/cornip/Rina/common/logger"
	"github.com/cornip/Rina/core/config"
	"github.com/cornip/Rina/internal/brain"
	"github.com/cornip/Rina/internal/execution"
	"github.com/cornip/Rina/internal/market"
	"github.com/cornip/Rina/internal/model"
	"github.com/cornip/Rina/internal/recorder"
	"github.com/cornip/Rina/internal/scheduler"
)

// History returns prior records for a wallet, newest first.
type History interface {
	RecentRecommendations(ctx context.Context, subjectID string, limit int) ([]model.ActionRecord, error)
}

// Committer persists a finished record.
type Committer interface {
	Commit(ctx context.Context, rec model.ActionRecord) recorder.CommitOutcome
}

type Deps struct {
	Market   market.Client
	History  History
	Prompter llm.Prompter
	// Executor may be nil, in which case commands are recorded but never run.
	Executor execution.Executor
	Recorder Committer
}

// Channel is the trading loop: read market state, ask the model for one
// recommendation, optionally execute it, and record it.
type Channel struct {
	cfg      config.TradingConfig
	preamble string
	deps     Deps
	now      func() time.Time
	newID    func() int64
}

func New(cfg config.TradingConfig, preamble string, deps Deps) *Channel {
	if preamble == "" {
		preamble = DefaultPreamble
	}
	return &Channel{
		cfg:      cfg,
		preamble: preamble,
		deps:     deps,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    id.New,
	}
}

func (c *Channel) Behaviors() []scheduler.Behavior {
	return []scheduler.Behavior{
		{Category: model.CategoryTrends, Weight: c.cfg.Weights.Trends, Run: c.EvaluateTrends},
		{Category: model.CategoryHoldings, Weight: c.cfg.Weights.Holdings, Run: c.EvaluateHoldings},
	}
}

// EvaluateTrends asks for a recommendation over the current swap rankings.
func (c *Channel) EvaluateTrends(ctx context.Context, _ *scheduler.Pacer) error {
	rankings, err := c.deps.Market.SwapRankings(ctx, c.cfg.Period, c.cfg.Launchpad, c.cfg.RankingLimit)
	if err != nil {
		return fmt.Errorf("get token rankings: %w", err)
	}
	slog.DebugContext(ctx, "fetched token rankings", "count", len(rankings), "period", c.cfg.Period)

	history := c.recentHistory(ctx)
	_, err = c.decide(ctx, trendsPrompt(rankings, history))
	return err
}

// EvaluateHoldings asks for a recommendation over the wallet's positions.
func (c *Channel) EvaluateHoldings(ctx context.Context, _ *scheduler.Pacer) error {
	holdings, err := c.deps.Market.WalletHoldings(ctx, c.cfg.WalletAddress)
	if err != nil {
		return fmt.Errorf("get wallet holdings: %w", err)
	}
	slog.DebugContext(ctx, "fetched wallet holdings", "count", len(holdings))

	history := c.recentHistory(ctx)
	_, err = c.decide(ctx, holdingsPrompt(holdings, history))
	return err
}

// recentHistory never fails: a lookup error yields an empty history.
func (c *Channel) recentHistory(ctx context.Context) []model.ActionRecord {
	if c.deps.History == nil {
		return []model.ActionRecord{}
	}
	records, err := c.deps.History.RecentRecommendations(ctx, c.cfg.WalletAddress, c.cfg.HistoryLimit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch recent records", "error", err)
		return []model.ActionRecord{}
	}
	return records
}

// decide prompts, parses, executes and records. It returns the committed
// record, or nil when the output was not a recommendation.
func (c *Channel) decide(ctx context.Context, prompt string) (*model.ActionRecord, error) {
	raw, err := c.deps.Prompter.Prompt(ctx, prompt, llm.PromptOptions{Preamble: c.preamble})
	if err != nil {
		return nil, fmt.Errorf("generate recommendation: %w", err)
	}
	slog.DebugContext(ctx, "model recommendation", "response", raw)

	parsed := brain.ParseRecommendation(raw, c.cfg.WalletAddress, c.now())
	if !parsed.Decoded {
		slog.WarnContext(ctx, "model output was not a recommendation, skipping", "response", raw)
		return nil, nil
	}

	rec := parsed.Record
	rec.ID = c.newID()
	rec.Channel = model.ChannelTrading

	ctx = logger.WithLogFields(ctx, logger.LogFields{RecordID: logger.Ptr(rec.ID)})

	if parsed.Command != "" {
		c.execute(ctx, &rec, parsed.Command)
	}

	outcome := c.deps.Recorder.Commit(ctx, rec)
	if !outcome.OK() {
		slog.WarnContext(ctx, "record partially persisted",
			"semantic_ok", outcome.SemanticErr == nil,
			"structured_ok", outcome.StructuredErr == nil)
	}
	return &rec, nil
}

func (c *Channel) execute(ctx context.Context, rec *model.ActionRecord, command string) {
	if c.deps.Executor == nil {
		slog.InfoContext(ctx, "no executor configured, recording command only", "command", command)
		return
	}

	proof, err := c.deps.Executor.Execute(ctx, command)
	if err != nil {
		slog.ErrorContext(ctx, "failed to execute trading action", "command", command, "error", err)
		return
	}
	rec.AttachProof(proof)
	slog.InfoContext(ctx, "trading action executed", "command", command, "proof", proof)
}
