package brain

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cornip/Rina/internal/model"
)

// Scorer decides whether an item deserves a given engagement.
type Scorer interface {
	Score(ctx context.Context, actx model.ActionContext, kind model.EngagementKind) (model.Verdict, error)
}

// AttentionEngine gates every engagement the agent makes.
type AttentionEngine struct {
	scorer    Scorer
	selfNames map[string]struct{}
}

// NewAttentionEngine builds an engine that never engages with items
// authored by any of selfNames (compared case-insensitively, without "@").
func NewAttentionEngine(scorer Scorer, selfNames ...string) *AttentionEngine {
	names := make(map[string]struct{}, len(selfNames))
	for _, n := range selfNames {
		if n = normalizeHandle(n); n != "" {
			names[n] = struct{}{}
		}
	}
	return &AttentionEngine{scorer: scorer, selfNames: names}
}

// Evaluate returns VerdictAct only when the scorer says so. Self-authored
// and empty items are ignored without consulting the scorer, and a scorer
// error is treated as Ignore.
func (e *AttentionEngine) Evaluate(ctx context.Context, actx model.ActionContext, kind model.EngagementKind) model.Verdict {
	if e.IsSelf(actx.Author) {
		slog.DebugContext(ctx, "ignoring self-authored item", "kind", kind)
		return model.VerdictIgnore
	}
	if strings.TrimSpace(actx.Content) == "" {
		slog.DebugContext(ctx, "ignoring empty item", "kind", kind)
		return model.VerdictIgnore
	}

	verdict, err := e.scorer.Score(ctx, actx, kind)
	if err != nil {
		slog.WarnContext(ctx, "attention scoring failed, ignoring item",
			"kind", kind,
			"error", err)
		return model.VerdictIgnore
	}
	if verdict != model.VerdictAct {
		return model.VerdictIgnore
	}
	return model.VerdictAct
}

// IsSelf reports whether author is one of the agent's own handles.
func (e *AttentionEngine) IsSelf(author string) bool {
	_, ok := e.selfNames[normalizeHandle(author)]
	return ok
}

func normalizeHandle(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}
