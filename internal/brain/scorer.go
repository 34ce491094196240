package brain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cornip/Rina/common/llm"
	"github.com/cornip/Rina/internal/model"
)

type ScoreResponse struct {
	Act    bool   `json:"act" jsonschema_description:"True if the agent should perform the engagement"`
	Reason string `json:"reason" jsonschema_description:"One short sentence explaining the decision"`
}

var scoreSchema = llm.GenerateSchema[ScoreResponse]()

// LLMScorer asks a structured-output model for an engagement decision.
type LLMScorer struct {
	llm      llm.Client
	selfName string
}

func NewLLMScorer(client llm.Client, selfName string) *LLMScorer {
	return &LLMScorer{llm: client, selfName: normalizeHandle(selfName)}
}

func (s *LLMScorer) Score(ctx context.Context, actx model.ActionContext, kind model.EngagementKind) (model.Verdict, error) {
	var resp ScoreResponse
	_, err := s.llm.Chat(ctx, llm.Request{
		SystemPrompt: fmt.Sprintf(scoreSystemPrompt, s.selfName),
		UserPrompt:   s.buildPrompt(actx, kind),
		SchemaName:   "engagement_decision",
		Schema:       scoreSchema,
		Temperature:  llm.Temp(0),
	}, &resp)
	if err != nil {
		return model.VerdictIgnore, fmt.Errorf("scoring %s: %w", kind, err)
	}

	if resp.Act {
		return model.VerdictAct, nil
	}
	return model.VerdictIgnore, nil
}

func (s *LLMScorer) buildPrompt(actx model.ActionContext, kind model.EngagementKind) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Engagement: %s\n", kind)
	fmt.Fprintf(&b, "Channel: %s\n", actx.Channel)
	if actx.Origin != "" {
		fmt.Fprintf(&b, "Origin: %s\n", actx.Origin)
	}
	if actx.Author != "" {
		fmt.Fprintf(&b, "Author: @%s\n", normalizeHandle(actx.Author))
	}
	if len(actx.Mentioned) > 0 {
		names := actx.MentionedNames()
		for i := range names {
			names[i] = "@" + names[i]
		}
		fmt.Fprintf(&b, "Mentions: %s\n", strings.Join(names, ", "))
	}

	if len(actx.History) > 0 {
		b.WriteString("\nEarlier in the thread (oldest first):\n")
		for _, h := range actx.History {
			fmt.Fprintf(&b, "- [%s] %s\n", h.ID, h.Text)
		}
	}

	fmt.Fprintf(&b, "\nMessage:\n%s\n", actx.Content)
	fmt.Fprintf(&b, "\nCurrent time: %s\n", time.Now().UTC().Format(time.RFC3339))
	return b.String()
}

const scoreSystemPrompt = `You decide whether the account @%[1]s should engage with a social post.

Engage only when the post is addressed to @%[1]s or is a conversation @%[1]s is already part of,
and a response would add something. Do not engage with spam, hostility, or posts clearly aimed
at someone else. For like, retweet and quote, engage only with posts worth amplifying.`
