package social

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cornip/Rina/common/llm"
	"github.com/cornip/Rina/common/logger"
	"github.com/cornip/Rina/core/config"
	"github.com/cornip/Rina/internal/brain"
	"github.com/cornip/Rina/internal/gateway"
	"github.com/cornip/Rina/internal/model"
	"github.com/cornip/Rina/internal/scheduler"
	"github.com/cornip/Rina/internal/status"
)

const (
	postPrompt    = "Share a single brief thought or observation in one short sentence. Be direct and concise. No questions, hashtags, or emojis."
	concisePrompt = "Please keep your responses concise and under 280 characters."
	quotePrompt   = "Write a short comment to share alongside this post. Be direct and concise. No hashtags or emojis."
	timeLayout    = "03:04:05 PM, 2006-01-02"

	// DefaultPreamble is used when no persona is configured.
	DefaultPreamble = "You are a sharp, friendly voice on social media who follows crypto markets closely. " +
		"You speak plainly, stay on topic and never pretend to be human."

	originMention  = "mention"
	originTimeline = "timeline"

	similarLimit = 3
)

// MessageStore records inbound items in the semantic store and recalls
// similar ones.
type MessageStore interface {
	StoreMessage(ctx context.Context, item model.Item, channel model.Channel) error
	SimilarMessages(ctx context.Context, text string, k int) ([]model.Item, error)
}

// Attention gates every engagement.
type Attention interface {
	Evaluate(ctx context.Context, actx model.ActionContext, kind model.EngagementKind) model.Verdict
}

type Deps struct {
	Gateway   gateway.Client
	Messages  MessageStore
	Attention Attention
	Prompter  llm.Prompter
	// Cache and Seen are optional.
	Cache ThreadCache
	Seen  status.SeenSet
}

// Channel is the social loop: publish, answer mentions, engage the timeline.
type Channel struct {
	cfg      config.SocialConfig
	preamble string
	deps     Deps
	now      func() time.Time
}

func New(cfg config.SocialConfig, preamble string, deps Deps) *Channel {
	if preamble == "" {
		preamble = DefaultPreamble
	}
	if cfg.MaxThreadDepth <= 0 {
		cfg.MaxThreadDepth = brain.DefaultMaxThreadDepth
	}
	return &Channel{
		cfg:      cfg,
		preamble: preamble,
		deps:     deps,
		now:      time.Now,
	}
}

func (c *Channel) Behaviors() []scheduler.Behavior {
	return []scheduler.Behavior{
		{Category: model.CategoryPost, Weight: c.cfg.Weights.Post, Run: c.PostNew},
		{Category: model.CategoryTimeline, Weight: c.cfg.Weights.Timeline, Run: c.ProcessTimeline},
		{Category: model.CategoryMentions, Weight: c.cfg.Weights.Mentions, Run: c.ProcessMentions},
	}
}

// PostNew publishes one freshly generated thought.
func (c *Channel) PostNew(ctx context.Context, _ *scheduler.Pacer) error {
	text, err := c.generate(ctx, postPrompt, "")
	if err != nil {
		return fmt.Errorf("generate post: %w", err)
	}
	if text == "" {
		slog.WarnContext(ctx, "generated post was empty, skipping")
		return nil
	}

	id, err := c.deps.Gateway.Post(ctx, text, "")
	if err != nil {
		return fmt.Errorf("publish post: %w", err)
	}
	slog.InfoContext(ctx, "post published", "post_id", id, "length", len([]rune(text)))
	return nil
}

// ProcessMentions answers recent mentions of the agent, one at a time.
func (c *Channel) ProcessMentions(ctx context.Context, pace *scheduler.Pacer) error {
	mentions, err := c.deps.Gateway.Search(ctx, "@"+c.cfg.Username, c.cfg.MentionLimit)
	if err != nil {
		return fmt.Errorf("search mentions: %w", err)
	}
	slog.DebugContext(ctx, "fetched mentions", "count", len(mentions))

	for _, item := range mentions {
		if !c.markSeen(ctx, item.ID) {
			continue
		}

		itemCtx := logger.WithLogFields(ctx, logger.LogFields{ItemID: logger.Ptr(item.ID)})
		if !c.handleMention(itemCtx, item) {
			c.release(itemCtx, item.ID)
		}

		if err := pace.BetweenItems(ctx); err != nil {
			return err
		}
	}
	return nil
}

// handleMention reports whether the mention is settled: answered, or
// judged not worth answering. Anything else is retried next cycle.
func (c *Channel) handleMention(ctx context.Context, item model.Item) bool {
	if err := c.deps.Messages.StoreMessage(ctx, item, model.ChannelSocial); err != nil {
		slog.ErrorContext(ctx, "failed to store mention, skipping", "error", err)
		return false
	}

	lookup := newCachedLookup(c.deps.Cache, c.deps.Gateway)
	lookup.warmFrom(ctx, item.ParentID, c.cfg.MaxThreadDepth)

	chain := brain.BuildThread(ctx, item, lookup, c.cfg.MaxThreadDepth)
	lookup.remember(ctx, chain...)

	actx := brain.BuildActionContext(chain, model.ChannelSocial, originMention)
	slog.DebugContext(ctx, "built action context",
		"thread_length", len(chain),
		"mentioned", actx.MentionedNames())

	if c.deps.Attention.Evaluate(ctx, actx, model.EngageReply) != model.VerdictAct {
		slog.DebugContext(ctx, "decided not to reply")
		return true
	}

	reply, err := c.generate(ctx, item.Text, item.Author, c.replyContext(ctx, chain)...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate reply", "error", err)
		return false
	}
	if reply == "" {
		slog.WarnContext(ctx, "generated reply was empty, skipping")
		return false
	}

	// Once any chunk is out, a retry would duplicate it.
	return c.replyChain(ctx, item.ID, reply) > 0
}

// replyContext describes the thread and similar past messages. Recall
// failures only cost context.
func (c *Channel) replyContext(ctx context.Context, chain []model.Item) []string {
	var docs []string

	if len(chain) > 1 {
		var b strings.Builder
		b.WriteString("Conversation so far:")
		for _, it := range chain[:len(chain)-1] {
			fmt.Fprintf(&b, "\n@%s: %s", it.Author, it.Text)
		}
		docs = append(docs, b.String())
	}

	leaf := chain[len(chain)-1]
	similar, err := c.deps.Messages.SimilarMessages(ctx, leaf.Text, similarLimit+1)
	if err != nil {
		slog.WarnContext(ctx, "failed to recall similar messages", "error", err)
		return docs
	}

	var b strings.Builder
	n := 0
	for _, it := range similar {
		if it.ID == leaf.ID || n == similarLimit {
			continue
		}
		if n == 0 {
			b.WriteString("Related messages you have seen:")
		}
		fmt.Fprintf(&b, "\n@%s: %s", it.Author, it.Text)
		n++
	}
	if n > 0 {
		docs = append(docs, b.String())
	}
	return docs
}

// replyChain posts text in post-sized chunks, each replying to the one
// before it. It stops at the first failed chunk and returns how many chunks
// were posted.
func (c *Channel) replyChain(ctx context.Context, replyTo, text string) int {
	chunks := brain.ChunkText(text, brain.MaxPostRunes)
	for i, chunk := range chunks {
		id, err := c.deps.Gateway.Post(ctx, chunk, replyTo)
		if err != nil {
			slog.ErrorContext(ctx, "failed to post reply", "chunk", i+1, "chunks", len(chunks), "error", err)
			return i
		}
		if id != "" {
			replyTo = id
		}
	}
	slog.InfoContext(ctx, "reply posted", "chunks", len(chunks))
	return len(chunks)
}

// ProcessTimeline evaluates like, retweet and quote independently for each
// timeline item.
func (c *Channel) ProcessTimeline(ctx context.Context, pace *scheduler.Pacer) error {
	items, err := c.deps.Gateway.Timeline(ctx, c.cfg.TimelineLimit)
	if err != nil {
		return fmt.Errorf("fetch timeline: %w", err)
	}
	slog.DebugContext(ctx, "fetched timeline", "count", len(items))

	for _, item := range items {
		key := "timeline:" + item.ID
		if !c.markSeen(ctx, key) {
			continue
		}

		itemCtx := logger.WithLogFields(ctx, logger.LogFields{ItemID: logger.Ptr(item.ID)})
		if !c.engage(itemCtx, item) {
			c.release(itemCtx, key)
		}

		if err := pace.BetweenItems(ctx); err != nil {
			return err
		}
	}
	return nil
}

// engage reports whether the item is settled. It is retried next cycle only
// when something failed and nothing went out, so no engagement repeats.
func (c *Channel) engage(ctx context.Context, item model.Item) bool {
	actx := brain.BuildActionContext([]model.Item{item}, model.ChannelSocial, originTimeline)
	var done, failed bool

	if c.deps.Attention.Evaluate(ctx, actx, model.EngageLike) == model.VerdictAct {
		if err := c.deps.Gateway.Like(ctx, item.ID); err != nil {
			slog.ErrorContext(ctx, "failed to like item", "error", err)
			failed = true
		} else {
			done = true
		}
	}

	if c.deps.Attention.Evaluate(ctx, actx, model.EngageRetweet) == model.VerdictAct {
		if err := c.deps.Gateway.Retweet(ctx, item.ID); err != nil {
			slog.ErrorContext(ctx, "failed to retweet item", "error", err)
			failed = true
		} else {
			done = true
		}
	}

	if c.deps.Attention.Evaluate(ctx, actx, model.EngageQuote) == model.VerdictAct {
		if c.quote(ctx, item) {
			done = true
		} else {
			failed = true
		}
	}

	return done || !failed
}

func (c *Channel) quote(ctx context.Context, item model.Item) bool {
	comment, err := c.generate(ctx, quotePrompt+"\n\n"+item.Text, item.Author)
	if err != nil || comment == "" {
		slog.ErrorContext(ctx, "failed to generate quote", "error", err)
		return false
	}
	if len([]rune(comment)) > brain.MaxPostRunes {
		comment = brain.ChunkText(comment, brain.MaxPostRunes)[0]
	}
	if _, err := c.deps.Gateway.Quote(ctx, comment, item.ID); err != nil {
		slog.ErrorContext(ctx, "failed to quote item", "error", err)
		return false
	}
	return true
}

// generate prompts with the current time, a length hint and any extra
// context, and returns sanitized text.
func (c *Channel) generate(ctx context.Context, text, author string, extra ...string) (string, error) {
	docs := append([]string{
		"Current time: " + c.now().Format(timeLayout),
		concisePrompt,
	}, extra...)

	raw, err := c.deps.Prompter.Prompt(ctx, text, llm.PromptOptions{
		Preamble: c.preamble,
		Context:  docs,
		Author:   author,
	})
	if err != nil {
		return "", err
	}

	clean, stripped := brain.SanitizePost(raw)
	if stripped > 0 {
		slog.DebugContext(ctx, "stripped hashtags from generated text", "count", stripped)
	}
	return clean, nil
}

// release forgets key so the next cycle sees the item again.
func (c *Channel) release(ctx context.Context, key string) {
	if c.deps.Seen == nil {
		return
	}
	if err := c.deps.Seen.Forget(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to release item for retry", "key", key, "error", err)
	}
}

// markSeen reports whether key is new. Without a seen set everything is new;
// a failing seen set is treated the same way.
func (c *Channel) markSeen(ctx context.Context, key string) bool {
	if c.deps.Seen == nil {
		return true
	}
	fresh, err := c.deps.Seen.MarkSeen(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "seen set unavailable", "key", key, "error", err)
		return true
	}
	return fresh
}
