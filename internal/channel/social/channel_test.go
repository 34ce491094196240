package social

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cornip/Rina/common/arangodb"
	"github.com/cornip/Rina/core/config"
	"github.com/cornip/Rina/internal/model"
	"github.com/cornip/Rina/internal/scheduler"
)

var _ = Describe("Channel", func() {
	var (
		ctx       context.Context
		gw        *mockGateway
		messages  *mockMessages
		attention *mockAttention
		prompter  *mockPrompter
		cache     *mockCache
		seen      *mockSeen
		cfg       config.SocialConfig
		ch        *Channel
		pace      *scheduler.Pacer
		now       time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		gw = newMockGateway()
		messages = &mockMessages{}
		attention = &mockAttention{verdicts: map[model.EngagementKind]model.Verdict{}}
		prompter = &mockPrompter{response: "sounds good"}
		cache = newMockCache()
		seen = &mockSeen{seen: map[string]bool{}}
		cfg = config.SocialConfig{
			Username:       "agent",
			MentionLimit:   10,
			TimelineLimit:  5,
			MaxThreadDepth: 10,
			Weights:        config.SocialWeights{Post: 3, Timeline: 1, Mentions: 2},
		}
		pace = scheduler.NewPacer(config.PacingConfig{}, nil, nil)
		now = time.Date(2024, 5, 1, 15, 4, 5, 0, time.UTC)
	})

	JustBeforeEach(func() {
		ch = New(cfg, "You are agent.", Deps{
			Gateway:   gw,
			Messages:  messages,
			Attention: attention,
			Prompter:  prompter,
			Cache:     cache,
			Seen:      seen,
		})
		ch.now = func() time.Time { return now }
	})

	It("exposes the three behaviors with configured weights", func() {
		behaviors := ch.Behaviors()
		Expect(behaviors).To(HaveLen(3))
		Expect(behaviors[0].Category).To(Equal(model.CategoryPost))
		Expect(behaviors[0].Weight).To(Equal(3))
		Expect(behaviors[1].Category).To(Equal(model.CategoryTimeline))
		Expect(behaviors[2].Category).To(Equal(model.CategoryMentions))
		Expect(behaviors[2].Weight).To(Equal(2))
	})

	Describe("PostNew", func() {
		It("publishes sanitized generated text with time and length context", func() {
			prompter.response = `"Quiet markets hide loud moves. #solana"`

			Expect(ch.PostNew(ctx, pace)).To(Succeed())

			Expect(gw.posts).To(Equal([]postCall{{Text: "Quiet markets hide loud moves."}}))
			Expect(prompter.texts[0]).To(Equal(postPrompt))
			Expect(prompter.opts[0].Preamble).To(Equal("You are agent."))
			Expect(prompter.opts[0].Context).To(Equal([]string{
				"Current time: 03:04:05 PM, 2024-05-01",
				"Please keep your responses concise and under 280 characters.",
			}))
		})

		It("skips empty output", func() {
			prompter.response = "   "
			Expect(ch.PostNew(ctx, pace)).To(Succeed())
			Expect(gw.posts).To(BeEmpty())
		})

		It("returns model failures", func() {
			prompter.err = errors.New("overloaded")
			Expect(ch.PostNew(ctx, pace)).To(MatchError(ContainSubstring("overloaded")))
		})
	})

	Describe("ProcessMentions", func() {
		var mention model.Item

		BeforeEach(func() {
			mention = model.Item{ID: "m3", Author: "alice", Text: "@agent what do you think?", ParentID: "m2"}
			gw.items["m2"] = model.Item{ID: "m2", Author: "bob", Text: "@alice thoughts?", ParentID: "m1"}
			cache.items["m1"] = arangodb.Item{ID: "m1", Author: "carol", Text: "root post"}
			gw.searchFn = func(_ context.Context, query string, limit int) ([]model.Item, error) {
				Expect(query).To(Equal("@agent"))
				Expect(limit).To(Equal(10))
				return []model.Item{mention}, nil
			}
			attention.verdicts[model.EngageReply] = model.VerdictAct
		})

		It("stores, threads, evaluates and replies", func() {
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(messages.stored).To(ConsistOf(HaveField("ID", "m3")))

			Expect(attention.kinds).To(Equal([]model.EngagementKind{model.EngageReply}))
			actx := attention.contexts[0]
			Expect(actx.ItemID).To(Equal("m3"))
			Expect(actx.Author).To(Equal("alice"))
			Expect(actx.Origin).To(Equal(originMention))
			Expect(actx.Mentioned).To(HaveKey("agent"))
			Expect(actx.History).To(Equal([]model.HistoryEntry{
				{ID: "m1", Text: "root post"},
				{ID: "m2", Text: "@alice thoughts?"},
			}))

			Expect(gw.fetched).To(Equal([]string{"m2"}))
			Expect(cache.ingested).To(HaveLen(3))

			Expect(prompter.texts).To(Equal([]string{mention.Text}))
			Expect(prompter.opts[0].Author).To(Equal("alice"))
			Expect(gw.posts).To(Equal([]postCall{{Text: "sounds good", ReplyTo: "m3"}}))
		})

		It("adds the thread and similar messages as reply context", func() {
			messages.similar = []model.Item{
				{ID: "m3", Author: "alice", Text: "@agent what do you think?"},
				{ID: "old-1", Author: "erin", Text: "asked the same last week"},
			}

			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(messages.queries).To(Equal([]string{mention.Text}))
			docs := prompter.opts[0].Context
			Expect(docs).To(HaveLen(4))
			Expect(docs[2]).To(Equal("Conversation so far:\n@carol: root post\n@bob: @alice thoughts?"))
			Expect(docs[3]).To(Equal("Related messages you have seen:\n@erin: asked the same last week"))
		})

		It("replies without recall context when similarity search fails", func() {
			messages.similarErr = errors.New("vector search down")

			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(prompter.opts[0].Context).To(HaveLen(3))
			Expect(gw.posts).To(HaveLen(1))
		})

		It("chains long replies in post-sized chunks", func() {
			prompter.response = strings.Repeat("a", 300)

			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(gw.posts).To(HaveLen(2))
			Expect(gw.posts[0].Text).To(HaveLen(280))
			Expect(gw.posts[0].ReplyTo).To(Equal("m3"))
			Expect(gw.posts[1].Text).To(HaveLen(20))
			Expect(gw.posts[1].ReplyTo).To(Equal("posted-1"))
		})

		It("stops the chain at the first failed chunk", func() {
			prompter.response = strings.Repeat("b", 600)
			gw.postErrAt = 1

			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())
			Expect(gw.posts).To(HaveLen(1))
		})

		It("skips the item when storing it fails", func() {
			messages.err = errors.New("embedding quota")

			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(attention.contexts).To(BeEmpty())
			Expect(gw.posts).To(BeEmpty())
		})

		It("does not reply when attention ignores", func() {
			attention.verdicts[model.EngageReply] = model.VerdictIgnore

			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(prompter.texts).To(BeEmpty())
			Expect(gw.posts).To(BeEmpty())
		})

		It("handles each mention at most once", func() {
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(messages.stored).To(HaveLen(1))
			Expect(gw.posts).To(HaveLen(1))
		})

		It("answers a mention on the next cycle after a model failure", func() {
			prompter.err = errors.New("model overloaded")
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())
			Expect(gw.posts).To(BeEmpty())
			Expect(seen.forgotten).To(Equal([]string{"m3"}))

			prompter.err = nil
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(prompter.texts).To(HaveLen(2))
			Expect(gw.posts).To(Equal([]postCall{{Text: "sounds good", ReplyTo: "m3"}}))
			Expect(seen.seen).To(HaveKey("m3"))
		})

		It("retries a mention whose message could not be stored", func() {
			messages.err = errors.New("embedding quota")
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			messages.err = nil
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(messages.stored).To(HaveLen(1))
			Expect(gw.posts).To(HaveLen(1))
		})

		It("retries when the first reply chunk is rejected", func() {
			gw.postErrAt = 0
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())
			Expect(gw.posts).To(BeEmpty())

			gw.postErrAt = -1
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())
			Expect(gw.posts).To(HaveLen(1))
		})

		It("settles a mention once part of the reply is posted", func() {
			prompter.response = strings.Repeat("b", 600)
			gw.postErrAt = 1
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			gw.postErrAt = -1
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(gw.posts).To(HaveLen(1))
			Expect(seen.forgotten).To(BeEmpty())
		})

		It("settles a mention that attention ignores", func() {
			attention.verdicts[model.EngageReply] = model.VerdictIgnore
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())
			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(attention.contexts).To(HaveLen(1))
			Expect(seen.forgotten).To(BeEmpty())
		})

		It("still processes mentions when the seen set fails", func() {
			seen.err = errors.New("redis down")

			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())
			Expect(gw.posts).To(HaveLen(1))
		})

		It("keeps the partial thread when a parent is missing", func() {
			delete(gw.items, "m2")

			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(attention.contexts[0].History).To(BeEmpty())
			Expect(gw.posts).To(HaveLen(1))
		})

		It("falls back to the network when the cache errors", func() {
			cache.getErr = errors.New("arango unavailable")
			gw.items["m1"] = model.Item{ID: "m1", Text: "root from network"}

			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(gw.fetched).To(Equal([]string{"m2", "m1"}))
			Expect(attention.contexts[0].History[0].Text).To(Equal("root from network"))
		})

		It("resolves cached ancestors with one traversal", func() {
			cache.getErr = errors.New("per-item lookups disabled")
			cache.ancestors["m2"] = []arangodb.Item{{ID: "m1", Author: "carol", Text: "root post"}}

			Expect(ch.ProcessMentions(ctx, pace)).To(Succeed())

			Expect(cache.walkedFor).To(Equal([]string{"m2"}))
			Expect(gw.fetched).To(Equal([]string{"m2"}))
			Expect(attention.contexts[0].History).To(HaveLen(2))
		})

		It("aborts the step when the search fails", func() {
			gw.searchFn = func(context.Context, string, int) ([]model.Item, error) {
				return nil, errors.New("rate limited")
			}

			Expect(ch.ProcessMentions(ctx, pace)).To(MatchError(ContainSubstring("rate limited")))
		})

		It("stops between items when the context ends", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Expect(ch.ProcessMentions(cctx, pace)).To(MatchError(context.Canceled))
		})
	})

	Describe("ProcessTimeline", func() {
		BeforeEach(func() {
			gw.timelineFn = func(_ context.Context, limit int) ([]model.Item, error) {
				Expect(limit).To(Equal(5))
				return []model.Item{{ID: "t1", Author: "dave", Text: "new pool launched"}}, nil
			}
		})

		It("evaluates every engagement kind independently", func() {
			attention.verdicts[model.EngageLike] = model.VerdictAct
			attention.verdicts[model.EngageQuote] = model.VerdictAct
			prompter.response = "worth a look"

			Expect(ch.ProcessTimeline(ctx, pace)).To(Succeed())

			Expect(attention.kinds).To(Equal([]model.EngagementKind{
				model.EngageLike, model.EngageRetweet, model.EngageQuote,
			}))
			Expect(attention.contexts[0].Origin).To(Equal(originTimeline))
			Expect(gw.likes).To(Equal([]string{"t1"}))
			Expect(gw.retweet).To(BeEmpty())
			Expect(gw.quotes).To(Equal([]postCall{{Text: "worth a look", ReplyTo: "t1"}}))
		})

		It("retries an item when every attempted engagement failed", func() {
			attention.verdicts[model.EngageLike] = model.VerdictAct
			gw.likeErr = errors.New("rate limited")
			Expect(ch.ProcessTimeline(ctx, pace)).To(Succeed())
			Expect(seen.forgotten).To(Equal([]string{"timeline:t1"}))

			gw.likeErr = nil
			Expect(ch.ProcessTimeline(ctx, pace)).To(Succeed())
			Expect(gw.likes).To(Equal([]string{"t1"}))
		})

		It("settles an item once any engagement went out", func() {
			attention.verdicts[model.EngageLike] = model.VerdictAct
			attention.verdicts[model.EngageQuote] = model.VerdictAct
			prompter.err = errors.New("model overloaded")

			Expect(ch.ProcessTimeline(ctx, pace)).To(Succeed())
			Expect(ch.ProcessTimeline(ctx, pace)).To(Succeed())

			Expect(gw.likes).To(Equal([]string{"t1"}))
			Expect(seen.forgotten).To(BeEmpty())
		})

		It("does nothing when every verdict is ignore", func() {
			Expect(ch.ProcessTimeline(ctx, pace)).To(Succeed())

			Expect(gw.likes).To(BeEmpty())
			Expect(gw.retweet).To(BeEmpty())
			Expect(gw.quotes).To(BeEmpty())
			Expect(prompter.texts).To(BeEmpty())
		})
	})
})
