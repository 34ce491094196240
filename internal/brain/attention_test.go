package brain_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cornip/Rina/common/llm"
	"github.com/cornip/Rina/internal/brain"
	"github.com/cornip/Rina/internal/model"
)

var _ = Describe("AttentionEngine", func() {
	var (
		ctx    context.Context
		scorer *mockScorer
		engine *brain.AttentionEngine
		actx   model.ActionContext
	)

	BeforeEach(func() {
		ctx = context.Background()
		scorer = &mockScorer{}
		engine = brain.NewAttentionEngine(scorer, "@Rina")
		actx = model.ActionContext{
			ItemID:  "1",
			Content: "@rina what do you think?",
			Author:  "alice",
			Channel: model.ChannelSocial,
		}
	})

	DescribeTable("follows the scorer verdict for every engagement kind",
		func(kind model.EngagementKind) {
			var seen model.EngagementKind
			scorer.scoreFn = func(_ context.Context, _ model.ActionContext, k model.EngagementKind) (model.Verdict, error) {
				seen = k
				return model.VerdictAct, nil
			}

			Expect(engine.Evaluate(ctx, actx, kind)).To(Equal(model.VerdictAct))
			Expect(seen).To(Equal(kind))
		},
		Entry("reply", model.EngageReply),
		Entry("like", model.EngageLike),
		Entry("retweet", model.EngageRetweet),
		Entry("quote", model.EngageQuote),
	)

	It("ignores when the scorer says ignore", func() {
		scorer.scoreFn = func(context.Context, model.ActionContext, model.EngagementKind) (model.Verdict, error) {
			return model.VerdictIgnore, nil
		}
		Expect(engine.Evaluate(ctx, actx, model.EngageReply)).To(Equal(model.VerdictIgnore))
	})

	It("fails closed when the scorer errors", func() {
		scorer.scoreFn = func(context.Context, model.ActionContext, model.EngagementKind) (model.Verdict, error) {
			return model.VerdictAct, errors.New("model unavailable")
		}
		Expect(engine.Evaluate(ctx, actx, model.EngageReply)).To(Equal(model.VerdictIgnore))
	})

	DescribeTable("ignores self-authored items without scoring",
		func(author string) {
			actx.Author = author
			Expect(engine.Evaluate(ctx, actx, model.EngageReply)).To(Equal(model.VerdictIgnore))
			Expect(scorer.calls).To(BeZero())
		},
		Entry("exact", "Rina"),
		Entry("lower case", "rina"),
		Entry("with @", "@RINA"),
	)

	It("ignores empty content without scoring", func() {
		actx.Content = "   "
		Expect(engine.Evaluate(ctx, actx, model.EngageLike)).To(Equal(model.VerdictIgnore))
		Expect(scorer.calls).To(BeZero())
	})

	It("treats unknown verdicts as ignore", func() {
		scorer.scoreFn = func(context.Context, model.ActionContext, model.EngagementKind) (model.Verdict, error) {
			return model.Verdict("maybe"), nil
		}
		Expect(engine.Evaluate(ctx, actx, model.EngageQuote)).To(Equal(model.VerdictIgnore))
	})
})

var _ = Describe("LLMScorer", func() {
	var (
		ctx    context.Context
		client *mockLLMClient
		scorer *brain.LLMScorer
		actx   model.ActionContext
	)

	respond := func(act bool) func(context.Context, llm.Request, any) (*llm.Response, error) {
		return func(_ context.Context, _ llm.Request, result any) (*llm.Response, error) {
			data, _ := json.Marshal(brain.ScoreResponse{Act: act, Reason: "test"})
			return &llm.Response{}, json.Unmarshal(data, result)
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		client = &mockLLMClient{}
		scorer = brain.NewLLMScorer(client, "rina")
		actx = model.ActionContext{
			Content:   "@rina gm",
			Author:    "alice",
			Mentioned: map[string]struct{}{"rina": {}},
			History:   []model.HistoryEntry{{ID: "p1", Text: "earlier post"}},
			Channel:   model.ChannelSocial,
			Origin:    "mentions",
		}
	})

	It("maps act=true to VerdictAct", func() {
		client.chatFn = respond(true)
		verdict, err := scorer.Score(ctx, actx, model.EngageReply)

		Expect(err).NotTo(HaveOccurred())
		Expect(verdict).To(Equal(model.VerdictAct))
	})

	It("maps act=false to VerdictIgnore", func() {
		client.chatFn = respond(false)
		verdict, err := scorer.Score(ctx, actx, model.EngageLike)

		Expect(err).NotTo(HaveOccurred())
		Expect(verdict).To(Equal(model.VerdictIgnore))
	})

	It("sends the thread and engagement kind in the prompt", func() {
		client.chatFn = respond(true)
		_, _ = scorer.Score(ctx, actx, model.EngageRetweet)

		Expect(client.requests).To(HaveLen(1))
		req := client.requests[0]
		Expect(req.SchemaName).To(Equal("engagement_decision"))
		Expect(req.SystemPrompt).To(ContainSubstring("@rina"))
		Expect(req.UserPrompt).To(ContainSubstring("Engagement: retweet"))
		Expect(req.UserPrompt).To(ContainSubstring("- [p1] earlier post"))
		Expect(req.UserPrompt).To(ContainSubstring("Mentions: @rina"))
		Expect(*req.Temperature).To(BeZero())
	})

	It("wraps client errors", func() {
		client.chatFn = func(context.Context, llm.Request, any) (*llm.Response, error) {
			return nil, llm.ErrEmptyResponse
		}
		verdict, err := scorer.Score(ctx, actx, model.EngageReply)

		Expect(err).To(MatchError(llm.ErrEmptyResponse))
		Expect(verdict).To(Equal(model.VerdictIgnore))
	})
})
