package social

import (
	"context"
	"fmt"

	"github.com/cornip/Rina/common/arangodb"
	"github.com/cornip/Rina/common/llm"
	"github.com/cornip/Rina/internal/model"
)

type postCall struct {
	Text    string
	ReplyTo string
}

type mockGateway struct {
	searchFn   func(ctx context.Context, query string, limit int) ([]model.Item, error)
	timelineFn func(ctx context.Context, limit int) ([]model.Item, error)
	items      map[string]model.Item
	postErrAt  int
	likeErr    error

	fetched []string
	posts   []postCall
	quotes  []postCall
	likes   []string
	retweet []string
}

func newMockGateway() *mockGateway {
	return &mockGateway{items: map[string]model.Item{}, postErrAt: -1}
}

func (m *mockGateway) Search(ctx context.Context, query string, limit int) ([]model.Item, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockGateway) Timeline(ctx context.Context, limit int) ([]model.Item, error) {
	if m.timelineFn != nil {
		return m.timelineFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockGateway) GetItem(_ context.Context, id string) (model.Item, error) {
	m.fetched = append(m.fetched, id)
	if it, ok := m.items[id]; ok {
		return it, nil
	}
	return model.Item{}, model.ErrNotFound
}

func (m *mockGateway) Post(_ context.Context, text, replyTo string) (string, error) {
	if len(m.posts) == m.postErrAt {
		return "", fmt.Errorf("post rejected")
	}
	m.posts = append(m.posts, postCall{Text: text, ReplyTo: replyTo})
	return fmt.Sprintf("posted-%d", len(m.posts)), nil
}

func (m *mockGateway) Quote(_ context.Context, text, quotedID string) (string, error) {
	m.quotes = append(m.quotes, postCall{Text: text, ReplyTo: quotedID})
	return "quote-1", nil
}

func (m *mockGateway) Like(_ context.Context, id string) error {
	if m.likeErr != nil {
		return m.likeErr
	}
	m.likes = append(m.likes, id)
	return nil
}

func (m *mockGateway) Retweet(_ context.Context, id string) error {
	m.retweet = append(m.retweet, id)
	return nil
}

type mockMessages struct {
	err        error
	stored     []model.Item
	similar    []model.Item
	similarErr error
	queries    []string
}

func (m *mockMessages) StoreMessage(_ context.Context, item model.Item, _ model.Channel) error {
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, item)
	return nil
}

func (m *mockMessages) SimilarMessages(_ context.Context, text string, _ int) ([]model.Item, error) {
	m.queries = append(m.queries, text)
	return m.similar, m.similarErr
}

type mockAttention struct {
	verdicts map[model.EngagementKind]model.Verdict
	contexts []model.ActionContext
	kinds    []model.EngagementKind
}

func (m *mockAttention) Evaluate(_ context.Context, actx model.ActionContext, kind model.EngagementKind) model.Verdict {
	m.contexts = append(m.contexts, actx)
	m.kinds = append(m.kinds, kind)
	if v, ok := m.verdicts[kind]; ok {
		return v
	}
	return model.VerdictIgnore
}

type mockPrompter struct {
	response string
	err      error
	texts    []string
	opts     []llm.PromptOptions
}

func (m *mockPrompter) Prompt(_ context.Context, text string, opts llm.PromptOptions) (string, error) {
	m.texts = append(m.texts, text)
	m.opts = append(m.opts, opts)
	return m.response, m.err
}

func (m *mockPrompter) Model() string { return "test-model" }

type mockCache struct {
	items     map[string]arangodb.Item
	ancestors map[string][]arangodb.Item
	getErr    error
	ingested  []arangodb.Item
	walkedFor []string
}

func newMockCache() *mockCache {
	return &mockCache{items: map[string]arangodb.Item{}, ancestors: map[string][]arangodb.Item{}}
}

func (m *mockCache) Ancestors(_ context.Context, id string, _ int) ([]arangodb.Item, error) {
	m.walkedFor = append(m.walkedFor, id)
	return m.ancestors[id], nil
}

func (m *mockCache) GetItem(_ context.Context, id string) (arangodb.Item, error) {
	if m.getErr != nil {
		return arangodb.Item{}, m.getErr
	}
	if it, ok := m.items[id]; ok {
		return it, nil
	}
	return arangodb.Item{}, arangodb.ErrNotFound
}

func (m *mockCache) IngestItems(_ context.Context, items []arangodb.Item) error {
	m.ingested = append(m.ingested, items...)
	return nil
}

type mockSeen struct {
	seen      map[string]bool
	err       error
	forgotten []string
}

func (m *mockSeen) MarkSeen(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

func (m *mockSeen) Forget(_ context.Context, id string) error {
	m.forgotten = append(m.forgotten, id)
	delete(m.seen, id)
	return nil
}
