package brain_test

import (
	"context"

	"github.com/cornip/Rina/common/llm"
	"github.com/cornip/Rina/internal/model"
)

type mockScorer struct {
	scoreFn func(ctx context.Context, actx model.ActionContext, kind model.EngagementKind) (model.Verdict, error)
	calls   int
}

func (m *mockScorer) Score(ctx context.Context, actx model.ActionContext, kind model.EngagementKind) (model.Verdict, error) {
	m.calls++
	if m.scoreFn != nil {
		return m.scoreFn(ctx, actx, kind)
	}
	return model.VerdictAct, nil
}

type mockLLMClient struct {
	chatFn   func(ctx context.Context, req llm.Request, result any) (*llm.Response, error)
	requests []llm.Request
}

func (m *mockLLMClient) Chat(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
	m.requests = append(m.requests, req)
	if m.chatFn != nil {
		return m.chatFn(ctx, req, result)
	}
	return &llm.Response{}, nil
}

func (m *mockLLMClient) Model() string {
	return "mock"
}

// mapLookup resolves parents from an in-memory map and counts calls.
type mapLookup struct {
	items map[string]model.Item
	errs  map[string]error
	calls int
}

func (m *mapLookup) Lookup(_ context.Context, id string) (model.Item, error) {
	m.calls++
	if err, ok := m.errs[id]; ok {
		return model.Item{}, err
	}
	it, ok := m.items[id]
	if !ok {
		return model.Item{}, model.ErrNotFound
	}
	return it, nil
}
