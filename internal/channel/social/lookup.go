package social

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cornip/Rina/common/arangodb"
	"github.com/cornip/Rina/internal/brain"
	"github.com/cornip/Rina/internal/model"
)

// ThreadCache is the conversation graph that remembers fetched items.
type ThreadCache interface {
	GetItem(ctx context.Context, id string) (arangodb.Item, error)
	IngestItems(ctx context.Context, items []arangodb.Item) error
	Ancestors(ctx context.Context, id string, depth int) ([]arangodb.Item, error)
}

// ItemFetcher fetches a single item from the network.
type ItemFetcher interface {
	GetItem(ctx context.Context, id string) (model.Item, error)
}

// cachedLookup resolves parents from the cache first and falls back to the
// network. Callers cache the resolved thread with remember.
// It is built per thread.
type cachedLookup struct {
	cache   ThreadCache
	fetcher ItemFetcher
	warm    map[string]model.Item
}

var _ brain.ParentLookup = (*cachedLookup)(nil)

func newCachedLookup(cache ThreadCache, fetcher ItemFetcher) *cachedLookup {
	return &cachedLookup{cache: cache, fetcher: fetcher, warm: make(map[string]model.Item)}
}

// warmFrom loads the cached ancestors of id with a single traversal so the
// walk does not hit the cache once per hop.
func (l *cachedLookup) warmFrom(ctx context.Context, id string, depth int) {
	if l.cache == nil || id == "" {
		return
	}
	items, err := l.cache.Ancestors(ctx, id, depth)
	if err != nil {
		slog.WarnContext(ctx, "thread cache traversal failed", "item_id", id, "error", err)
		return
	}
	for _, it := range items {
		l.warm[it.ID] = fromCache(it)
	}
}

func (l *cachedLookup) Lookup(ctx context.Context, id string) (model.Item, error) {
	if it, ok := l.warm[id]; ok {
		return it, nil
	}
	if l.cache != nil {
		cached, err := l.cache.GetItem(ctx, id)
		if err == nil {
			return fromCache(cached), nil
		}
		if !errors.Is(err, arangodb.ErrNotFound) {
			slog.WarnContext(ctx, "thread cache lookup failed", "parent_id", id, "error", err)
		}
	}

	return l.fetcher.GetItem(ctx, id)
}

// remember caches items. Failures only cost a refetch later.
func (l *cachedLookup) remember(ctx context.Context, items ...model.Item) {
	if l.cache == nil || len(items) == 0 {
		return
	}
	docs := make([]arangodb.Item, 0, len(items))
	for _, it := range items {
		docs = append(docs, toCache(it))
	}
	if err := l.cache.IngestItems(ctx, docs); err != nil {
		slog.WarnContext(ctx, "failed to cache thread items", "count", len(docs), "error", err)
	}
}

func fromCache(it arangodb.Item) model.Item {
	return model.Item{
		ID:             it.ID,
		AuthorID:       it.AuthorID,
		Author:         it.Author,
		Text:           it.Text,
		ParentID:       it.ParentID,
		ConversationID: it.ConversationID,
		CreatedAt:      it.CreatedAt,
	}
}

func toCache(it model.Item) arangodb.Item {
	return arangodb.Item{
		ID:             it.ID,
		AuthorID:       it.AuthorID,
		Author:         it.Author,
		Text:           it.Text,
		ParentID:       it.ParentID,
		ConversationID: it.ConversationID,
		CreatedAt:      it.CreatedAt,
	}
}
