package brain

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/cornip/Rina/internal/model"
)

// DefaultMaxThreadDepth is how many ancestors BuildThread resolves by default.
const DefaultMaxThreadDepth = 10

// ParentLookup resolves an item by ID. It returns model.ErrNotFound when the
// item no longer exists upstream.
type ParentLookup interface {
	Lookup(ctx context.Context, id string) (model.Item, error)
}

// ParentLookupFunc adapts a function to ParentLookup.
type ParentLookupFunc func(ctx context.Context, id string) (model.Item, error)

func (f ParentLookupFunc) Lookup(ctx context.Context, id string) (model.Item, error) {
	return f(ctx, id)
}

// BuildThread walks the reply chain upward from leaf and returns it oldest
// first, ending with leaf. At most maxDepth ancestors are resolved, so the
// chain holds at most maxDepth+1 items.
//
// The walk stops early when an item has no parent, the parent is missing,
// the lookup fails, or a parent ID repeats. Lookup failures are logged and
// the partial chain is returned.
func BuildThread(ctx context.Context, leaf model.Item, lookup ParentLookup, maxDepth int) []model.Item {
	if maxDepth < 0 {
		maxDepth = 0
	}

	chain := []model.Item{leaf}
	seen := map[string]struct{}{leaf.ID: {}}
	current := leaf

	for depth := 0; depth < maxDepth && current.HasParent(); depth++ {
		if _, dup := seen[current.ParentID]; dup {
			slog.WarnContext(ctx, "reply chain cycle detected",
				"item_id", current.ID,
				"parent_id", current.ParentID)
			break
		}
		if ctx.Err() != nil {
			break
		}

		parent, err := lookup.Lookup(ctx, current.ParentID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				slog.DebugContext(ctx, "parent item not found",
					"parent_id", current.ParentID)
			} else {
				slog.WarnContext(ctx, "parent lookup failed, using partial thread",
					"parent_id", current.ParentID,
					"depth", depth,
					"error", err)
			}
			break
		}
		if parent.ID == "" {
			parent.ID = current.ParentID
		}
		if _, dup := seen[parent.ID]; dup {
			break
		}

		chain = append(chain, parent)
		seen[parent.ID] = struct{}{}
		current = parent
	}

	slices.Reverse(chain)
	return chain
}

// BuildActionContext assembles the attention input for the last item of an
// oldest-first chain. History is every earlier item in the chain.
func BuildActionContext(chain []model.Item, channel model.Channel, origin string) model.ActionContext {
	if len(chain) == 0 {
		return model.ActionContext{Channel: channel, Origin: origin}
	}

	leaf := chain[len(chain)-1]
	history := make([]model.HistoryEntry, 0, len(chain)-1)
	for _, it := range chain[:len(chain)-1] {
		history = append(history, model.HistoryEntry{ID: it.ID, Text: it.Text})
	}

	return model.ActionContext{
		ItemID:    leaf.ID,
		Content:   leaf.Text,
		Author:    leaf.Author,
		AuthorID:  leaf.AuthorID,
		Mentioned: MentionSet(leaf.Text),
		History:   history,
		Channel:   channel,
		Origin:    origin,
	}
}
