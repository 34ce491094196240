package brain_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cornip/Rina/internal/brain"
	"github.com/cornip/Rina/internal/model"
)

// linearThread builds items "t0".."t<n-1>" where t<i> replies to t<i-1>.
func linearThread(n int) map[string]model.Item {
	items := make(map[string]model.Item, n)
	for i := range n {
		it := model.Item{ID: fmt.Sprintf("t%d", i), Text: fmt.Sprintf("text %d", i), Author: "user"}
		if i > 0 {
			it.ParentID = fmt.Sprintf("t%d", i-1)
		}
		items[it.ID] = it
	}
	return items
}

func ids(chain []model.Item) []string {
	out := make([]string, len(chain))
	for i, it := range chain {
		out[i] = it.ID
	}
	return out
}

var _ = Describe("BuildThread", func() {
	ctx := context.Background()

	It("returns only the leaf when it has no parent", func() {
		lookup := &mapLookup{}
		chain := brain.BuildThread(ctx, model.Item{ID: "root"}, lookup, 10)

		Expect(ids(chain)).To(Equal([]string{"root"}))
		Expect(lookup.calls).To(BeZero())
	})

	It("orders the chain oldest first and ends with the leaf", func() {
		items := linearThread(4)
		lookup := &mapLookup{items: items}

		chain := brain.BuildThread(ctx, items["t3"], lookup, 10)
		Expect(ids(chain)).To(Equal([]string{"t0", "t1", "t2", "t3"}))
	})

	It("stops after maxDepth ancestors", func() {
		items := linearThread(15)
		lookup := &mapLookup{items: items}

		chain := brain.BuildThread(ctx, items["t14"], lookup, brain.DefaultMaxThreadDepth)

		Expect(chain).To(HaveLen(brain.DefaultMaxThreadDepth + 1))
		Expect(chain[len(chain)-1].ID).To(Equal("t14"))
		Expect(chain[0].ID).To(Equal("t4"))
		Expect(lookup.calls).To(Equal(brain.DefaultMaxThreadDepth))
	})

	It("returns just the leaf with a zero depth", func() {
		items := linearThread(3)
		chain := brain.BuildThread(ctx, items["t2"], &mapLookup{items: items}, 0)
		Expect(ids(chain)).To(Equal([]string{"t2"}))
	})

	It("returns the partial chain when a parent is missing", func() {
		items := linearThread(4)
		delete(items, "t1")

		chain := brain.BuildThread(ctx, items["t3"], &mapLookup{items: items}, 10)
		Expect(ids(chain)).To(Equal([]string{"t2", "t3"}))
	})

	It("returns the partial chain when the lookup fails", func() {
		items := linearThread(6)
		lookup := &mapLookup{
			items: items,
			errs:  map[string]error{"t3": errors.New("rate limited")},
		}

		chain := brain.BuildThread(ctx, items["t5"], lookup, 10)
		Expect(ids(chain)).To(Equal([]string{"t4", "t5"}))
	})

	It("terminates on a reply cycle without repeating items", func() {
		items := map[string]model.Item{
			"a": {ID: "a", ParentID: "b"},
			"b": {ID: "b", ParentID: "c"},
			"c": {ID: "c", ParentID: "a"},
		}

		chain := brain.BuildThread(ctx, items["a"], &mapLookup{items: items}, 10)
		Expect(ids(chain)).To(Equal([]string{"c", "b", "a"}))
	})

	It("accepts a plain function as the lookup", func() {
		items := linearThread(3)
		lookup := brain.ParentLookupFunc(func(_ context.Context, id string) (model.Item, error) {
			it, ok := items[id]
			if !ok {
				return model.Item{}, model.ErrNotFound
			}
			return it, nil
		})

		chain := brain.BuildThread(ctx, items["t2"], lookup, 10)
		Expect(ids(chain)).To(Equal([]string{"t0", "t1", "t2"}))
	})

	It("stops when the context is cancelled", func() {
		items := linearThread(4)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		chain := brain.BuildThread(cctx, items["t3"], &mapLookup{items: items}, 10)
		Expect(ids(chain)).To(Equal([]string{"t3"}))
	})
})

var _ = Describe("BuildActionContext", func() {
	It("uses the leaf as content and earlier items as history", func() {
		chain := []model.Item{
			{ID: "t0", Text: "root"},
			{ID: "t1", Text: "middle"},
			{ID: "t2", Text: "@rina @alice hello", Author: "bob", AuthorID: "9"},
		}

		actx := brain.BuildActionContext(chain, model.ChannelSocial, "mentions")

		Expect(actx.ItemID).To(Equal("t2"))
		Expect(actx.Content).To(Equal("@rina @alice hello"))
		Expect(actx.Author).To(Equal("bob"))
		Expect(actx.AuthorID).To(Equal("9"))
		Expect(actx.MentionedNames()).To(Equal([]string{"alice", "rina"}))
		Expect(actx.History).To(Equal([]model.HistoryEntry{
			{ID: "t0", Text: "root"},
			{ID: "t1", Text: "middle"},
		}))
		Expect(actx.Channel).To(Equal(model.ChannelSocial))
		Expect(actx.Origin).To(Equal("mentions"))
	})

	It("has empty history for a single item", func() {
		actx := brain.BuildActionContext([]model.Item{{ID: "x", Text: "hi"}}, model.ChannelSocial, "")
		Expect(actx.History).To(BeEmpty())
	})
})
