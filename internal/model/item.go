package model

import (
	"slices"
	"time"
)

// Item is an inbound social post. ParentID is empty for thread roots.
type Item struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	Author         string    `json:"author"`
	Text           string    `json:"text"`
	ParentID       string    `json:"parent_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (i Item) HasParent() bool {
	return i.ParentID != ""
}

// HistoryEntry is one prior message in a thread, oldest first.
type HistoryEntry struct {
	ID   string
	Text string
}

// ActionContext is everything the attention engine sees about an item.
// It lives for a single cycle.
type ActionContext struct {
	ItemID    string
	Content   string
	Author    string
	AuthorID  string
	Mentioned map[string]struct{}
	History   []HistoryEntry
	Channel   Channel
	Origin    string
}

// MentionedNames returns the mention set sorted.
func (c ActionContext) MentionedNames() []string {
	names := make([]string, 0, len(c.Mentioned))
	for name := range c.Mentioned {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
