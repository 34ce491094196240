package arangodb

import "time"

const (
	graphName           = "conversations"
	itemsCollection     = "items"
	repliesCollection   = "replies"
	defaultItemsPerCall = 100
)

// Item is a cached social post. ParentID is empty for thread roots.
type Item struct {
	ID             string
	AuthorID       string
	Author         string
	Text           string
	ParentID       string
	ConversationID string
	CreatedAt      time.Time
}

// itemDoc is the stored document shape.
type itemDoc struct {
	Key            string    `json:"_key"`
	ItemID         string    `json:"item_id"`
	AuthorID       string    `json:"author_id"`
	Author         string    `json:"author"`
	Text           string    `json:"text"`
	ParentID       string    `json:"parent_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (d itemDoc) item() Item {
	return Item{
		ID:             d.ItemID,
		AuthorID:       d.AuthorID,
		Author:         d.Author,
		Text:           d.Text,
		ParentID:       d.ParentID,
		ConversationID: d.ConversationID,
		CreatedAt:      d.CreatedAt,
	}
}

func newItemDoc(it Item) itemDoc {
	return itemDoc{
		Key:            makeKey(it.ID),
		ItemID:         it.ID,
		AuthorID:       it.AuthorID,
		Author:         it.Author,
		Text:           it.Text,
		ParentID:       it.ParentID,
		ConversationID: it.ConversationID,
		CreatedAt:      it.CreatedAt,
	}
}
