package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cornip/Rina/common/httpx"
	"github.com/cornip/Rina/internal/model"
)

// Client talks to the social network gateway.
type Client interface {
	Search(ctx context.Context, query string, limit int) ([]model.Item, error)
	Timeline(ctx context.Context, limit int) ([]model.Item, error)
	// GetItem returns model.ErrNotFound when the item is gone or hidden.
	GetItem(ctx context.Context, id string) (model.Item, error)
	// Post publishes text, as a reply when replyTo is set, and returns the new item ID.
	Post(ctx context.Context, text, replyTo string) (string, error)
	Quote(ctx context.Context, text, quotedID string) (string, error)
	Like(ctx context.Context, id string) error
	Retweet(ctx context.Context, id string) error
}

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type client struct {
	http *httpx.Client
}

func New(cfg Config) (Client, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	hc, err := httpx.New(httpx.Config{BaseURL: cfg.URL, Token: cfg.Token, Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("gateway client: %w", err)
	}
	return &client{http: hc}, nil
}

type itemDTO struct {
	ID             string `json:"id"`
	AuthorID       string `json:"author_id"`
	Username       string `json:"username"`
	Text           string `json:"text"`
	InReplyToID    string `json:"in_reply_to_id"`
	ConversationID string `json:"conversation_id"`
	CreatedAt      int64  `json:"created_at"`
}

func (d itemDTO) toModel() model.Item {
	it := model.Item{
		ID:             d.ID,
		AuthorID:       d.AuthorID,
		Author:         d.Username,
		Text:           d.Text,
		ParentID:       d.InReplyToID,
		ConversationID: d.ConversationID,
	}
	if d.CreatedAt > 0 {
		it.CreatedAt = time.Unix(d.CreatedAt, 0).UTC()
	}
	return it
}

type itemsResponse struct {
	Items []itemDTO `json:"items"`
}

type postRequest struct {
	Text     string `json:"text"`
	ReplyTo  string `json:"reply_to,omitempty"`
	QuotedID string `json:"quoted_id,omitempty"`
}

type postResponse struct {
	ID string `json:"id"`
}

func (c *client) Search(ctx context.Context, query string, limit int) ([]model.Item, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	return c.list(ctx, "/v1/search", q)
}

func (c *client) Timeline(ctx context.Context, limit int) ([]model.Item, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	return c.list(ctx, "/v1/timeline", q)
}

func (c *client) list(ctx context.Context, path string, q url.Values) ([]model.Item, error) {
	var resp itemsResponse
	if err := c.http.GetJSON(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	items := make([]model.Item, 0, len(resp.Items))
	for _, d := range resp.Items {
		items = append(items, d.toModel())
	}
	return items, nil
}

func (c *client) GetItem(ctx context.Context, id string) (model.Item, error) {
	var d itemDTO
	if err := c.http.GetJSON(ctx, "/v1/items/"+url.PathEscape(id), nil, &d); err != nil {
		if httpx.IsNotFound(err) {
			return model.Item{}, model.ErrNotFound
		}
		return model.Item{}, err
	}
	return d.toModel(), nil
}

func (c *client) Post(ctx context.Context, text, replyTo string) (string, error) {
	return c.post(ctx, postRequest{Text: text, ReplyTo: replyTo})
}

func (c *client) Quote(ctx context.Context, text, quotedID string) (string, error) {
	return c.post(ctx, postRequest{Text: text, QuotedID: quotedID})
}

func (c *client) post(ctx context.Context, req postRequest) (string, error) {
	var resp postResponse
	if err := c.http.PostJSON(ctx, "/v1/posts", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *client) Like(ctx context.Context, id string) error {
	return c.http.PostJSON(ctx, "/v1/items/"+url.PathEscape(id)+"/like", nil, nil)
}

func (c *client) Retweet(ctx context.Context, id string) error {
	return c.http.PostJSON(ctx, "/v1/items/"+url.PathEscape(id)+"/retweet", nil, nil)
}
