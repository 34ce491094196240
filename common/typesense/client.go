package typesense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ts "github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"
)

// Document is a flat Typesense document. The "id" key is the primary key.
type Document map[string]any

// Field describes one schema field.
type Field struct {
	Name     string
	Type     string // "string", "int64", "float", "float[]", ...
	Facet    bool
	Optional bool
	NumDim   int // vector fields only
}

type CollectionSchema struct {
	Name                string
	Fields              []Field
	DefaultSortingField string
}

// SearchQuery is the subset of search parameters the agent uses.
// An empty Query with no Vector matches everything ("*").
type SearchQuery struct {
	Query       string
	QueryBy     string
	FilterBy    string
	VectorField string
	Vector      []float64
	K           int
	PerPage     int
}

type Client interface {
	EnsureCollection(ctx context.Context, schema CollectionSchema) error
	UpsertDocuments(ctx context.Context, collection string, docs []Document) error
	Search(ctx context.Context, collection string, q SearchQuery) ([]Document, error)
	Healthy(ctx context.Context) bool
}

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("typesense URL is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("typesense API key is required")
	}
	return nil
}

type client struct {
	ts *ts.Client
}

func New(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("typesense config: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &client{
		ts: ts.NewClient(
			ts.WithServer(cfg.URL),
			ts.WithAPIKey(cfg.APIKey),
			ts.WithConnectionTimeout(timeout),
		),
	}, nil
}

func (c *client) EnsureCollection(ctx context.Context, schema CollectionSchema) error {
	_, err := c.ts.Collection(schema.Name).Retrieve(ctx)
	if err == nil {
		return nil
	}

	var httpErr *ts.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusNotFound {
		return fmt.Errorf("retrieve collection %s: %w", schema.Name, err)
	}

	if _, err := c.ts.Collections().Create(ctx, toAPISchema(schema)); err != nil {
		return fmt.Errorf("create collection %s: %w", schema.Name, err)
	}

	slog.InfoContext(ctx, "typesense collection created", "collection", schema.Name)
	return nil
}

func (c *client) UpsertDocuments(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	start := time.Now()

	batch := make([]interface{}, len(docs))
	for i, d := range docs {
		batch[i] = d
	}

	params := &api.ImportDocumentsParams{
		Action:    (*api.IndexAction)(pointer.String("upsert")),
		BatchSize: pointer.Int(100),
	}

	results, err := c.ts.Collection(collection).Documents().Import(ctx, batch, params)
	if err != nil {
		return fmt.Errorf("import documents into %s: %w", collection, err)
	}

	failed := 0
	var firstErr string
	for _, r := range results {
		if r != nil && !r.Success {
			if failed == 0 {
				firstErr = r.Error
			}
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("import into %s: %d of %d documents failed: %s", collection, failed, len(docs), firstErr)
	}

	slog.DebugContext(ctx, "typesense documents upserted",
		"collection", collection,
		"count", len(docs),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

func (c *client) Search(ctx context.Context, collection string, q SearchQuery) ([]Document, error) {
	params := buildSearchParams(q)

	result, err := c.ts.Collection(collection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	if result.Hits == nil {
		return nil, nil
	}

	docs := make([]Document, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		docs = append(docs, Document(*hit.Document))
	}
	return docs, nil
}

func (c *client) Healthy(ctx context.Context) bool {
	ok, err := c.ts.Health(ctx, 2*time.Second)
	return err == nil && ok
}

func buildSearchParams(q SearchQuery) *api.SearchCollectionParams {
	query := q.Query
	if query == "" {
		query = "*"
	}

	params := &api.SearchCollectionParams{
		Q: pointer.String(query),
	}
	if q.QueryBy != "" {
		params.QueryBy = pointer.String(q.QueryBy)
	}
	if q.FilterBy != "" {
		params.FilterBy = pointer.String(q.FilterBy)
	}
	if q.PerPage > 0 {
		params.PerPage = pointer.Int(q.PerPage)
	}
	if q.VectorField != "" && len(q.Vector) > 0 {
		params.VectorQuery = pointer.String(VectorQuery(q.VectorField, q.Vector, q.K))
	}
	return params
}

// VectorQuery renders the "field:([v1,v2,...], k:N)" syntax.
func VectorQuery(field string, vec []float64, k int) string {
	if k <= 0 {
		k = 10
	}
	b := make([]byte, 0, len(field)+len(vec)*10+16)
	b = append(b, field...)
	b = append(b, ":(["...)
	for i, v := range vec {
		if i > 0 {
			b = append(b, ',')
		}
		b = fmt.Appendf(b, "%g", v)
	}
	b = fmt.Appendf(b, "], k:%d)", k)
	return string(b)
}

// FilterValue quotes a value for an exact-match filter_by clause.
func FilterValue(v string) string {
	return "`" + v + "`"
}

func toAPISchema(s CollectionSchema) *api.CollectionSchema {
	fields := make([]api.Field, len(s.Fields))
	for i, f := range s.Fields {
		field := api.Field{
			Name: f.Name,
			Type: f.Type,
		}
		if f.Facet {
			field.Facet = pointer.True()
		}
		if f.Optional {
			field.Optional = pointer.True()
		}
		if f.NumDim > 0 {
			field.NumDim = pointer.Int(f.NumDim)
		}
		fields[i] = field
	}

	schema := &api.CollectionSchema{
		Name:   s.Name,
		Fields: fields,
	}
	if s.DefaultSortingField != "" {
		schema.DefaultSortingField = pointer.String(s.DefaultSortingField)
	}
	return schema
}
