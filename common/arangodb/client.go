package arangodb

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
)

var ErrNotFound = errors.New("document not found")

// Client caches conversation items as a graph: items are vertices and
// replies edges point from a reply to its parent.
type Client interface {
	// Setup operations
	EnsureDatabase(ctx context.Context) error
	EnsureCollections(ctx context.Context) error
	EnsureGraph(ctx context.Context) error

	// Write operations
	IngestItems(ctx context.Context, items []Item) error

	// Read operations
	GetItem(ctx context.Context, id string) (Item, error)
	Ancestors(ctx context.Context, id string, depth int) ([]Item, error)

	// Utility
	Close() error
}

type Config struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("arangodb URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("arangodb username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("arangodb database name is required")
	}
	return nil
}

type client struct {
	conn         connection.Connection
	arangoClient arangodb.Client
	db           arangodb.Database
	cfg          Config
}

func New(ctx context.Context, cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arangodb config: %w", err)
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	conn := connection.NewHttp2Connection(connection.DefaultHTTP2ConfigurationWrapper(endpoint, true))

	auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
	if err := conn.SetAuthentication(auth); err != nil {
		return nil, fmt.Errorf("arangodb auth: %w", err)
	}

	return &client{
		conn:         conn,
		arangoClient: arangodb.NewClient(conn),
		cfg:          cfg,
	}, nil
}

func (c *client) Close() error {
	return nil
}

func (c *client) EnsureDatabase(ctx context.Context) error {
	start := time.Now()

	exists, err := c.arangoClient.DatabaseExists(ctx, c.cfg.Database)
	if err != nil {
		return fmt.Errorf("check database exists: %w", err)
	}

	if !exists {
		if _, err := c.arangoClient.CreateDatabase(ctx, c.cfg.Database, nil); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		slog.InfoContext(ctx, "arangodb database created",
			"database", c.cfg.Database,
			"duration_ms", time.Since(start).Milliseconds())
	}

	db, err := c.arangoClient.GetDatabase(ctx, c.cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("get database: %w", err)
	}
	c.db = db

	return nil
}

func (c *client) EnsureCollections(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized, call EnsureDatabase first")
	}
	if err := c.ensureCollection(ctx, itemsCollection, false); err != nil {
		return err
	}
	return c.ensureCollection(ctx, repliesCollection, true)
}

func (c *client) ensureCollection(ctx context.Context, name string, isEdge bool) error {
	exists, err := c.db.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s exists: %w", name, err)
	}
	if exists {
		return nil
	}

	colType := arangodb.CollectionTypeDocument
	if isEdge {
		colType = arangodb.CollectionTypeEdge
	}
	props := &arangodb.CreateCollectionPropertiesV2{Type: &colType}

	if _, err := c.db.CreateCollectionV2(ctx, name, props); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	slog.InfoContext(ctx, "arangodb collection created",
		"collection", name,
		"is_edge", isEdge)

	return nil
}

func (c *client) EnsureGraph(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized, call EnsureDatabase first")
	}

	exists, err := c.db.GraphExists(ctx, graphName)
	if err != nil {
		return fmt.Errorf("check graph exists: %w", err)
	}
	if exists {
		return nil
	}

	graphDef := &arangodb.GraphDefinition{
		Name: graphName,
		EdgeDefinitions: []arangodb.EdgeDefinition{
			{Collection: repliesCollection, From: []string{itemsCollection}, To: []string{itemsCollection}},
		},
	}

	if _, err := c.db.CreateGraph(ctx, graphName, graphDef, nil); err != nil {
		return fmt.Errorf("create graph: %w", err)
	}

	slog.InfoContext(ctx, "arangodb graph created", "graph", graphName)
	return nil
}

// IngestItems inserts items and a reply edge for every item with a parent.
// Items are immutable once posted, so duplicates (same _key) are silently ignored.
func (c *client) IngestItems(ctx context.Context, items []Item) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if len(items) == 0 {
		return nil
	}

	start := time.Now()

	docs := make([]itemDoc, 0, len(items))
	var edges []map[string]any
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		docs = append(docs, newItemDoc(it))
		if it.ParentID != "" {
			edges = append(edges, replyEdge(it.ID, it.ParentID))
		}
	}

	if err := c.createIgnoringDuplicates(ctx, itemsCollection, docs); err != nil {
		return err
	}
	if len(edges) > 0 {
		if err := c.createIgnoringDuplicates(ctx, repliesCollection, edges); err != nil {
			return err
		}
	}

	slog.DebugContext(ctx, "arangodb items ingested",
		"items", len(docs),
		"edges", len(edges),
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

func (c *client) createIgnoringDuplicates(ctx context.Context, collection string, docs any) error {
	col, err := c.db.GetCollection(ctx, collection, nil)
	if err != nil {
		return fmt.Errorf("get collection %s: %w", collection, err)
	}

	reader, err := col.CreateDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("create documents in %s: %w", collection, err)
	}

	// Per-document errors are duplicate keys; drain them.
	for {
		if _, readErr := reader.Read(); readErr != nil {
			break
		}
	}
	return nil
}

func (c *client) GetItem(ctx context.Context, id string) (Item, error) {
	if c.db == nil {
		return Item{}, fmt.Errorf("database not initialized")
	}

	query := `
		FOR d IN items
			FILTER d._key == @key
			LIMIT 1
			RETURN d
	`

	items, err := c.queryItems(ctx, query, map[string]any{"key": makeKey(id)})
	if err != nil {
		return Item{}, err
	}
	if len(items) == 0 {
		return Item{}, ErrNotFound
	}
	return items[0], nil
}

// Ancestors walks reply edges upward from id and returns the cached
// ancestors nearest first. The walk stops at the first uncached parent.
func (c *client) Ancestors(ctx context.Context, id string, depth int) ([]Item, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if depth <= 0 {
		depth = 1
	}

	query := `
		FOR v IN 1..@depth OUTBOUND @start GRAPH "conversations"
			OPTIONS { edgeCollections: ["replies"], uniqueVertices: "path" }
			RETURN v
	`

	start := time.Now()
	items, err := c.queryItems(ctx, query, map[string]any{
		"start": fmt.Sprintf("%s/%s", itemsCollection, makeKey(id)),
		"depth": depth,
	})
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "arangodb ancestors traversal completed",
		"item_id", id,
		"depth", depth,
		"results", len(items),
		"duration_ms", time.Since(start).Milliseconds())

	return items, nil
}

func (c *client) queryItems(ctx context.Context, query string, bindVars map[string]any) ([]Item, error) {
	cursor, err := c.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars:  bindVars,
		BatchSize: defaultItemsPerCall,
	})
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer cursor.Close()

	var items []Item
	for cursor.HasMore() {
		var doc itemDoc
		if _, err := cursor.ReadDocument(ctx, &doc); err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		// Vertices referenced by an edge but never ingested come back empty.
		if doc.ItemID == "" {
			continue
		}
		items = append(items, doc.item())
	}
	return items, nil
}

func replyEdge(childID, parentID string) map[string]any {
	return map[string]any{
		"_key":  makeEdgeKey(childID, parentID),
		"_from": fmt.Sprintf("%s/%s", itemsCollection, makeKey(childID)),
		"_to":   fmt.Sprintf("%s/%s", itemsCollection, makeKey(parentID)),
	}
}

func makeKey(id string) string {
	hash := md5.Sum([]byte(id))
	return hex.EncodeToString(hash[:])[:16]
}

func makeEdgeKey(from, to string) string {
	hash := md5.Sum([]byte(from + "->" + to))
	return hex.EncodeToString(hash[:])[:16]
}
