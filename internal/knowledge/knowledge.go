package knowledge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cornip/Rina/common/llm"
	"github.com/cornip/Rina/common/typesense"
	"github.com/cornip/Rina/internal/model"
)

const (
	RecommendationsCollection = "recommendations"
	MessagesCollection        = "messages"

	embeddingField = "embedding"
)

// Store is the semantic store: every document carries an embedding so it
// can be recalled by similarity as well as by filter.
type Store struct {
	ts       typesense.Client
	embedder llm.Embedder
	dims     int
}

func New(ts typesense.Client, embedder llm.Embedder, dims int) *Store {
	return &Store{ts: ts, embedder: embedder, dims: dims}
}

// EnsureSchema creates both collections if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, schema := range []typesense.CollectionSchema{
		recommendationsSchema(s.dims),
		messagesSchema(s.dims),
	} {
		if err := s.ts.EnsureCollection(ctx, schema); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Healthy(ctx context.Context) bool {
	return s.ts.Healthy(ctx)
}

// StoreRecommendation indexes a committed ActionRecord.
func (s *Store) StoreRecommendation(ctx context.Context, rec model.ActionRecord) error {
	vec, err := s.embedder.Embed(ctx, recommendationText(rec))
	if err != nil {
		return fmt.Errorf("embedding recommendation: %w", err)
	}

	doc := recommendationDoc(rec)
	doc[embeddingField] = vec

	return s.ts.UpsertDocuments(ctx, RecommendationsCollection, []typesense.Document{doc})
}

// RecentRecommendations returns up to limit records for subjectID, newest first.
func (s *Store) RecentRecommendations(ctx context.Context, subjectID string, limit int) ([]model.ActionRecord, error) {
	docs, err := s.ts.Search(ctx, RecommendationsCollection, typesense.SearchQuery{
		FilterBy: "subject_id:=" + typesense.FilterValue(subjectID),
		PerPage:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("searching recommendations: %w", err)
	}

	records := make([]model.ActionRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, recommendationFromDoc(d))
	}
	return records, nil
}

// StoreMessage indexes an inbound or outbound social item.
func (s *Store) StoreMessage(ctx context.Context, item model.Item, channel model.Channel) error {
	vec, err := s.embedder.Embed(ctx, item.Text)
	if err != nil {
		return fmt.Errorf("embedding message: %w", err)
	}

	doc := messageDoc(item, channel)
	doc[embeddingField] = vec

	return s.ts.UpsertDocuments(ctx, MessagesCollection, []typesense.Document{doc})
}

// SimilarMessages returns up to k stored messages nearest to text.
func (s *Store) SimilarMessages(ctx context.Context, text string, k int) ([]model.Item, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	docs, err := s.ts.Search(ctx, MessagesCollection, typesense.SearchQuery{
		VectorField: embeddingField,
		Vector:      vec,
		K:           k,
		PerPage:     k,
	})
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	items := make([]model.Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, messageFromDoc(d))
	}
	return items, nil
}

func recommendationsSchema(dims int) typesense.CollectionSchema {
	return typesense.CollectionSchema{
		Name: RecommendationsCollection,
		Fields: []typesense.Field{
			{Name: "subject_id", Type: "string", Facet: true},
			{Name: "channel", Type: "string", Facet: true},
			{Name: "category", Type: "string", Facet: true},
			{Name: "target", Type: "string"},
			{Name: "magnitude", Type: "float"},
			{Name: "rationale", Type: "string"},
			{Name: "execution_proof", Type: "string", Optional: true},
			{Name: "created_at", Type: "int64"},
			{Name: embeddingField, Type: "float[]", NumDim: dims},
		},
		DefaultSortingField: "created_at",
	}
}

func messagesSchema(dims int) typesense.CollectionSchema {
	return typesense.CollectionSchema{
		Name: MessagesCollection,
		Fields: []typesense.Field{
			{Name: "author", Type: "string", Facet: true},
			{Name: "author_id", Type: "string", Optional: true},
			{Name: "text", Type: "string"},
			{Name: "parent_id", Type: "string", Optional: true},
			{Name: "conversation_id", Type: "string", Optional: true},
			{Name: "channel", Type: "string", Facet: true},
			{Name: "created_at", Type: "int64"},
			{Name: embeddingField, Type: "float[]", NumDim: dims},
		},
		DefaultSortingField: "created_at",
	}
}

func recommendationText(rec model.ActionRecord) string {
	return fmt.Sprintf("%s %s %g: %s", rec.Category, rec.Target, rec.Magnitude, rec.Rationale)
}

func recommendationDoc(rec model.ActionRecord) typesense.Document {
	doc := typesense.Document{
		"id":         strconv.FormatInt(rec.ID, 10),
		"subject_id": rec.SubjectID,
		"channel":    string(rec.Channel),
		"category":   string(rec.Category),
		"target":     rec.Target,
		"magnitude":  rec.Magnitude,
		"rationale":  rec.Rationale,
		"created_at": rec.CreatedAt.Unix(),
	}
	if rec.ExecutionProof != nil {
		doc["execution_proof"] = *rec.ExecutionProof
	}
	return doc
}

func recommendationFromDoc(d typesense.Document) model.ActionRecord {
	id, _ := strconv.ParseInt(str(d, "id"), 10, 64)
	rec := model.ActionRecord{
		ID:        id,
		Channel:   model.Channel(str(d, "channel")),
		SubjectID: str(d, "subject_id"),
		Category:  model.ParseActionCategory(str(d, "category")),
		Target:    str(d, "target"),
		Magnitude: num(d, "magnitude"),
		Rationale: str(d, "rationale"),
		CreatedAt: time.Unix(int64(num(d, "created_at")), 0).UTC(),
	}
	if proof, ok := d["execution_proof"].(string); ok && proof != "" {
		rec.ExecutionProof = &proof
	}
	return rec
}

func messageDoc(item model.Item, channel model.Channel) typesense.Document {
	doc := typesense.Document{
		"id":         item.ID,
		"author":     item.Author,
		"text":       item.Text,
		"channel":    string(channel),
		"created_at": item.CreatedAt.Unix(),
	}
	if item.AuthorID != "" {
		doc["author_id"] = item.AuthorID
	}
	if item.ParentID != "" {
		doc["parent_id"] = item.ParentID
	}
	if item.ConversationID != "" {
		doc["conversation_id"] = item.ConversationID
	}
	return doc
}

func messageFromDoc(d typesense.Document) model.Item {
	return model.Item{
		ID:             str(d, "id"),
		AuthorID:       str(d, "author_id"),
		Author:         str(d, "author"),
		Text:           str(d, "text"),
		ParentID:       str(d, "parent_id"),
		ConversationID: str(d, "conversation_id"),
		CreatedAt:      time.Unix(int64(num(d, "created_at")), 0).UTC(),
	}
}

func str(d typesense.Document, key string) string {
	s, _ := d[key].(string)
	return s
}

// num reads a numeric field. Decoded JSON numbers are float64; documents
// built in-process may still hold integer types.
func num(d typesense.Document, key string) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
