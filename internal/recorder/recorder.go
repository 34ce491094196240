package recorder

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cornip/Rina/common/logger"
	"github.com/cornip/Rina/internal/model"
)

// SemanticStore is the similarity-searchable context cache.
type SemanticStore interface {
	StoreRecommendation(ctx context.Context, rec model.ActionRecord) error
}

// StructuredStore is the system of record.
type StructuredStore interface {
	Insert(ctx context.Context, rec model.ActionRecord) error
}

// CommitOutcome reports each store's result independently.
type CommitOutcome struct {
	SemanticErr   error
	StructuredErr error
}

func (o CommitOutcome) OK() bool {
	return o.SemanticErr == nil && o.StructuredErr == nil
}

// Err joins both failures, or nil.
func (o CommitOutcome) Err() error {
	return errors.Join(o.SemanticErr, o.StructuredErr)
}

// Recorder writes each record to both stores. The writes are not atomic:
// one may succeed while the other fails, and nothing is rolled back or retried.
type Recorder struct {
	semantic   SemanticStore
	structured StructuredStore
}

func New(semantic SemanticStore, structured StructuredStore) *Recorder {
	return &Recorder{semantic: semantic, structured: structured}
}

// Commit attempts the semantic write then the structured write.
// A failure in one never prevents the other.
func (r *Recorder) Commit(ctx context.Context, rec model.ActionRecord) CommitOutcome {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RecordID:  logger.Ptr(rec.ID),
		Component: "agent.recorder",
	})

	var out CommitOutcome

	if err := r.semantic.StoreRecommendation(ctx, rec); err != nil {
		out.SemanticErr = err
		slog.ErrorContext(ctx, "failed to store record in semantic store",
			"subject_id", rec.SubjectID,
			"error", err)
	}

	if err := r.structured.Insert(ctx, rec); err != nil {
		out.StructuredErr = err
		slog.ErrorContext(ctx, "failed to store record in structured store",
			"subject_id", rec.SubjectID,
			"error", err)
	}

	if out.OK() {
		slog.InfoContext(ctx, "record committed",
			"subject_id", rec.SubjectID,
			"category", rec.Category,
			"target", rec.Target,
			"executed", rec.ExecutionProof != nil)
	}

	return out
}
