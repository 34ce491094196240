package store

import (
	"context"
	"errors"

	"github.com/cornip/Rina/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ActionRecordStore is the structured system of record for ActionRecords.
// Records are append-only.
type ActionRecordStore interface {
	Insert(ctx context.Context, rec model.ActionRecord) error
	GetByID(ctx context.Context, id int64) (*model.ActionRecord, error)
	ListBySubject(ctx context.Context, subjectID string, limit int32) ([]model.ActionRecord, error)
	ListRecent(ctx context.Context, limit int32) ([]model.ActionRecord, error)
}
