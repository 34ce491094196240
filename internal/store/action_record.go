package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cornip/Rina/core/db/sqlc"
	"github.com/cornip/Rina/internal/model"
)

type actionRecordStore struct {
	queries *sqlc.Queries
}

func NewActionRecordStore(queries *sqlc.Queries) ActionRecordStore {
	return &actionRecordStore{queries: queries}
}

func (s *actionRecordStore) Insert(ctx context.Context, rec model.ActionRecord) error {
	if _, err := s.queries.InsertActionRecord(ctx, toInsertParams(rec)); err != nil {
		return fmt.Errorf("inserting action record %d: %w", rec.ID, err)
	}
	return nil
}

func (s *actionRecordStore) GetByID(ctx context.Context, id int64) (*model.ActionRecord, error) {
	row, err := s.queries.GetActionRecord(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec := toActionRecordModel(row)
	return &rec, nil
}

func (s *actionRecordStore) ListBySubject(ctx context.Context, subjectID string, limit int32) ([]model.ActionRecord, error) {
	rows, err := s.queries.ListActionRecordsBySubject(ctx, sqlc.ListActionRecordsBySubjectParams{
		SubjectID: subjectID,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return toActionRecordModels(rows), nil
}

func (s *actionRecordStore) ListRecent(ctx context.Context, limit int32) ([]model.ActionRecord, error) {
	rows, err := s.queries.ListRecentActionRecords(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toActionRecordModels(rows), nil
}

func toInsertParams(rec model.ActionRecord) sqlc.InsertActionRecordParams {
	return sqlc.InsertActionRecordParams{
		ID:             rec.ID,
		Channel:        string(rec.Channel),
		SubjectID:      rec.SubjectID,
		Category:       string(rec.Category),
		Target:         rec.Target,
		Magnitude:      rec.Magnitude,
		Rationale:      rec.Rationale,
		ExecutionProof: rec.ExecutionProof,
		CreatedAt:      pgtype.Timestamptz{Time: rec.CreatedAt, Valid: !rec.CreatedAt.IsZero()},
	}
}

func toActionRecordModel(row sqlc.ActionRecord) model.ActionRecord {
	return model.ActionRecord{
		ID:             row.ID,
		Channel:        model.Channel(row.Channel),
		SubjectID:      row.SubjectID,
		Category:       model.ParseActionCategory(row.Category),
		Target:         row.Target,
		Magnitude:      row.Magnitude,
		Rationale:      row.Rationale,
		ExecutionProof: row.ExecutionProof,
		CreatedAt:      row.CreatedAt.Time,
	}
}

func toActionRecordModels(rows []sqlc.ActionRecord) []model.ActionRecord {
	out := make([]model.ActionRecord, len(rows))
	for i, row := range rows {
		out[i] = toActionRecordModel(row)
	}
	return out
}
