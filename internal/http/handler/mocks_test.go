package handler_test

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/cornip/Rina/internal/model"
	"github.com/cornip/Rina/internal/status"
)

type mockRecordStore struct {
	getFn           func(ctx context.Context, id int64) (*model.ActionRecord, error)
	listBySubjectFn func(ctx context.Context, subjectID string, limit int32) ([]model.ActionRecord, error)
	listRecentFn    func(ctx context.Context, limit int32) ([]model.ActionRecord, error)
}

func (m *mockRecordStore) Insert(context.Context, model.ActionRecord) error { return nil }

func (m *mockRecordStore) GetByID(ctx context.Context, id int64) (*model.ActionRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRecordStore) ListBySubject(ctx context.Context, subjectID string, limit int32) ([]model.ActionRecord, error) {
	if m.listBySubjectFn != nil {
		return m.listBySubjectFn(ctx, subjectID, limit)
	}
	return nil, nil
}

func (m *mockRecordStore) ListRecent(ctx context.Context, limit int32) ([]model.ActionRecord, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

type mockStats struct {
	stats []status.ChannelStats
}

func (m *mockStats) Snapshot() []status.ChannelStats { return m.stats }

type mockStreamReader struct {
	readFn func(ctx context.Context, a *redis.XReadArgs) ([]redis.XStream, error)
	args   []*redis.XReadArgs
}

func (m *mockStreamReader) XRead(ctx context.Context, a *redis.XReadArgs) *redis.XStreamSliceCmd {
	m.args = append(m.args, a)
	val, err := m.readFn(ctx, a)
	return redis.NewXStreamSliceCmdResult(val, err)
}
