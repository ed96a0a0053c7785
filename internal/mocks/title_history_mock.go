package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/story"
)

// MockTitleHistory is a mock type for the story.TitleHistory type
type MockTitleHistory struct {
	mock.Mock
}

// ListRecent provides a mock function with given fields: ctx, limit
func (_m *MockTitleHistory) ListRecent(ctx context.Context, limit int) ([]domain.TitleRecord, error) {
	ret := _m.Called(ctx, limit)

	var r0 []domain.TitleRecord
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.TitleRecord)
	}
	return r0, ret.Error(1)
}

// Insert provides a mock function with given fields: ctx, rec
func (_m *MockTitleHistory) Insert(ctx context.Context, rec domain.TitleRecord) error {
	ret := _m.Called(ctx, rec)
	return ret.Error(0)
}

// DeleteOldest provides a mock function with given fields: ctx
func (_m *MockTitleHistory) DeleteOldest(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

func NewMockTitleHistory(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTitleHistory {
	m := &MockTitleHistory{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ story.TitleHistory = (*MockTitleHistory)(nil)
