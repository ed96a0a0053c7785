package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/story"
)

// MockIllustrator is a mock type for the story.Illustrator type
type MockIllustrator struct {
	mock.Mock
}

// Illustrate provides a mock function with given fields: ctx, prompt
func (_m *MockIllustrator) Illustrate(ctx context.Context, prompt string) *string {
	ret := _m.Called(ctx, prompt)

	if rf, ok := ret.Get(0).(func(context.Context, string) *string); ok {
		return rf(ctx, prompt)
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(*string)
}

func NewMockIllustrator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockIllustrator {
	m := &MockIllustrator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockNarrator is a mock type for the story.Narrator type
type MockNarrator struct {
	mock.Mock
}

// Narrate provides a mock function with given fields: ctx, req
func (_m *MockNarrator) Narrate(ctx context.Context, req domain.NarrationRequest) []byte {
	ret := _m.Called(ctx, req)

	if rf, ok := ret.Get(0).(func(context.Context, domain.NarrationRequest) []byte); ok {
		return rf(ctx, req)
	}
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).([]byte)
}

func NewMockNarrator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNarrator {
	m := &MockNarrator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var (
	_ story.Illustrator = (*MockIllustrator)(nil)
	_ story.Narrator    = (*MockNarrator)(nil)
)
