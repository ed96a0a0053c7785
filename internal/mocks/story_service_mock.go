package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rtg123uk/storyai/internal/domain"
	"github.com/rtg123uk/storyai/internal/handler"
	"github.com/rtg123uk/storyai/internal/image"
	"github.com/rtg123uk/storyai/internal/session"
	"github.com/rtg123uk/storyai/internal/speech"
	"github.com/rtg123uk/storyai/internal/story"
)

// MockStoryService is a mock type for the handler.StoryService type
type MockStoryService struct {
	mock.Mock
}

func storyResult(ret mock.Arguments) (*domain.Story, error) {
	var r0 *domain.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Story)
	}
	return r0, ret.Error(1)
}

// Generate provides a mock function with given fields: ctx, sess, params, progress
func (_m *MockStoryService) Generate(ctx context.Context, sess *session.Session, params domain.StoryParameters, progress story.ProgressFunc) (*domain.Story, error) {
	return storyResult(_m.Called(ctx, sess, params, progress))
}

// Initialize provides a mock function with given fields: ctx, sess, params
func (_m *MockStoryService) Initialize(ctx context.Context, sess *session.Session, params domain.StoryParameters) (*domain.Story, error) {
	return storyResult(_m.Called(ctx, sess, params))
}

// Continue provides a mock function with given fields: ctx, sess, storyID, choiceIndex
func (_m *MockStoryService) Continue(ctx context.Context, sess *session.Session, storyID string, choiceIndex int) (*domain.Story, error) {
	return storyResult(_m.Called(ctx, sess, storyID, choiceIndex))
}

// List provides a mock function with given fields: ctx, sess
func (_m *MockStoryService) List(ctx context.Context, sess *session.Session) ([]domain.StorySummary, error) {
	ret := _m.Called(ctx, sess)

	var r0 []domain.StorySummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.StorySummary)
	}
	return r0, ret.Error(1)
}

// Get provides a mock function with given fields: ctx, sess, storyID
func (_m *MockStoryService) Get(ctx context.Context, sess *session.Session, storyID string) (*domain.Story, error) {
	return storyResult(_m.Called(ctx, sess, storyID))
}

// Portrait provides a mock function with given fields: ctx, sess, c
func (_m *MockStoryService) Portrait(ctx context.Context, sess *session.Session, c image.Character) (string, error) {
	ret := _m.Called(ctx, sess, c)
	return ret.String(0), ret.Error(1)
}

// Voices provides a mock function with given fields: ctx
func (_m *MockStoryService) Voices(ctx context.Context) []speech.Voice {
	ret := _m.Called(ctx)

	var r0 []speech.Voice
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]speech.Voice)
	}
	return r0
}

// NewMockStoryService creates a new instance of MockStoryService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockStoryService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStoryService {
	m := &MockStoryService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockTokenVerifier is a mock type for the handler.TokenVerifier type
type MockTokenVerifier struct {
	mock.Mock
}

// Verify provides a mock function with given fields: ctx, token
func (_m *MockTokenVerifier) Verify(ctx context.Context, token string) (session.User, error) {
	ret := _m.Called(ctx, token)
	return ret.Get(0).(session.User), ret.Error(1)
}

// NewMockTokenVerifier creates a new instance of MockTokenVerifier. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTokenVerifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTokenVerifier {
	m := &MockTokenVerifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var (
	_ handler.StoryService  = (*MockStoryService)(nil)
	_ handler.TokenVerifier = (*MockTokenVerifier)(nil)
)
