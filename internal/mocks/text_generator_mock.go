package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rtg123uk/storyai/internal/ai"
)

// MockTextGenerator is a mock type for the ai.TextGenerator type
type MockTextGenerator struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, req
func (_m *MockTextGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	ret := _m.Called(ctx, req)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, ai.Request) string); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.String(0)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, ai.Request) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockTextGenerator creates a new instance of MockTextGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTextGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTextGenerator {
	m := &MockTextGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ ai.TextGenerator = (*MockTextGenerator)(nil)
