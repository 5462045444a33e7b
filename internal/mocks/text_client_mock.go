package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyboard-server/internal/ai"
)

// MockTextClient is a mock type for the TextClient type
type MockTextClient struct {
	mock.Mock
}

// GenerateText provides a mock function with given fields: ctx, systemPrompt, userInput, params
func (_m *MockTextClient) GenerateText(ctx context.Context, systemPrompt string, userInput string, params ai.GenerationParams) (string, error) {
	ret := _m.Called(ctx, systemPrompt, userInput, params)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, string, ai.GenerationParams) string); ok {
		r0 = rf(ctx, systemPrompt, userInput, params)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(string)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string, ai.GenerationParams) error); ok {
		r1 = rf(ctx, systemPrompt, userInput, params)
	} else {
		err := ret.Error(1)
		if err != nil {
			r1 = err
		}
	}

	return r0, r1
}

// NewMockTextClient creates a new instance of MockTextClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockTextClient(t interface {
	mock.TestingT
	Helper()
}) *MockTextClient {
	m := &MockTextClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ ai.TextClient = (*MockTextClient)(nil)
