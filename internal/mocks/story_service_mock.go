package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyboard-server/internal/model"
	"storyboard-server/internal/service"
)

// MockStoryService is a mock type for the StoryService type
type MockStoryService struct {
	mock.Mock
}

// GenerateStory provides a mock function with given fields: ctx, idea, sceneCount
func (_m *MockStoryService) GenerateStory(ctx context.Context, idea string, sceneCount int) (*model.Storyboard, error) {
	ret := _m.Called(ctx, idea, sceneCount)

	var r0 *model.Storyboard
	if rf, ok := ret.Get(0).(func(context.Context, string, int) *model.Storyboard); ok {
		r0 = rf(ctx, idea, sceneCount)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.Storyboard)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, int) error); ok {
		r1 = rf(ctx, idea, sceneCount)
	} else {
		err := ret.Error(1)
		if err != nil {
			r1 = err
		}
	}

	return r0, r1
}

// NewMockStoryService creates a new instance of MockStoryService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockStoryService(t interface {
	mock.TestingT
	Helper()
}) *MockStoryService {
	m := &MockStoryService{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.StoryService = (*MockStoryService)(nil)
