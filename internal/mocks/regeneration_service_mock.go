package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyboard-server/internal/service"
)

// MockRegenerationService is a mock type for the RegenerationService type
type MockRegenerationService struct {
	mock.Mock
}

// RegenerateScene provides a mock function with given fields: ctx, narration, feedback
func (_m *MockRegenerationService) RegenerateScene(ctx context.Context, narration string, feedback string) (*service.RegenerationResult, error) {
	ret := _m.Called(ctx, narration, feedback)

	var r0 *service.RegenerationResult
	if rf, ok := ret.Get(0).(func(context.Context, string, string) *service.RegenerationResult); ok {
		r0 = rf(ctx, narration, feedback)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*service.RegenerationResult)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, narration, feedback)
	} else {
		err := ret.Error(1)
		if err != nil {
			r1 = err
		}
	}

	return r0, r1
}

// NewMockRegenerationService creates a new instance of MockRegenerationService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockRegenerationService(t interface {
	mock.TestingT
	Helper()
}) *MockRegenerationService {
	m := &MockRegenerationService{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.RegenerationService = (*MockRegenerationService)(nil)
