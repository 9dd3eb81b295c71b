package contract

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCommandRunner is a mock implementation of CommandRunner for testing.
type MockCommandRunner struct {
	mock.Mock
}

var _ CommandRunner = &MockCommandRunner{} // Compile-time check

// Run implements the CommandRunner interface.
func (m *MockCommandRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	mockArgs := []any{ctx, dir, name}
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// LookPath implements the CommandRunner interface.
func (m *MockCommandRunner) LookPath(name string) (string, error) {
	ret := m.Called(name)
	return ret.String(0), ret.Error(1)
}

// Start implements the CommandRunner interface.
func (m *MockCommandRunner) Start(ctx context.Context, dir string, name string, args ...string) (func() error, error) {
	mockArgs := []any{ctx, dir, name}
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	stop, _ := ret.Get(0).(func() error)
	return stop, ret.Error(1)
}
