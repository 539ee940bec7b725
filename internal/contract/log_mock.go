package contract

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockLogSource is a mock implementation of LogSource for testing.
type MockLogSource struct {
	mock.Mock
}

var _ LogSource = &MockLogSource{} // Compile-time check

// ListLogFiles implements the LogSource interface.
func (m *MockLogSource) ListLogFiles(ctx context.Context, dir string) ([]string, error) {
	ret := m.Called(ctx, dir)
	files, _ := ret.Get(0).([]string)
	return files, ret.Error(1)
}

// ReadLogFile implements the LogSource interface.
func (m *MockLogSource) ReadLogFile(ctx context.Context, path string) ([]byte, error) {
	ret := m.Called(ctx, path)
	data, _ := ret.Get(0).([]byte)
	return data, ret.Error(1)
}
