package archive

import (
	"context"

	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"
	"github.com/stretchr/testify/mock"
)

// MockArchiveStore is a mock implementation of ArchiveStore for testing.
type MockArchiveStore struct {
	mock.Mock
}

var _ contract.ArchiveStore = &MockArchiveStore{} // Compile-time check

// SaveRun implements the ArchiveStore interface.
func (m *MockArchiveStore) SaveRun(ctx context.Context, run schema.ArchiveRun, records []*schema.NormalizedRecord) error {
	args := m.Called(ctx, run, records)
	return args.Error(0)
}

// GetStatus implements the ArchiveStore interface.
func (m *MockArchiveStore) GetStatus() (schema.ArchiveStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.ArchiveStatus), args.Error(1)
}

// Close implements the ArchiveStore interface.
func (m *MockArchiveStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
