package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/internal/repository"
)

// MockClassRepository is a mock implementation of the ClassRepository interface.
type MockClassRepository struct {
	mock.Mock
}

// SaveClass mocks the SaveClass method.
func (m *MockClassRepository) SaveClass(ctx context.Context, runID string, class *classfile.ClassInfo) error {
	args := m.Called(ctx, runID, class)
	return args.Error(0)
}

// SaveClasses mocks the SaveClasses method.
func (m *MockClassRepository) SaveClasses(ctx context.Context, runID string, classes []*classfile.ClassInfo) error {
	args := m.Called(ctx, runID, classes)
	return args.Error(0)
}

// GetClass mocks the GetClass method.
func (m *MockClassRepository) GetClass(ctx context.Context, name string) (*classfile.ClassInfo, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*classfile.ClassInfo), args.Error(1)
}

// GetRecord mocks the GetRecord method.
func (m *MockClassRepository) GetRecord(ctx context.Context, name string) (*repository.ClassRecord, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ClassRecord), args.Error(1)
}

// FindSubclasses mocks the FindSubclasses method.
func (m *MockClassRepository) FindSubclasses(ctx context.Context, super string) ([]string, error) {
	args := m.Called(ctx, super)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// FindImplementors mocks the FindImplementors method.
func (m *MockClassRepository) FindImplementors(ctx context.Context, iface string) ([]string, error) {
	args := m.Called(ctx, iface)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// FindMembers mocks the FindMembers method.
func (m *MockClassRepository) FindMembers(ctx context.Context, name, descriptorPrefix string) ([]repository.MemberRecord, error) {
	args := m.Called(ctx, name, descriptorPrefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.MemberRecord), args.Error(1)
}

// ListByRun mocks the ListByRun method.
func (m *MockClassRepository) ListByRun(ctx context.Context, runID string) ([]string, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Count mocks the Count method.
func (m *MockClassRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockClassRepository) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// ExpectSaveClasses sets up an expectation for SaveClasses with any run
// and batch.
func (m *MockClassRepository) ExpectSaveClasses(err error) *mock.Call {
	return m.On("SaveClasses", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(err)
}

// ExpectCount sets up an expectation for Count.
func (m *MockClassRepository) ExpectCount(n int64, err error) *mock.Call {
	return m.On("Count", mock.Anything).Return(n, err)
}

var _ repository.ClassRepository = (*MockClassRepository)(nil)
