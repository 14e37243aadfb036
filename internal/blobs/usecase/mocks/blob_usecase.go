// Package mocks provides mock implementations of the blob store interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockBlobUseCase is a mock implementation of BlobUseCase for testing.
type MockBlobUseCase struct {
	mock.Mock
}

// LocationFor mocks the LocationFor method of BlobUseCase.
func (m *MockBlobUseCase) LocationFor(code string) string {
	args := m.Called(code)
	return args.String(0)
}

// Save mocks the Save method of BlobUseCase.
func (m *MockBlobUseCase) Save(ctx context.Context, code, payload string) error {
	args := m.Called(ctx, code, payload)
	return args.Error(0)
}

// Fetch mocks the Fetch method of BlobUseCase.
func (m *MockBlobUseCase) Fetch(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

// MockRecordRepository is a mock implementation of RecordRepository for testing.
type MockRecordRepository struct {
	mock.Mock
}

// Get mocks the Get method of RecordRepository.
func (m *MockRecordRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Put mocks the Put method of RecordRepository.
func (m *MockRecordRepository) Put(ctx context.Context, key string, record []byte) error {
	args := m.Called(ctx, key, record)
	return args.Error(0)
}
