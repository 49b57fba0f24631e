package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeFormatError, "bad magic"),
			expected: "[FORMAT_ERROR] bad magic",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeStorageError, "download failed", errors.New("network timeout")),
			expected: "[STORAGE_ERROR] download failed: network timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeDatabaseError, "save failed", underlying)

	assert.Equal(t, underlying, err.Unwrap())
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeFormatError, "error 1")
	err2 := New(CodeFormatError, "error 2")
	err3 := New(CodeTruncated, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIsFormatError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"format error", ErrFormat, true},
		{"truncation counts as format", New(CodeTruncated, "eof"), true},
		{"wrapped with fmt", fmt.Errorf("read Foo.class: %w", New(CodeFormatError, "bad magic")), true},
		{"storage error", ErrStorageError, false},
		{"plain error", errors.New("boom"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFormatError(tt.err))
		})
	}
}

func TestIsTruncated(t *testing.T) {
	assert.True(t, IsTruncated(Wrap(CodeTruncated, "eof", nil)))
	assert.False(t, IsTruncated(ErrFormat))
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsNotFound(Wrap(CodeNotFound, "class missing", nil)))
	assert.True(t, IsStorageError(ErrStorageError))
	assert.True(t, IsDatabaseError(fmt.Errorf("outer: %w", ErrDatabaseError)))
	assert.False(t, IsNotFound(ErrDatabaseError))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeTruncated, GetErrorCode(New(CodeTruncated, "eof")))
	assert.Equal(t, CodeFormatError, GetErrorCode(fmt.Errorf("wrap: %w", ErrFormat)))
	assert.Equal(t, CodeUnknown, GetErrorCode(errors.New("plain")))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "bad magic", GetErrorMessage(New(CodeFormatError, "bad magic")))
	assert.Equal(t, "plain", GetErrorMessage(errors.New("plain")))
	assert.Equal(t, "", GetErrorMessage(nil))
}
