package classfile

import (
	"fmt"

	apperrors "github.com/classmeta/pkg/errors"
)

// ErrorKind classifies a FormatError.
type ErrorKind int

const (
	// ErrKindMagic means the buffer does not start with 0xCAFEBABE.
	ErrKindMagic ErrorKind = iota
	// ErrKindVersion means the major/minor version is not supported.
	ErrKindVersion
	// ErrKindTruncated means the buffer ended inside a declared structure.
	ErrKindTruncated
	// ErrKindConstantPool means a constant pool entry or reference is invalid.
	ErrKindConstantPool
	// ErrKindAttribute means an attribute is inconsistent with its length.
	ErrKindAttribute
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindMagic:
		return "magic"
	case ErrKindVersion:
		return "version"
	case ErrKindTruncated:
		return "truncated"
	case ErrKindConstantPool:
		return "constant pool"
	case ErrKindAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// FormatError reports why a buffer is not a valid or complete class file.
// It unwraps to apperrors.ErrTruncated for truncation and to
// apperrors.ErrFormat for everything else, so callers can use
// apperrors.IsFormatError without importing this package.
type FormatError struct {
	Kind   ErrorKind
	Offset int
	Msg    string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("class file %s error at offset %d: %s", e.Kind, e.Offset, e.Msg)
}

// Unwrap returns the application error category.
func (e *FormatError) Unwrap() error {
	if e.Kind == ErrKindTruncated {
		return apperrors.ErrTruncated
	}
	return apperrors.ErrFormat
}

func newFormatError(kind ErrorKind, offset int, format string, args ...interface{}) *FormatError {
	return &FormatError{
		Kind:   kind,
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
	}
}
