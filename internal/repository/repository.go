package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/classmeta/internal/classfile"
)

// ClassRepository stores and queries parsed classes.
type ClassRepository interface {
	// SaveClass inserts or replaces one class with its members and
	// interfaces.
	SaveClass(ctx context.Context, runID string, class *classfile.ClassInfo) error

	// SaveClasses saves a batch in one transaction.
	SaveClasses(ctx context.Context, runID string, classes []*classfile.ClassInfo) error

	// GetClass re-parses the stored bytes of a class.
	GetClass(ctx context.Context, name string) (*classfile.ClassInfo, error)

	// GetRecord returns the stored row without decoding the payload.
	GetRecord(ctx context.Context, name string) (*ClassRecord, error)

	// FindSubclasses returns the classes whose direct supertype is super.
	FindSubclasses(ctx context.Context, super string) ([]string, error)

	// FindImplementors returns the classes that directly implement iface.
	FindImplementors(ctx context.Context, iface string) ([]string, error)

	// FindMembers returns members named name whose descriptor starts with
	// descriptorPrefix. An empty prefix matches every descriptor.
	FindMembers(ctx context.Context, name, descriptorPrefix string) ([]MemberRecord, error)

	// ListByRun returns the class names saved by a run.
	ListByRun(ctx context.Context, runID string) ([]string, error)

	// Count returns the number of stored classes.
	Count(ctx context.Context) (int64, error)

	// Delete removes a class and its members.
	Delete(ctx context.Context, name string) error
}

// NewRunID returns an identifier for one indexing run.
func NewRunID() string {
	return uuid.NewString()
}
