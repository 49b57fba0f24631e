// Package formatter renders command results as text or JSON.
package formatter

import (
	"fmt"
	"io"
	"sort"

	"github.com/classmeta/internal/resource"
	"github.com/classmeta/internal/statistics"
	apperrors "github.com/classmeta/pkg/errors"
)

// Formatter writes a result to w.
type Formatter interface {
	// Name is the value accepted by --format.
	Name() string

	// Format writes v. Unsupported values are an error.
	Format(w io.Writer, v any) error
}

// ScanSummary is the result of loading one source.
type ScanSummary struct {
	Report    *resource.LoadReport `json:"report"`
	Stats     *statistics.Result   `json:"stats"`
	ReportURL string               `json:"report_url,omitempty"`
}

// HierarchyView is the supertype neighbourhood of one class.
type HierarchyView struct {
	Class       string              `json:"class"`
	Parents     []resource.Relation `json:"parents"`
	Children    []resource.Relation `json:"children"`
	AllParents  []string            `json:"all_parents,omitempty"`
	AllChildren []string            `json:"all_children,omitempty"`
}

// Registry manages formatter instances by name.
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry creates a registry with the text and JSON formatters.
func NewRegistry() *Registry {
	r := &Registry{formatters: make(map[string]Formatter)}
	r.Register(&TextFormatter{})
	r.Register(NewJSONFormatter())
	return r
}

// Register registers a formatter, replacing one with the same name.
func (r *Registry) Register(f Formatter) {
	r.formatters[f.Name()] = f
}

// Get returns the formatter called name.
func (r *Registry) Get(name string) (Formatter, error) {
	if f, ok := r.formatters[name]; ok {
		return f, nil
	}
	return nil, apperrors.New(apperrors.CodeInvalidInput,
		fmt.Sprintf("unknown format %q (valid: %v)", name, r.Names()))
}

// Names returns the registered formatter names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
