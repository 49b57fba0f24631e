// Package filter decides which classes a workspace load keeps. Names are
// internal class names (java/lang/String).
package filter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// ClassCategory represents the category of a class.
type ClassCategory int

const (
	// CategoryUnknown indicates the class category is unknown.
	CategoryUnknown ClassCategory = iota
	// CategoryJDK indicates platform classes.
	CategoryJDK
	// CategoryFramework indicates well-known third-party library classes.
	CategoryFramework
	// CategoryApplication indicates everything else.
	CategoryApplication
	// CategoryBusiness indicates classes under a configured business prefix.
	CategoryBusiness
)

// String returns the string representation of the category.
func (c ClassCategory) String() string {
	switch c {
	case CategoryJDK:
		return "jdk"
	case CategoryFramework:
		return "framework"
	case CategoryApplication:
		return "application"
	case CategoryBusiness:
		return "business"
	default:
		return "unknown"
	}
}

var defaultJDKPrefixes = []string{
	"java/",
	"javax/",
	"jdk/",
	"sun/",
	"com/sun/",
	"org/w3c/dom/",
	"org/xml/sax/",
	"org/ietf/jgss/",
}

var defaultFrameworkPrefixes = []string{
	"org/springframework/",
	"io/netty/",
	"com/google/common/",
	"com/google/protobuf/",
	"org/slf4j/",
	"ch/qos/logback/",
	"org/apache/logging/",
	"org/apache/commons/",
	"com/fasterxml/jackson/",
	"net/bytebuddy/",
	"org/objectweb/asm/",
	"kotlin/",
	"scala/",
	"io/opentelemetry/",
}

// Options configures a ClassFilter.
type Options struct {
	// Include keeps only names matching one of these globs. Empty keeps all.
	Include []string
	// Exclude drops names matching any of these globs.
	Exclude []string
	// SkipJDK drops platform classes.
	SkipJDK bool
	// BusinessPrefixes mark classes as CategoryBusiness.
	BusinessPrefixes []string
}

// ClassFilter classifies and selects classes by internal name. Glob
// patterns use '/' as separator: '*' stays within a package segment and
// '**' crosses segments. It is safe for concurrent use.
type ClassFilter struct {
	mu sync.RWMutex

	jdkPrefixes       []string
	frameworkPrefixes []string
	businessPrefixes  []string

	include []glob.Glob
	exclude []glob.Glob
	skipJDK bool

	categoryCache     map[string]ClassCategory
	categoryCacheSize int
}

// NewClassFilter creates a filter that keeps every class.
func NewClassFilter() *ClassFilter {
	return &ClassFilter{
		jdkPrefixes:       append([]string(nil), defaultJDKPrefixes...),
		frameworkPrefixes: append([]string(nil), defaultFrameworkPrefixes...),
		categoryCache:     make(map[string]ClassCategory),
		categoryCacheSize: 10000,
	}
}

// New creates a filter from options. Invalid glob patterns are reported.
func New(opts Options) (*ClassFilter, error) {
	f := NewClassFilter()
	f.skipJDK = opts.SkipJDK
	f.businessPrefixes = normalizePrefixes(opts.BusinessPrefixes)

	var err error
	if f.include, err = compileAll(opts.Include); err != nil {
		return nil, err
	}
	if f.exclude, err = compileAll(opts.Exclude); err != nil {
		return nil, err
	}
	return f, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(toInternal(p), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid class pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// toInternal accepts both dotted and internal spellings.
func toInternal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

func normalizePrefixes(prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, toInternal(p))
	}
	return out
}

// Allow reports whether a class with the given internal name is kept.
func (f *ClassFilter) Allow(className string) bool {
	if f.skipJDK && f.IsJDK(className) {
		return false
	}
	for _, g := range f.exclude {
		if g.Match(className) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(className) {
			return true
		}
	}
	return false
}

// Classify returns the category of a class.
func (f *ClassFilter) Classify(className string) ClassCategory {
	if className == "" {
		return CategoryUnknown
	}

	f.mu.RLock()
	cat, ok := f.categoryCache[className]
	f.mu.RUnlock()
	if ok {
		return cat
	}

	cat = f.classifyUncached(className)

	f.mu.Lock()
	if len(f.categoryCache) < f.categoryCacheSize {
		f.categoryCache[className] = cat
	}
	f.mu.Unlock()

	return cat
}

func (f *ClassFilter) classifyUncached(className string) ClassCategory {
	f.mu.RLock()
	defer f.mu.RUnlock()

	// Business prefixes win so an application can claim a shaded package.
	if hasAnyPrefix(className, f.businessPrefixes) {
		return CategoryBusiness
	}
	if hasAnyPrefix(className, f.jdkPrefixes) {
		return CategoryJDK
	}
	if hasAnyPrefix(className, f.frameworkPrefixes) {
		return CategoryFramework
	}
	return CategoryApplication
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// IsJDK returns true if the class is a platform class.
func (f *ClassFilter) IsJDK(className string) bool {
	return f.Classify(className) == CategoryJDK
}

// IsFramework returns true if the class belongs to a known library.
func (f *ClassFilter) IsFramework(className string) bool {
	return f.Classify(className) == CategoryFramework
}

// IsApplicationLevel returns true for classes that are neither JDK nor
// library code.
func (f *ClassFilter) IsApplicationLevel(className string) bool {
	cat := f.Classify(className)
	return cat == CategoryApplication || cat == CategoryBusiness
}

// AddBusinessPrefix adds a business package prefix.
func (f *ClassFilter) AddBusinessPrefix(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix = toInternal(prefix)
	for _, p := range f.businessPrefixes {
		if p == prefix {
			return
		}
	}
	f.businessPrefixes = append(f.businessPrefixes, prefix)
	f.categoryCache = make(map[string]ClassCategory)
}

// AddJDKPrefix adds a platform package prefix.
func (f *ClassFilter) AddJDKPrefix(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.jdkPrefixes = append(f.jdkPrefixes, toInternal(prefix))
	f.categoryCache = make(map[string]ClassCategory)
}

// AddFrameworkPrefix adds a library package prefix.
func (f *ClassFilter) AddFrameworkPrefix(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.frameworkPrefixes = append(f.frameworkPrefixes, toInternal(prefix))
	f.categoryCache = make(map[string]ClassCategory)
}

// CacheStats returns cache statistics.
func (f *ClassFilter) CacheStats() (size int, maxSize int) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.categoryCache), f.categoryCacheSize
}

// DefaultFilter is the default global filter instance.
var DefaultFilter = NewClassFilter()

// Classify classifies a class using the default filter.
func Classify(className string) ClassCategory {
	return DefaultFilter.Classify(className)
}

// IsJDK checks if a class is a platform class using the default filter.
func IsJDK(className string) bool {
	return DefaultFilter.IsJDK(className)
}
