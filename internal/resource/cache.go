package resource

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"

	"github.com/classmeta/internal/classfile"
	apperrors "github.com/classmeta/pkg/errors"
)

// ClassParser turns class-file bytes into metadata. *classfile.Parser
// implements it.
type ClassParser interface {
	Parse(value []byte) (*classfile.ClassInfo, error)
}

// optionsReporter is implemented by parsers whose output depends on
// options; the options become part of the cache key.
type optionsReporter interface {
	Options() classfile.ParseOptions
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits   int64   `json:"hits"`
	Misses int64   `json:"misses"`
	Ratio  float64 `json:"ratio"`
	Size   int     `json:"size"`
}

// ParseCache memoizes parse results by content hash. Identical class files
// found in several archives are parsed once. Failed parses are not cached.
type ParseCache struct {
	cache otter.Cache[string, *classfile.ClassInfo]
}

// NewParseCache creates a cache holding at most capacity classes.
func NewParseCache(capacity int) (*ParseCache, error) {
	if capacity <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("cache capacity must be positive, got %d", capacity))
	}
	cache, err := otter.MustBuilder[string, *classfile.ClassInfo](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "build parse cache", err)
	}
	return &ParseCache{cache: cache}, nil
}

// Parse returns the cached result for data or parses it with p. The second
// result reports a cache hit.
func (c *ParseCache) Parse(p ClassParser, data []byte) (*classfile.ClassInfo, bool, error) {
	key := cacheKey(p, data)
	if ci, ok := c.cache.Get(key); ok {
		return ci, true, nil
	}
	ci, err := p.Parse(data)
	if err != nil {
		return nil, false, err
	}
	c.cache.Set(key, ci)
	return ci, false, nil
}

// Stats returns the hit and miss counters.
func (c *ParseCache) Stats() CacheStats {
	s := c.cache.Stats()
	return CacheStats{
		Hits:   s.Hits(),
		Misses: s.Misses(),
		Ratio:  s.Ratio(),
		Size:   c.cache.Size(),
	}
}

// Clear drops every entry.
func (c *ParseCache) Clear() {
	c.cache.Clear()
}

// Close releases the cache.
func (c *ParseCache) Close() {
	c.cache.Close()
}

func cacheKey(p ClassParser, data []byte) string {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if r, ok := p.(optionsReporter); ok {
		o := r.Options()
		key = fmt.Sprintf("%t%t:%s", o.SkipCode, o.SkipDebug, key)
	}
	return key
}
