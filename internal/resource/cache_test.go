package resource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/internal/mock"
	apperrors "github.com/classmeta/pkg/errors"
)

func TestNewParseCache_InvalidCapacity(t *testing.T) {
	_, err := NewParseCache(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestParseCache_HitAndMiss(t *testing.T) {
	c, err := NewParseCache(100)
	require.NoError(t, err)
	defer c.Close()

	data := classBytes("a/B", "java/lang/Object")
	ci := mustParse(t, data)

	p := new(mock.MockParser)
	p.ExpectParse(data, ci, nil).Once()

	got, hit, err := c.Parse(p, data)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Same(t, ci, got)

	got, hit, err = c.Parse(p, data)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, ci, got)

	p.AssertExpectations(t)
	p.AssertNumberOfCalls(t, "Parse", 1)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestParseCache_FailuresNotCached(t *testing.T) {
	c, err := NewParseCache(10)
	require.NoError(t, err)
	defer c.Close()

	boom := errors.New("boom")
	p := new(mock.MockParser)
	p.ExpectAnyParse(nil, boom).Twice()

	for i := 0; i < 2; i++ {
		_, hit, err := c.Parse(p, []byte("bad"))
		assert.ErrorIs(t, err, boom)
		assert.False(t, hit)
	}
	p.AssertNumberOfCalls(t, "Parse", 2)
}

func TestParseCache_KeyIncludesOptions(t *testing.T) {
	data := classBytes("a/B", "java/lang/Object")
	fast := classfile.NewParser(nil)
	full := classfile.NewParser(classfile.FullParseOptions())

	assert.NotEqual(t, cacheKey(fast, data), cacheKey(full, data))
	assert.Equal(t, cacheKey(fast, data), cacheKey(classfile.NewParser(nil), data))

	// Parsers without options use the bare content hash.
	assert.Len(t, cacheKey(new(mock.MockParser), data), 64)
}

func TestParseCache_Clear(t *testing.T) {
	c, err := NewParseCache(10)
	require.NoError(t, err)
	defer c.Close()

	p := classfile.NewParser(nil)
	_, _, err = c.Parse(p, classBytes("a/B", "java/lang/Object"))
	require.NoError(t, err)

	c.Clear()
	_, hit, err := c.Parse(p, classBytes("a/B", "java/lang/Object"))
	require.NoError(t, err)
	assert.False(t, hit)
}
