package resource

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classmeta/internal/testutil"
	"github.com/classmeta/pkg/filter"
)

func loadForWatch(t *testing.T, dir string, l *Loader) *Resource {
	t.Helper()
	res, _, err := l.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	return res
}

func TestWatcher_Apply(t *testing.T) {
	dir := t.TempDir()
	bPath := testutil.WriteFile(t, dir, "a/B.class", classBytes("a/B", "java/lang/Object"))
	l := NewLoader()
	res := loadForWatch(t, dir, l)

	w, err := NewWatcher(dir, res, l)
	require.NoError(t, err)
	defer w.Stop()

	t.Run("Update", func(t *testing.T) {
		testutil.WriteFile(t, dir, "a/B.class", classBytes("a/B", "a/Base"))
		cPath := testutil.WriteFile(t, dir, "a/C.class", classBytes("a/C", "a/B"))

		changes := w.Apply([]string{cPath, bPath})
		require.Len(t, changes, 2)
		assert.Equal(t, Change{Path: "a/B.class", Class: "a/B", Kind: ChangeUpdated}, changes[0])
		assert.Equal(t, ChangeUpdated, changes[1].Kind)

		ci, ok := res.GetClass("a/B")
		require.True(t, ok)
		assert.Equal(t, "a/Base", ci.SuperName())
		assert.Equal(t, []string{"a/B", "a/C"}, res.ClassNames())
	})

	t.Run("BrokenKeepsPrevious", func(t *testing.T) {
		testutil.WriteFile(t, dir, "a/B.class", []byte{0xCA, 0xFE})

		changes := w.Apply([]string{bPath})
		require.Len(t, changes, 1)
		assert.Equal(t, ChangeFailed, changes[0].Kind)
		assert.Error(t, changes[0].Err)

		_, ok := res.GetClass("a/B")
		assert.True(t, ok)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, os.Remove(bPath))

		changes := w.Apply([]string{bPath})
		require.Len(t, changes, 1)
		assert.Equal(t, Change{Path: "a/B.class", Class: "a/B", Kind: ChangeRemoved}, changes[0])
		assert.Equal(t, []string{"a/C"}, res.ClassNames())
	})
}

func TestWatcher_ApplyFiltered(t *testing.T) {
	dir := t.TempDir()
	f, err := filter.New(filter.Options{Exclude: []string{"gen/**"}})
	require.NoError(t, err)
	l := NewLoader(WithFilter(f))
	res := New(dir, nil)

	w, err := NewWatcher(dir, res, l)
	require.NoError(t, err)
	defer w.Stop()

	p := testutil.WriteFile(t, dir, "gen/Stub.class", classBytes("gen/Stub", "java/lang/Object"))
	changes := w.Apply([]string{p})
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeFiltered, changes[0].Kind)
	assert.Equal(t, 0, res.Len())
}

func TestWatcher_Events(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader()
	res := New(dir, nil)

	var mu sync.Mutex
	var seen []Change
	w, err := NewWatcher(dir, res, l,
		WithDebounce(20*time.Millisecond),
		WithOnChange(func(c []Change) {
			mu.Lock()
			seen = append(seen, c...)
			mu.Unlock()
		}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	// A class written into a directory created after the watch began.
	testutil.WriteFile(t, dir, "pkg/sub/New.class", classBytes("pkg/sub/New", "java/lang/Object"))
	testutil.WriteFile(t, dir, "notes.txt", []byte("ignored"))

	require.Eventually(t, func() bool {
		_, ok := res.GetClass("pkg/sub/New")
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(dir, "pkg", "sub", "New.class")))
	require.Eventually(t, func() bool {
		return res.Len() == 0
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, c := range seen {
		assert.NotEqual(t, "notes.txt", c.Path)
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), New("x", nil), NewLoader())
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
	<-w.Done()
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), New("x", nil), NewLoader())
	assert.Error(t, err)
}
