package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/classmeta/pkg/errors"
)

func sampleHierarchy(t *testing.T) *Hierarchy {
	t.Helper()
	r := New("zoo", nil)
	put := func(name, super string, ifaces ...string) {
		r.PutClass(mustParse(t, classBytes(name, super, ifaces...)), name+".class")
	}
	put("java/lang/Object", "")
	put("zoo/Animal", "java/lang/Object", "zoo/Named")
	put("zoo/Dog", "zoo/Animal", "java/io/Serializable", "zoo/Pet")
	put("zoo/Puppy", "zoo/Dog")
	put("zoo/Cat", "zoo/Animal", "zoo/Pet")
	return NewHierarchy(r)
}

func TestHierarchy_Parents(t *testing.T) {
	h := sampleHierarchy(t)

	parents, err := h.Parents("zoo/Dog")
	require.NoError(t, err)
	assert.Equal(t, []Relation{
		{Name: "zoo/Animal", Kind: "extends"},
		{Name: "java/io/Serializable", Kind: "implements"},
		{Name: "zoo/Pet", Kind: "implements"},
	}, parents)

	parents, err = h.Parents("java/lang/Object")
	require.NoError(t, err)
	assert.Empty(t, parents)
	assert.NotNil(t, parents)

	// Referenced but not loaded.
	parents, err = h.Parents("zoo/Pet")
	require.NoError(t, err)
	assert.Empty(t, parents)

	_, err = h.Parents("zoo/Unicorn")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHierarchy_Children(t *testing.T) {
	h := sampleHierarchy(t)

	children, err := h.Children("zoo/Animal")
	require.NoError(t, err)
	assert.Equal(t, []Relation{
		{Name: "zoo/Cat", Kind: "extends"},
		{Name: "zoo/Dog", Kind: "extends"},
	}, children)

	children, err = h.Children("zoo/Pet")
	require.NoError(t, err)
	assert.Equal(t, []Relation{
		{Name: "zoo/Cat", Kind: "implements"},
		{Name: "zoo/Dog", Kind: "implements"},
	}, children)

	children, err = h.Children("zoo/Puppy")
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = h.Children("zoo/Unicorn")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHierarchy_Transitive(t *testing.T) {
	h := sampleHierarchy(t)

	all, err := h.AllParents("zoo/Puppy")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"java/io/Serializable",
		"java/lang/Object",
		"zoo/Animal",
		"zoo/Dog",
		"zoo/Named",
		"zoo/Pet",
	}, all)

	all, err = h.AllChildren("zoo/Animal")
	require.NoError(t, err)
	assert.Equal(t, []string{"zoo/Cat", "zoo/Dog", "zoo/Puppy"}, all)

	all, err = h.AllChildren("zoo/Puppy")
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = h.AllParents("zoo/Unicorn")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHierarchy_SuperChain(t *testing.T) {
	h := sampleHierarchy(t)

	chain, err := h.SuperChain("zoo/Puppy")
	require.NoError(t, err)
	assert.Equal(t, []string{"zoo/Dog", "zoo/Animal", "java/lang/Object"}, chain)
}

func TestHierarchy_LenAndContains(t *testing.T) {
	h := sampleHierarchy(t)

	// Five classes plus Named, Pet and Serializable.
	assert.Equal(t, 8, h.Len())
	assert.True(t, h.Contains("zoo/Pet"))
	assert.False(t, h.Contains("zoo/Unicorn"))
}

func TestHierarchy_Cycles(t *testing.T) {
	h := sampleHierarchy(t)
	cycles, err := h.Cycles()
	require.NoError(t, err)
	assert.Empty(t, cycles)

	r := New("cyclic", nil)
	r.PutClass(mustParse(t, classBytes("c/A", "c/B")), "c/A.class")
	r.PutClass(mustParse(t, classBytes("c/B", "c/A")), "c/B.class")
	r.PutClass(mustParse(t, classBytes("c/C", "c/A")), "c/C.class")
	h = NewHierarchy(r)

	cycles, err = h.Cycles()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c/A", "c/B"}}, cycles)

	// Traversal terminates on cyclic input.
	all, err := h.AllParents("c/C")
	require.NoError(t, err)
	assert.Equal(t, []string{"c/A", "c/B"}, all)

	chain, err := h.SuperChain("c/A")
	require.NoError(t, err)
	assert.Equal(t, []string{"c/B"}, chain)
}
