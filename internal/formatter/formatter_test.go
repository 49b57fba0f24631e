package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/internal/repository"
	"github.com/classmeta/internal/resource"
	"github.com/classmeta/internal/statistics"
	"github.com/classmeta/internal/testutil"
	apperrors "github.com/classmeta/pkg/errors"
)

func parseFull(t *testing.T, b *testutil.ClassBuilder) *classfile.ClassInfo {
	t.Helper()
	ci, err := classfile.NewParser(classfile.FullParseOptions()).Parse(b.Bytes())
	require.NoError(t, err)
	return ci
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"json", "text"}, r.Names())

	f, err := r.Get("text")
	require.NoError(t, err)
	assert.Equal(t, "text", f.Name())

	_, err = r.Get("yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "yaml")
}

func TestTextFormatter_Class(t *testing.T) {
	ci := parseFull(t, testutil.NewClassBuilder("com/example/Dog").
		Super("com/example/Animal").
		Interfaces("java/io/Serializable").
		SourceFile("Dog.java").
		Field(testutil.AccPrivate, "age", "I").
		Method(testutil.AccPublic, "bark", "()V",
			testutil.CodeAttribute([]byte{0xB1}, "")))

	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).Format(&buf, ci))
	out := buf.String()

	assert.Contains(t, out, "public class com.example.Dog extends com.example.Animal implements java.io.Serializable\n")
	assert.Contains(t, out, "version:     52.0 (Java 8)")
	assert.Contains(t, out, "source file: Dog.java")
	assert.Contains(t, out, "fields (1):\n    private int age\n")
	assert.Contains(t, out, "methods (1):\n    public void bark()")
	assert.Contains(t, out, "code=1 bytes")
}

func TestClassHeader(t *testing.T) {
	iface := parseFull(t, testutil.NewClassBuilder("a/Repo").
		Access(testutil.AccPublic|testutil.AccInterface|testutil.AccAbstract).
		Interfaces("a/Base", "a/Other"))
	assert.Equal(t, "public interface a.Repo extends a.Base, a.Other", classHeader(iface))

	plain := parseFull(t, testutil.NewClassBuilder("a/Plain").Access(testutil.AccFinal|testutil.AccSuper))
	assert.Equal(t, "final class a.Plain", classHeader(plain))
}

func TestTextFormatter_Scan(t *testing.T) {
	summary := &ScanSummary{
		Report: &resource.LoadReport{
			Source:   "app.jar",
			Entries:  3,
			Classes:  2,
			Duration: 1500 * time.Millisecond,
			Failures: []resource.LoadFailure{{Path: "a/Bad.class", Code: apperrors.CodeFormatError, Message: "bad magic"}},
		},
		Stats: &statistics.Result{
			Packages:    1,
			TopPackages: []statistics.PackageEntry{{Name: "a", Classes: 2, Percent: 100}},
			Kinds:       map[string]int{"class": 2},
		},
		ReportURL: "https://example.invalid/r.json.gz",
	}

	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).Format(&buf, summary))
	out := buf.String()

	assert.Contains(t, out, "Source:      app.jar")
	assert.Contains(t, out, "Failures:    1")
	assert.Contains(t, out, "  - a/Bad.class [FORMAT_ERROR] bad magic")
	assert.Contains(t, out, "100.00%")
	assert.Contains(t, out, "=== Kinds ===")
	assert.Contains(t, out, "Report: https://example.invalid/r.json.gz")
}

func TestTextFormatter_Hierarchy(t *testing.T) {
	view := &HierarchyView{
		Class:       "zoo/Dog",
		Parents:     []resource.Relation{{Name: "zoo/Animal", Kind: "extends"}},
		Children:    []resource.Relation{{Name: "zoo/Puppy", Kind: "extends"}},
		AllParents:  []string{"java/lang/Object", "zoo/Animal"},
		AllChildren: []string{"zoo/Puppy"},
	}

	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).Format(&buf, view))
	out := buf.String()
	assert.Contains(t, out, "zoo.Dog\n  parents:\n    extends    zoo.Animal\n")
	assert.Contains(t, out, "all supertypes (2):")
	assert.Contains(t, out, "all subtypes (1):\n    zoo.Puppy\n")
}

func TestTextFormatter_MembersAndChanges(t *testing.T) {
	var buf bytes.Buffer
	f := &TextFormatter{}

	require.NoError(t, f.Format(&buf, []repository.MemberRecord{
		{ClassName: "a/B", Kind: "field", Name: "count", Descriptor: "I", Access: int(classfile.AccPrivate)},
		{ClassName: "a/B", Kind: "method", Name: "run", Descriptor: "()V", Access: int(classfile.AccPublic)},
	}))
	assert.Equal(t, "a.B  private int count\na.B  public void run()\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Format(&buf, []resource.Change{
		{Path: "a/B.class", Class: "a/B", Kind: resource.ChangeUpdated},
		{Path: "a/C.class", Kind: resource.ChangeRemoved},
		{Path: "a/D.class", Kind: resource.ChangeFailed, Err: errors.New("truncated")},
	}))
	assert.Equal(t, "updated  a.B (a/B.class)\nremoved  a/C.class\nfailed   a/D.class: truncated\n", buf.String())
}

func TestTextFormatter_Unsupported(t *testing.T) {
	err := (&TextFormatter{}).Format(&bytes.Buffer{}, 42)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestJSONFormatter(t *testing.T) {
	ci := parseFull(t, testutil.NewClassBuilder("a/B").NoSuper())

	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, ci))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "a/B", got["name"])
	assert.Nil(t, got["super_name"])
}

type stringerValue struct{}

func (stringerValue) String() string { return "indexed 3 classes" }

func TestTextFormatter_Scalars(t *testing.T) {
	var buf bytes.Buffer
	f := &TextFormatter{}
	require.NoError(t, f.Format(&buf, int64(42)))
	require.NoError(t, f.Format(&buf, stringerValue{}))
	require.NoError(t, f.Format(&buf, []string{"a/B", "a/C"}))
	assert.Equal(t, "42\nindexed 3 classes\na/B\na/C\n", buf.String())
}
