package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classmeta/internal/service"
	"github.com/classmeta/internal/testutil"
	apperrors "github.com/classmeta/pkg/errors"
)

// resetFlags restores flag variables; cobra keeps them between executions.
func resetFlags() {
	cfgFile, verbose, outputFormat = "", false, "text"
	inspectFull, hierarchyAll = false, false
	scanInclude, scanExclude, scanBusiness = nil, nil, nil
	scanSkipJDK, scanKeepFiles, scanNested, scanShowTiming = false, false, false, false
	scanWorkers, scanTopN = 0, 15
	scanOutput, scanUploadKey = "", ""
	indexBatchSize = service.DefaultBatchSize
	queryDescriptor = ""
	versionShort = false
	pprofEnabled, pprofMode, pprofDir, pprofProfiles, pprofAddr = false, "file", "./pprof", "cpu,heap", "localhost:6060"
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// writeProject writes a config file and a class directory into a temp dir.
func writeProject(t *testing.T) (configPath, classDir string) {
	t.Helper()
	dir := t.TempDir()
	classDir = filepath.Join(dir, "classes")

	testutil.WriteFile(t, classDir, "com/acme/Animal.class", testutil.NewClassBuilder("com/acme/Animal").
		Access(testutil.AccPublic|testutil.AccAbstract|testutil.AccSuper).
		Interfaces("com/acme/Named").Bytes())
	testutil.WriteFile(t, classDir, "com/acme/Dog.class", testutil.NewClassBuilder("com/acme/Dog").
		Super("com/acme/Animal").
		Field(testutil.AccPrivate, "name", "Ljava/lang/String;").
		Method(testutil.AccPublic, "bark", "()V").Bytes())
	testutil.WriteFile(t, classDir, "com/acme/Broken.class", []byte{0xCA, 0xFE})

	configPath = filepath.Join(dir, "classmeta.yaml")
	content := "database:\n" +
		"  type: sqlite\n" +
		"  path: " + filepath.Join(dir, "index.db") + "\n" +
		"storage:\n" +
		"  type: local\n" +
		"  local_path: " + filepath.Join(dir, "storage") + "\n" +
		"workspace:\n" +
		"  max_worker: 2\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath, classDir
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version dev")
	assert.Contains(t, out, "Go Version:")
	assert.Contains(t, out, "Class files: up to major 69 (Java 25)")

	out, _, err = execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestUnknownFormat(t *testing.T) {
	_, _, err := execute(t, "version", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetErrorCode(err))
}

func TestPprofFlags(t *testing.T) {
	dir := t.TempDir()
	_, stderr, err := execute(t, "version", "--pprof", "--pprof-dir", dir, "--pprof-profiles", "heap")
	require.NoError(t, err)
	assert.Contains(t, stderr, "pprof data saved to: ")

	matches, err := filepath.Glob(filepath.Join(dir, "heap-*.pprof"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	_, _, err = execute(t, "version", "--pprof", "--pprof-mode", "tcp")
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	cfg, dir := writeProject(t)

	out, _, err := execute(t, "-c", cfg, "inspect", filepath.Join(dir, "com/acme/Dog.class"))
	require.NoError(t, err)
	assert.Contains(t, out, "public class com.acme.Dog extends com.acme.Animal\n")
	assert.Contains(t, out, "private java.lang.String name")

	out, _, err = execute(t, "-c", cfg, "inspect", dir, "com.acme.Animal")
	require.NoError(t, err)
	assert.Contains(t, out, "public abstract class com.acme.Animal implements com.acme.Named")

	_, _, err = execute(t, "-c", cfg, "inspect", dir, "com.acme.Cat")
	assert.True(t, apperrors.IsNotFound(err))

	_, _, err = execute(t, "-c", cfg, "inspect", filepath.Join(dir, "com/acme/Broken.class"))
	assert.True(t, apperrors.IsTruncated(err))
}

func TestScan(t *testing.T) {
	cfg, dir := writeProject(t)
	summaryPath := filepath.Join(t.TempDir(), "summary.json")

	out, stderr, err := execute(t, "-c", cfg, "-f", "json", "scan", dir, "-o", summaryPath, "--business", "com.acme")
	require.NoError(t, err)
	assert.Contains(t, stderr, "1 entries could not be parsed")

	var summary struct {
		Report struct {
			Classes  int `json:"classes"`
			Failures []struct {
				Path string `json:"path"`
			} `json:"failures"`
		} `json:"report"`
		Stats struct {
			TotalClasses int            `json:"total_classes"`
			Categories   map[string]int `json:"categories"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Report.Classes)
	require.Len(t, summary.Report.Failures, 1)
	assert.Equal(t, "com/acme/Broken.class", summary.Report.Failures[0].Path)
	assert.Equal(t, 2, summary.Stats.Categories["business"])

	saved, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	assert.JSONEq(t, out, string(saved))
}

func TestScan_ExcludeAndUpload(t *testing.T) {
	cfg, dir := writeProject(t)

	out, _, err := execute(t, "-c", cfg, "scan", dir, "--exclude", "com/acme/Dog", "--upload-report", "reports/scan.json.gz")
	require.NoError(t, err)
	assert.Contains(t, out, "Classes:     1")
	assert.Contains(t, out, "Filtered:    1")
	assert.Contains(t, out, "Report: ")

	storageDir := filepath.Join(filepath.Dir(cfg), "storage")
	assert.True(t, testutil.FileExists(t, filepath.Join(storageDir, "reports", "scan.json.gz")))
}

func TestHierarchy(t *testing.T) {
	cfg, dir := writeProject(t)

	out, _, err := execute(t, "-c", cfg, "hierarchy", dir, "com.acme.Animal", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "com.acme.Animal\n")
	assert.Contains(t, out, "extends    java.lang.Object")
	assert.Contains(t, out, "implements com.acme.Named")
	assert.Contains(t, out, "  children:\n    extends    com.acme.Dog\n")
	assert.Contains(t, out, "all subtypes (1):")

	_, _, err = execute(t, "-c", cfg, "hierarchy", dir, "com.acme.Cat")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestIndexAndQuery(t *testing.T) {
	cfg, dir := writeProject(t)

	out, _, err := execute(t, "-c", cfg, "index", dir, "--batch-size", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 2 classes in 2 batches")

	out, _, err = execute(t, "-c", cfg, "query", "count")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, _, err = execute(t, "-c", cfg, "query", "subclasses", "com.acme.Animal")
	require.NoError(t, err)
	assert.Equal(t, "com/acme/Dog\n", out)

	out, _, err = execute(t, "-c", cfg, "query", "implementors", "com/acme/Named")
	require.NoError(t, err)
	assert.Equal(t, "com/acme/Animal\n", out)

	out, _, err = execute(t, "-c", cfg, "query", "members", "bark", "--descriptor", "()")
	require.NoError(t, err)
	assert.Equal(t, "com.acme.Dog  public void bark()\n", out)

	out, _, err = execute(t, "-c", cfg, "query", "class", "com.acme.Dog")
	require.NoError(t, err)
	assert.Contains(t, out, "public class com.acme.Dog extends com.acme.Animal")

	_, _, err = execute(t, "-c", cfg, "query", "class", "com.acme.Cat")
	assert.True(t, apperrors.IsNotFound(err))
}
