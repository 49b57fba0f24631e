package integration

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classmeta/internal/formatter"
	"github.com/classmeta/internal/resource"
	"github.com/classmeta/internal/service"
	"github.com/classmeta/internal/statistics"
	"github.com/classmeta/internal/testutil"
	"github.com/classmeta/pkg/config"
	"github.com/classmeta/pkg/utils"
)

func newService(t *testing.T) *service.Service {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = ":memory:"
	cfg.Storage.LocalPath = t.TempDir()
	cfg.Workspace.MaxWorker = 4

	svc, err := service.New(cfg, utils.NewDefaultLogger(utils.LevelDebug, io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

// appJar builds a jar with a small service layer and one corrupt entry.
func appJar(t *testing.T) []byte {
	entries := map[string][]byte{
		"com/shop/Repository.class": testutil.NewClassBuilder("com/shop/Repository").
			Access(testutil.AccPublic | testutil.AccInterface | testutil.AccAbstract).
			Method(testutil.AccPublic|testutil.AccAbstract, "findById", "(J)Ljava/lang/Object;").Bytes(),
		"com/shop/BaseRepository.class": testutil.NewClassBuilder("com/shop/BaseRepository").
			Access(testutil.AccPublic | testutil.AccAbstract | testutil.AccSuper).
			Interfaces("com/shop/Repository").Bytes(),
		"com/shop/OrderRepository.class": testutil.NewClassBuilder("com/shop/OrderRepository").
			Super("com/shop/BaseRepository").
			Field(testutil.AccPrivate|testutil.AccFinal, "table", "Ljava/lang/String;").
			Method(testutil.AccPublic, "findById", "(J)Ljava/lang/Object;").Bytes(),
		"com/shop/util/Ids.class": testutil.NewClassBuilder("com/shop/util/Ids").Version(61, 0).Bytes(),
		"com/shop/Corrupt.class":  []byte("not a class"),
		"META-INF/MANIFEST.MF":    []byte("Manifest-Version: 1.0\n"),
	}
	names := []string{
		"META-INF/MANIFEST.MF",
		"com/shop/Repository.class",
		"com/shop/BaseRepository.class",
		"com/shop/OrderRepository.class",
		"com/shop/util/Ids.class",
		"com/shop/Corrupt.class",
	}
	return testutil.JarBytes(t, names, entries)
}

func TestPipeline_ScanHierarchyIndexQuery(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	jar := testutil.WriteFile(t, t.TempDir(), "shop.jar", appJar(t))

	// Load
	res, report, err := svc.Load(ctx, jar, resource.WithKeepFiles(true))
	require.NoError(t, err)
	assert.Equal(t, 6, report.Entries)
	assert.Equal(t, 4, report.Classes)
	assert.Equal(t, 1, report.Files)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "com/shop/Corrupt.class", report.Failures[0].Path)

	// Statistics
	stats := statistics.NewCalculator().Calculate(res.Classes())
	assert.Equal(t, 4, stats.TotalClasses)
	assert.Equal(t, 2, stats.Packages)
	assert.Equal(t, 3, stats.Versions["52.0 (Java 8)"])

	// Hierarchy
	h := resource.NewHierarchy(res)
	chain, err := h.SuperChain("com/shop/OrderRepository")
	require.NoError(t, err)
	assert.Equal(t, []string{"com/shop/BaseRepository", "java/lang/Object"}, chain)

	subtypes, err := h.AllChildren("com/shop/Repository")
	require.NoError(t, err)
	assert.Equal(t, []string{"com/shop/BaseRepository", "com/shop/OrderRepository"}, subtypes)

	// Index and query
	result, err := svc.Index(ctx, res, service.WithBatchSize(3))
	require.NoError(t, err)
	assert.Equal(t, 4, result.Classes)
	assert.Equal(t, 2, result.Batches)
	assert.Equal(t, int64(4), result.Total)

	impls, err := svc.Classes().FindImplementors(ctx, "com/shop/Repository")
	require.NoError(t, err)
	assert.Equal(t, []string{"com/shop/BaseRepository"}, impls)

	members, err := svc.Classes().FindMembers(ctx, "findById", "(J)")
	require.NoError(t, err)
	require.Len(t, members, 2)

	stored, err := svc.Classes().GetClass(ctx, "com/shop/OrderRepository")
	require.NoError(t, err)
	original, _ := res.GetClass("com/shop/OrderRepository")
	assert.Equal(t, original.Value(), stored.Value())
	assert.Equal(t, original.Fields(), stored.Fields())
}

func TestPipeline_ReportUpload(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	jar := testutil.WriteFile(t, t.TempDir(), "shop.jar", appJar(t))

	res, report, err := svc.Load(ctx, jar)
	require.NoError(t, err)

	summary := &formatter.ScanSummary{
		Report: report,
		Stats:  statistics.NewCalculator(statistics.WithTopN(1)).Calculate(res.Classes()),
	}
	url, err := svc.UploadReport(ctx, "reports/shop.json.gz", summary)
	require.NoError(t, err)

	data, err := os.ReadFile(url)
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	var decoded struct {
		Stats struct {
			TopPackages []statistics.PackageEntry `json:"top_packages"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Stats.TopPackages, 1)
	assert.Equal(t, "com/shop", decoded.Stats.TopPackages[0].Name)
}

func TestPipeline_LoadFromStorage(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	require.NoError(t, svc.InitStorage())

	dir := svc.Config().Storage.LocalPath
	testutil.WriteFile(t, dir, "builds/shop.jar", appJar(t))

	res, report, err := svc.Load(ctx, service.StorageScheme+"builds/shop.jar")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Len())
	assert.Len(t, report.Failures, 1)
}

func TestPipeline_WatchKeepsResourceInSync(t *testing.T) {
	svc := newService(t)
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a/One.class", testutil.NewClassBuilder("a/One").Bytes())

	res, _, err := svc.Load(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, dir, res, resource.WithDebounce(20*time.Millisecond))
	}()

	// The watcher registers its directories before Watch logs; give it a
	// moment before producing events.
	time.Sleep(100 * time.Millisecond)
	testutil.WriteFile(t, dir, "a/Two.class", testutil.NewClassBuilder("a/Two").Bytes())
	require.NoError(t, os.Remove(filepath.Join(dir, "a/One.class")))

	require.Eventually(t, func() bool {
		_, hasTwo := res.GetClass("a/Two")
		_, hasOne := res.GetClass("a/One")
		return hasTwo && !hasOne
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
