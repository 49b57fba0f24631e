package resource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"go.opentelemetry.io/otel/attribute"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/internal/storage"
	apperrors "github.com/classmeta/pkg/errors"
	"github.com/classmeta/pkg/filter"
	"github.com/classmeta/pkg/parallel"
	"github.com/classmeta/pkg/telemetry"
	"github.com/classmeta/pkg/utils"
)

const (
	classSuffix = ".class"

	// DefaultMaxEntrySize bounds a single entry read from disk, an archive or
	// object storage, and any archive buffered in memory.
	DefaultMaxEntrySize int64 = 64 << 20

	archiveSeparator = "!/"
)

// IsClassFile reports whether name looks like a class file.
func IsClassFile(name string) bool {
	return strings.HasSuffix(name, classSuffix)
}

// IsArchive reports whether name looks like a zip-based archive.
func IsArchive(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".jar", ".zip", ".war", ".ear":
		return true
	}
	return false
}

// LoadFailure describes an entry that could not be loaded.
type LoadFailure struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func newLoadFailure(p string, err error) LoadFailure {
	return LoadFailure{
		Path:    p,
		Code:    apperrors.GetErrorCode(err),
		Message: err.Error(),
		Err:     err,
	}
}

// LoadReport summarizes one load. Invalid entries are skipped and listed in
// Failures; the caller decides whether that is fatal.
type LoadReport struct {
	Source     string        `json:"source"`
	Entries    int           `json:"entries"`
	Classes    int           `json:"classes"`
	Files      int           `json:"files"`
	Filtered   int           `json:"filtered"`
	CacheHits  int           `json:"cache_hits"`
	Duplicates []string      `json:"duplicates"`
	Failures   []LoadFailure `json:"failures"`
	Duration   time.Duration `json:"duration_ns"`
}

// HasFailures reports whether any entry failed.
func (r *LoadReport) HasFailures() bool {
	return len(r.Failures) > 0
}

// entry is one readable item of a source.
type entry struct {
	path string
	read func() ([]byte, error)
}

type loaded struct {
	class    *classfile.ClassInfo
	file     *FileInfo
	filtered bool
	cacheHit bool
}

// Loader builds Resources from directories, archives, single class files
// and object storage.
type Loader struct {
	parser       ClassParser
	filter       *filter.ClassFilter
	cache        *ParseCache
	logger       utils.Logger
	clock        utils.Clock
	workers      int
	keepFiles    bool
	nested       bool
	timings      bool
	maxEntrySize int64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithParser sets the parser. The default skips code and debug attributes.
func WithParser(p ClassParser) LoaderOption {
	return func(l *Loader) {
		if p != nil {
			l.parser = p
		}
	}
}

// WithFilter drops classes the filter rejects.
func WithFilter(f *filter.ClassFilter) LoaderOption {
	return func(l *Loader) { l.filter = f }
}

// WithCache memoizes parses across loads.
func WithCache(c *ParseCache) LoaderOption {
	return func(l *Loader) { l.cache = c }
}

// WithLogger sets the logger.
func WithLogger(logger utils.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock sets the clock used for durations.
func WithClock(c utils.Clock) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithWorkers sets the number of concurrent parsers.
func WithWorkers(n int) LoaderOption {
	return func(l *Loader) { l.workers = n }
}

// WithKeepFiles keeps non-class entries as FileInfo.
func WithKeepFiles(keep bool) LoaderOption {
	return func(l *Loader) { l.keepFiles = keep }
}

// WithNestedArchives expands archives found inside the source, such as
// BOOT-INF/lib/*.jar. Their entries are named outer!/inner.
func WithNestedArchives(nested bool) LoaderOption {
	return func(l *Loader) { l.nested = nested }
}

// WithTimings logs a per-phase timing summary after each load.
func WithTimings(enabled bool) LoaderOption {
	return func(l *Loader) { l.timings = enabled }
}

// WithMaxEntrySize bounds the size of a single entry.
func WithMaxEntrySize(n int64) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.maxEntrySize = n
		}
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		parser:       classfile.NewParser(nil),
		logger:       &utils.NullLogger{},
		clock:        utils.NewRealClock(),
		maxEntrySize: DefaultMaxEntrySize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load dispatches on the kind of path: directory, archive or class file.
func (l *Loader) Load(ctx context.Context, p string) (*Resource, *LoadReport, error) {
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperrors.New(apperrors.CodeNotFound, "no such file or directory: "+p)
		}
		return nil, nil, apperrors.Wrap(apperrors.CodeInvalidInput, "stat "+p, err)
	}
	switch {
	case info.IsDir():
		return l.LoadDir(ctx, p)
	case IsArchive(p):
		return l.LoadArchive(ctx, p)
	case IsClassFile(p):
		return l.LoadClassFile(ctx, p)
	default:
		return nil, nil, apperrors.New(apperrors.CodeInvalidInput, "not a directory, archive or class file: "+p)
	}
}

// LoadDir loads every class file below dir. Entry paths are relative to
// dir and slash-separated.
func (l *Loader) LoadDir(ctx context.Context, dir string) (*Resource, *LoadReport, error) {
	var entries []entry
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case IsClassFile(rel):
			entries = append(entries, l.fileEntry(rel, p))
		case l.nested && IsArchive(rel):
			data, err := l.readFile(p)
			if err != nil {
				return err
			}
			nested, err := l.archiveBytesEntries(rel+archiveSeparator, data)
			if err != nil {
				l.logger.Warn("Skipping archive %s: %v", rel, err)
				return nil
			}
			entries = append(entries, nested...)
		case l.keepFiles:
			entries = append(entries, l.fileEntry(rel, p))
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, apperrors.Wrap(apperrors.CodeInvalidInput, "walk "+dir, err)
	}
	return l.loadEntries(ctx, dir, entries)
}

// LoadArchive loads the classes of a jar or zip file.
func (l *Loader) LoadArchive(ctx context.Context, archivePath string) (*Resource, *LoadReport, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeInvalidInput, "open archive "+archivePath, err)
	}
	defer zr.Close()

	entries, err := l.archiveEntries("", zr.File)
	if err != nil {
		return nil, nil, err
	}
	return l.loadEntries(ctx, archivePath, entries)
}

// LoadArchiveBytes loads an in-memory jar or zip. name labels the resource.
func (l *Loader) LoadArchiveBytes(ctx context.Context, name string, data []byte) (*Resource, *LoadReport, error) {
	entries, err := l.archiveBytesEntries("", data)
	if err != nil {
		return nil, nil, err
	}
	return l.loadEntries(ctx, name, entries)
}

// LoadClassFile loads a single class file.
func (l *Loader) LoadClassFile(ctx context.Context, p string) (*Resource, *LoadReport, error) {
	return l.loadEntries(ctx, p, []entry{l.fileEntry(filepath.Base(p), p)})
}

// LoadFromStorage loads from an object store. A key naming an archive or a
// class file loads that object; any other key is a prefix whose class
// objects are loaded.
func (l *Loader) LoadFromStorage(ctx context.Context, st storage.Storage, key string) (*Resource, *LoadReport, error) {
	switch {
	case IsArchive(key):
		data, err := storage.ReadLimited(ctx, st, key, l.maxEntrySize)
		if err != nil {
			return nil, nil, err
		}
		return l.LoadArchiveBytes(ctx, key, data)
	case IsClassFile(key):
		return l.loadEntries(ctx, key, []entry{l.storageEntry(ctx, st, key)})
	}

	keys, err := st.List(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		if IsClassFile(k) || l.keepFiles {
			entries = append(entries, l.storageEntry(ctx, st, k))
		}
	}
	return l.loadEntries(ctx, key, entries)
}

// ParseBytes parses one class with the loader's parser and cache.
func (l *Loader) ParseBytes(data []byte) (*classfile.ClassInfo, error) {
	ci, _, err := l.parse(data)
	return ci, err
}

// ReadClassFile reads and parses one class file from disk.
func (l *Loader) ReadClassFile(p string) (*classfile.ClassInfo, error) {
	data, err := l.readFile(p)
	if err != nil {
		return nil, err
	}
	return l.ParseBytes(data)
}

// Allowed reports whether the loader's filter accepts a class name.
func (l *Loader) Allowed(name string) bool {
	return l.filter == nil || l.filter.Allow(name)
}

// CacheStats returns the parse cache counters, zero without a cache.
func (l *Loader) CacheStats() CacheStats {
	if l.cache == nil {
		return CacheStats{}
	}
	return l.cache.Stats()
}

func (l *Loader) parse(data []byte) (*classfile.ClassInfo, bool, error) {
	if l.cache != nil {
		return l.cache.Parse(l.parser, data)
	}
	ci, err := l.parser.Parse(data)
	return ci, false, err
}

func (l *Loader) fileEntry(name, p string) entry {
	return entry{path: name, read: func() ([]byte, error) { return l.readFile(p) }}
}

func (l *Loader) storageEntry(ctx context.Context, st storage.Storage, key string) entry {
	return entry{path: key, read: func() ([]byte, error) { return storage.ReadLimited(ctx, st, key, l.maxEntrySize) }}
}

func (l *Loader) readFile(p string) ([]byte, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "stat "+p, err)
	}
	if info.Size() > l.maxEntrySize {
		return nil, apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("%s is %d bytes, limit %d", p, info.Size(), l.maxEntrySize))
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "read "+p, err)
	}
	return data, nil
}

func (l *Loader) archiveBytesEntries(prefix string, data []byte) ([]entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "open archive "+strings.TrimSuffix(prefix, archiveSeparator), err)
	}
	return l.archiveEntries(prefix, zr.File)
}

// archiveEntries lists the loadable entries of an archive. Nested archives
// are read eagerly so their entries can join the same batch.
func (l *Loader) archiveEntries(prefix string, files []*zip.File) ([]entry, error) {
	var entries []entry
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		name := prefix + f.Name
		switch {
		case IsClassFile(f.Name):
			entries = append(entries, l.zipEntry(name, f))
		case l.nested && IsArchive(f.Name):
			data, err := l.readZipFile(name, f)
			if err != nil {
				return nil, err
			}
			nested, err := l.archiveBytesEntries(name+archiveSeparator, data)
			if err != nil {
				l.logger.Warn("Skipping archive %s: %v", name, err)
				continue
			}
			entries = append(entries, nested...)
		case l.keepFiles:
			entries = append(entries, l.zipEntry(name, f))
		}
	}
	return entries, nil
}

func (l *Loader) zipEntry(name string, f *zip.File) entry {
	return entry{path: name, read: func() ([]byte, error) { return l.readZipFile(name, f) }}
}

func (l *Loader) readZipFile(name string, f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > uint64(l.maxEntrySize) {
		return nil, apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("%s is %d bytes, limit %d", name, f.UncompressedSize64, l.maxEntrySize))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "open entry "+name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, l.maxEntrySize+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "read entry "+name, err)
	}
	if int64(len(data)) > l.maxEntrySize {
		return nil, apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("%s exceeds limit %d", name, l.maxEntrySize))
	}
	return data, nil
}

// loadEntries reads and parses entries concurrently and assembles the
// results in entry order, so the last duplicate wins deterministically.
func (l *Loader) loadEntries(ctx context.Context, source string, entries []entry) (*Resource, *LoadReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "resource.load",
		attribute.String("resource.source", source),
		attribute.Int("resource.entries", len(entries)),
	)

	start := l.clock.Now()
	timer := utils.NewTimer("load "+source,
		utils.WithLogger(l.logger),
		utils.WithEnabled(l.timings),
		utils.WithClock(l.clock),
	)

	timer.Start("parse")
	pool := parallel.NewWorkerPool[entry, loaded](parallel.DefaultPoolConfig().WithWorkers(l.workers))
	results := pool.ExecuteFunc(ctx, entries, l.loadEntry)
	timer.StopPhase("parse")

	if err := ctx.Err(); err != nil {
		telemetry.EndSpan(span, err)
		return nil, nil, err
	}

	timer.Start("assemble")
	res := New(source, l.logger)
	report := &LoadReport{
		Source:     source,
		Entries:    len(entries),
		Duplicates: []string{},
		Failures:   []LoadFailure{},
	}
	for _, r := range results {
		if r.Error != nil {
			l.logger.Warn("Skipping %s: %v", r.Input.path, r.Error)
			report.Failures = append(report.Failures, newLoadFailure(r.Input.path, r.Error))
			continue
		}
		switch {
		case r.Result.filtered:
			report.Filtered++
		case r.Result.class != nil:
			if res.PutClass(r.Result.class, r.Input.path) {
				report.Duplicates = append(report.Duplicates, r.Result.class.Name())
			}
			if r.Result.cacheHit {
				report.CacheHits++
			}
		case r.Result.file != nil:
			res.PutFile(r.Result.file)
		}
	}
	timer.StopPhase("assemble")

	report.Classes = res.Len()
	report.Files = res.FileCount()
	report.Duration = l.clock.Since(start)

	span.SetAttributes(
		attribute.Int("resource.classes", report.Classes),
		attribute.Int("resource.failures", len(report.Failures)),
	)
	telemetry.EndSpan(span, nil)

	l.logger.Debug("Loaded %s: %d classes, %d files, %d failures in %v",
		source, report.Classes, report.Files, len(report.Failures), report.Duration)
	timer.PrintSummary()
	return res, report, nil
}

func (l *Loader) loadEntry(ctx context.Context, e entry) (loaded, error) {
	if err := ctx.Err(); err != nil {
		return loaded{}, err
	}
	data, err := e.read()
	if err != nil {
		return loaded{}, err
	}
	if !IsClassFile(e.path) {
		return loaded{file: NewFileInfo(e.path, data)}, nil
	}

	ci, hit, err := l.parse(data)
	if err != nil {
		return loaded{}, err
	}
	if !l.Allowed(ci.Name()) {
		return loaded{filtered: true}, nil
	}
	return loaded{class: ci, cacheHit: hit}, nil
}
