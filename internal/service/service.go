// Package service wires configuration, loading, storage and the class index
// into the operations the command line exposes.
package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/internal/repository"
	"github.com/classmeta/internal/resource"
	"github.com/classmeta/internal/storage"
	"github.com/classmeta/pkg/config"
	apperrors "github.com/classmeta/pkg/errors"
	"github.com/classmeta/pkg/filter"
	"github.com/classmeta/pkg/utils"
	"github.com/classmeta/pkg/writer"
)

// StorageScheme prefixes sources that live in the configured object store,
// e.g. storage://artifacts/app.jar.
const StorageScheme = "storage://"

// Service is the main application service.
type Service struct {
	config *config.Config
	logger utils.Logger
	filter *filter.ClassFilter
	cache  *resource.ParseCache

	repos   *repository.Repositories
	classes repository.ClassRepository
	storage storage.Storage
}

// New creates a service. The database and storage are connected lazily by
// InitDatabase and InitStorage.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	f, err := filter.New(filter.Options{
		Include: cfg.Workspace.Include,
		Exclude: cfg.Workspace.Exclude,
		SkipJDK: cfg.Workspace.SkipJDK,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "invalid class filter", err)
	}

	s := &Service{config: cfg, logger: logger, filter: f}
	if cfg.Workspace.CacheSize > 0 {
		if s.cache, err = resource.NewParseCache(cfg.Workspace.CacheSize); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Config returns the configuration in use.
func (s *Service) Config() *config.Config {
	return s.config
}

// Parser returns a parser configured from the parse section.
func (s *Service) Parser() *classfile.Parser {
	return classfile.NewParser(&classfile.ParseOptions{
		SkipCode:  s.config.Parse.SkipCode,
		SkipDebug: s.config.Parse.SkipDebug,
	})
}

// Loader returns a loader configured from the workspace section. opts are
// applied last.
func (s *Service) Loader(opts ...resource.LoaderOption) *resource.Loader {
	base := []resource.LoaderOption{
		resource.WithParser(s.Parser()),
		resource.WithFilter(s.filter),
		resource.WithLogger(s.logger),
		resource.WithWorkers(s.config.Workspace.MaxWorker),
	}
	if s.cache != nil {
		base = append(base, resource.WithCache(s.cache))
	}
	return resource.NewLoader(append(base, opts...)...)
}

// InitDatabase opens and migrates the class index.
func (s *Service) InitDatabase() error {
	if s.classes != nil {
		return nil
	}
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	repos, err := repository.Open(&s.config.Database, repository.WithParser(s.Parser()))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	s.repos = repos
	s.classes = repos.Classes
	s.logger.Info("Database connection established")
	return nil
}

// InitStorage connects the configured object storage.
func (s *Service) InitStorage() error {
	if s.storage != nil {
		return nil
	}
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	s.storage = store
	return nil
}

// SetClassRepository replaces the class index.
func (s *Service) SetClassRepository(repo repository.ClassRepository) {
	s.classes = repo
}

// SetStorage replaces the object storage.
func (s *Service) SetStorage(st storage.Storage) {
	s.storage = st
}

// Classes returns the class index, nil before InitDatabase.
func (s *Service) Classes() repository.ClassRepository {
	return s.classes
}

// Load builds a resource from a local path or a storage:// key.
func (s *Service) Load(ctx context.Context, source string, opts ...resource.LoaderOption) (*resource.Resource, *resource.LoadReport, error) {
	l := s.Loader(opts...)
	key, ok := strings.CutPrefix(source, StorageScheme)
	if !ok {
		return l.Load(ctx, source)
	}
	if err := s.InitStorage(); err != nil {
		return nil, nil, err
	}
	return l.LoadFromStorage(ctx, s.storage, key)
}

// Index stores every class of res in the class index.
func (s *Service) Index(ctx context.Context, res *resource.Resource, opts ...IndexerOption) (*IndexResult, error) {
	if s.classes == nil {
		if err := s.InitDatabase(); err != nil {
			return nil, err
		}
	}
	opts = append([]IndexerOption{WithIndexLogger(s.logger)}, opts...)
	return NewIndexer(s.classes, opts...).Index(ctx, res)
}

// UploadReport stores v as gzipped JSON under key and returns its URL.
func (s *Service) UploadReport(ctx context.Context, key string, v any) (string, error) {
	if err := s.InitStorage(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := writer.NewGzipWriter[any](nil).Write(v, &buf); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := s.storage.Upload(ctx, key, &buf); err != nil {
		return "", err
	}
	s.logger.Info("Uploaded report to %s", key)
	return s.storage.GetURL(key), nil
}

// Watch keeps res in sync with dir until ctx is done.
func (s *Service) Watch(ctx context.Context, dir string, res *resource.Resource, opts ...resource.WatcherOption) error {
	opts = append([]resource.WatcherOption{resource.WithWatcherLogger(s.logger)}, opts...)
	w, err := resource.NewWatcher(dir, res, s.Loader(), opts...)
	if err != nil {
		return err
	}
	w.Start(ctx)
	s.logger.Info("Watching %s", dir)

	<-ctx.Done()
	return w.Stop()
}

// Stats returns service statistics.
func (s *Service) Stats() ServiceStats {
	stats := ServiceStats{
		Database: s.classes != nil,
		Storage:  s.storage != nil,
	}
	if s.cache != nil {
		stats.Cache = s.cache.Stats()
	}
	return stats
}

// HealthCheck checks the database connection when one is open.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.repos != nil {
		if err := s.repos.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}
	return nil
}

// Close releases the database connection and cache.
func (s *Service) Close() error {
	if s.cache != nil {
		s.cache.Close()
		s.cache = nil
	}
	if s.repos != nil {
		if err := s.repos.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		s.repos = nil
	}
	return nil
}

// ServiceStats holds service statistics.
type ServiceStats struct {
	Database bool                `json:"database"`
	Storage  bool                `json:"storage"`
	Cache    resource.CacheStats `json:"cache"`
}
