package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/classmeta/internal/repository"
	"github.com/classmeta/internal/resource"
	apperrors "github.com/classmeta/pkg/errors"
	"github.com/classmeta/pkg/telemetry"
	"github.com/classmeta/pkg/utils"
)

// DefaultBatchSize is the number of classes saved per transaction.
const DefaultBatchSize = 200

// IndexResult summarizes one indexing run.
type IndexResult struct {
	RunID    string        `json:"run_id"`
	Classes  int           `json:"classes"`
	Batches  int           `json:"batches"`
	Total    int64         `json:"total"`
	Duration time.Duration `json:"duration_ns"`
}

func (r *IndexResult) String() string {
	return fmt.Sprintf("run %s: indexed %d classes in %d batches (%d in index, %v)",
		r.RunID, r.Classes, r.Batches, r.Total, r.Duration)
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithBatchSize sets the number of classes per transaction.
func WithBatchSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithIndexLogger sets the logger.
func WithIndexLogger(logger utils.Logger) IndexerOption {
	return func(ix *Indexer) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// WithIndexClock sets the clock used for durations.
func WithIndexClock(c utils.Clock) IndexerOption {
	return func(ix *Indexer) {
		if c != nil {
			ix.clock = c
		}
	}
}

// Indexer writes the classes of a resource to a ClassRepository in batches
// under one run ID. Batches already written stay committed when a later
// one fails.
type Indexer struct {
	repo      repository.ClassRepository
	batchSize int
	logger    utils.Logger
	clock     utils.Clock
}

// NewIndexer creates an indexer.
func NewIndexer(repo repository.ClassRepository, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		repo:      repo,
		batchSize: DefaultBatchSize,
		logger:    &utils.NullLogger{},
		clock:     utils.NewRealClock(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index saves every class of res and returns the run summary.
func (ix *Indexer) Index(ctx context.Context, res *resource.Resource) (result *IndexResult, err error) {
	if ix.repo == nil {
		return nil, apperrors.New(apperrors.CodeConfigError, "no class repository configured")
	}
	ctx, span := telemetry.StartSpan(ctx, "service.index",
		attribute.String("resource.source", res.Name()),
		attribute.Int("resource.classes", res.Len()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	start := ix.clock.Now()
	result = &IndexResult{RunID: repository.NewRunID()}
	classes := res.Classes()

	for lo := 0; lo < len(classes); lo += ix.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hi := min(lo+ix.batchSize, len(classes))
		if err := ix.repo.SaveClasses(ctx, result.RunID, classes[lo:hi]); err != nil {
			return nil, fmt.Errorf("index batch %d of run %s: %w", result.Batches+1, result.RunID, err)
		}
		result.Batches++
		result.Classes += hi - lo
		ix.logger.Debug("Indexed %d/%d classes", result.Classes, len(classes))
	}

	if result.Total, err = ix.repo.Count(ctx); err != nil {
		return nil, err
	}
	result.Duration = ix.clock.Since(start)
	ix.logger.Info("Indexed %d classes from %s in %d batches (run %s)",
		result.Classes, res.Name(), result.Batches, result.RunID)
	return result, nil
}
