// Package orchestrator drives the periodic sync pipeline.
// It coordinates: feed walk → proxy resolution → archive → bookmark advance.
package orchestrator

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ens-market-context/internal/activitysync"
	"ens-market-context/internal/domain"
	"ens-market-context/internal/observability"
	"ens-market-context/internal/storage"
)

// activityResolver is the slice of the proxy resolver the pipeline needs.
type activityResolver interface {
	ResolveAll(ctx context.Context, activities []domain.Activity) []domain.ResolvedActivity
}

// syncRunner is the slice of the activity syncer the pipeline needs.
type syncRunner interface {
	Run(ctx context.Context, boundary int64) (activitysync.Result, error)
}

// Orchestrator runs sync cycles for one scope. Each cycle walks the feed
// past the stored bookmark, resolves settlement proxies on the new items,
// archives them, and advances the bookmark to the newest timestamp the walk
// actually saw.
type Orchestrator struct {
	syncer    syncRunner
	resolver  activityResolver
	bookmarks storage.BookmarkStore
	archive   storage.ActivityArchiveStore

	scope    string
	interval time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// Options for creating an Orchestrator.
type Options struct {
	Syncer    syncRunner
	Resolver  activityResolver
	Bookmarks storage.BookmarkStore

	// Archive is optional; without it new items are resolved and dropped
	// after the bookmark advances.
	Archive storage.ActivityArchiveStore

	Scope    string
	Interval time.Duration
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		syncer:    opts.Syncer,
		resolver:  opts.Resolver,
		bookmarks: opts.Bookmarks,
		archive:   opts.Archive,
		scope:     opts.Scope,
		interval:  opts.Interval,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
	if o.interval <= 0 {
		o.interval = time.Minute
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// CycleResult contains the outcome of one sync cycle.
type CycleResult struct {
	NewItems   []domain.ResolvedActivity
	Boundary   int64
	AdvancedTo int64
	Incomplete bool
}

// RunCycle executes one sync cycle. The bookmark only advances to the newest
// timestamp observed in fetched data, never to the wall clock, so items the
// provider indexes late are picked up by a later cycle.
func (o *Orchestrator) RunCycle(ctx context.Context) (*CycleResult, error) {
	boundary, err := o.bookmarks.Get(ctx, o.scope)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, errors.Wrap(err, "load bookmark")
		}
		boundary = 0
	}

	syncRes, err := o.syncer.Run(ctx, boundary)
	if err != nil {
		return nil, errors.Wrap(err, "sync run")
	}

	result := &CycleResult{Boundary: boundary, Incomplete: syncRes.Incomplete}
	result.NewItems = o.resolver.ResolveAll(ctx, syncRes.NewItems)

	if o.archive != nil && len(result.NewItems) > 0 {
		if err := o.archive.InsertBulk(ctx, result.NewItems); err != nil {
			// Archival is best effort; the bookmark still advances so the
			// feed walk does not replay forever.
			if o.metrics != nil {
				o.metrics.ArchiveErrors.Inc()
			}
			o.logger.Error("archive insert failed", zap.Error(err))
		} else if o.metrics != nil {
			o.metrics.ActivitiesArchived.Add(float64(len(result.NewItems)))
		}
	}

	// An incomplete walk may have skipped items between the boundary and the
	// newest timestamp seen. Keeping the bookmark where it is makes the next
	// cycle re-walk the same window instead of losing them.
	if !syncRes.Incomplete && syncRes.NewestTimestampSeen > boundary {
		if err := o.bookmarks.Advance(ctx, o.scope, syncRes.NewestTimestampSeen); err != nil {
			return nil, errors.Wrap(err, "advance bookmark")
		}
		result.AdvancedTo = syncRes.NewestTimestampSeen
	} else {
		result.AdvancedTo = boundary
	}

	if o.metrics != nil {
		o.metrics.SyncRuns.WithLabelValues(outcome(result)).Inc()
		o.metrics.LastSuccessfulRun.SetToCurrentTime()
	}
	o.logger.Info("sync cycle finished",
		zap.String("scope", o.scope),
		zap.Int("new_items", len(result.NewItems)),
		zap.Int64("boundary", boundary),
		zap.Int64("advanced_to", result.AdvancedTo),
		zap.Bool("incomplete", result.Incomplete))
	return result, nil
}

func outcome(r *CycleResult) string {
	if r.Incomplete {
		return "incomplete"
	}
	return "complete"
}

// Run executes sync cycles until the context is canceled. Cycle errors are
// logged and the loop keeps going; a broken provider should not kill the
// daemon.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		if _, err := o.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if o.metrics != nil {
				o.metrics.SyncRuns.WithLabelValues("error").Inc()
			}
			o.logger.Error("sync cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
