package activitysync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ens-market-context/internal/domain"
	"ens-market-context/internal/marketplace"
	"ens-market-context/internal/observability"
)

const (
	// DefaultMaxPages bounds one run regardless of feed depth.
	DefaultMaxPages = 20
	// DefaultMaxIdlePages stops a run after this many consecutive pages
	// yield nothing past the boundary. The feed is ordered newest first,
	// so further pages are even older.
	DefaultMaxIdlePages = 2
	// DefaultBidMargin is how far past now a bid must stay valid to count.
	DefaultBidMargin = 20 * time.Minute
	// DefaultInterPageDelay spaces successive page fetches within a run.
	DefaultInterPageDelay = time.Second
)

// PageFetcher fetches one page of the newest-first activity feed.
type PageFetcher interface {
	FetchPage(ctx context.Context, req marketplace.PageRequest) (marketplace.Page, error)
}

// Options configures a Syncer. Zero fields take defaults.
type Options struct {
	Scope          marketplace.Scope
	Types          []domain.ActivityType
	PageSize       int
	MaxPages       int
	MaxIdlePages   int
	BidMargin      time.Duration
	InterPageDelay time.Duration
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Now            func() time.Time
}

// Syncer walks the activity feed newest first and collects everything that
// happened after a boundary timestamp. One run never mutates any state; the
// caller owns the bookmark and advances it from the result.
type Syncer struct {
	fetcher        PageFetcher
	scope          marketplace.Scope
	types          []domain.ActivityType
	pageSize       int
	maxPages       int
	maxIdlePages   int
	bidMargin      time.Duration
	interPageDelay time.Duration
	logger         *zap.Logger
	metrics        *observability.Metrics
	now            func() time.Time
}

// Result is the outcome of one sync run. NewestTimestampSeen is the maximum
// timestamp across every fetched item, qualifying or not; it is the only
// value a bookmark may be advanced to. It is zero when nothing was fetched.
type Result struct {
	NewItems            []domain.Activity
	NewestTimestampSeen int64
	PagesFetched        int
	Incomplete          bool
}

// NewSyncer builds a Syncer over the given fetcher.
func NewSyncer(fetcher PageFetcher, opts Options) *Syncer {
	s := &Syncer{
		fetcher:        fetcher,
		scope:          opts.Scope,
		types:          opts.Types,
		pageSize:       opts.PageSize,
		maxPages:       opts.MaxPages,
		maxIdlePages:   opts.MaxIdlePages,
		bidMargin:      opts.BidMargin,
		interPageDelay: opts.InterPageDelay,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		now:            opts.Now,
	}
	if s.maxPages <= 0 {
		s.maxPages = DefaultMaxPages
	}
	if s.maxIdlePages <= 0 {
		s.maxIdlePages = DefaultMaxIdlePages
	}
	if s.bidMargin <= 0 {
		s.bidMargin = DefaultBidMargin
	}
	if s.interPageDelay <= 0 {
		s.interPageDelay = DefaultInterPageDelay
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Run walks the feed until it reaches activity at or before the boundary,
// runs out of pages, or hits a safety bound. Items are returned oldest
// first. A run cut short by the page cap, the idle cap, or an incomplete
// page is flagged Incomplete; the items collected so far are still valid.
func (s *Syncer) Run(ctx context.Context, boundary int64) (Result, error) {
	var res Result
	continuation := ""
	idlePages := 0

	for res.PagesFetched < s.maxPages {
		if res.PagesFetched > 0 {
			if err := s.sleep(ctx); err != nil {
				res.Incomplete = true
				return s.finish(res, boundary), err
			}
		}

		page, err := s.fetcher.FetchPage(ctx, marketplace.PageRequest{
			Scope:        s.scope,
			Types:        s.types,
			Continuation: continuation,
			Limit:        s.pageSize,
		})
		if err != nil {
			return res, err
		}
		res.PagesFetched++

		qualified := 0
		reachedBoundary := false
		for _, a := range page.Activities {
			if a.Timestamp > res.NewestTimestampSeen {
				res.NewestTimestampSeen = a.Timestamp
			}
			if a.Timestamp <= boundary {
				reachedBoundary = true
				continue
			}
			if s.qualifies(a) {
				res.NewItems = append(res.NewItems, a)
				qualified++
			}
		}

		if page.Incomplete {
			res.Incomplete = true
			break
		}
		if reachedBoundary {
			break
		}
		if page.Continuation == "" {
			break
		}
		if qualified == 0 {
			idlePages++
			if idlePages >= s.maxIdlePages {
				s.logger.Debug("stopping after consecutive idle pages",
					zap.Int("idle_pages", idlePages))
				res.Incomplete = true
				break
			}
		} else {
			idlePages = 0
		}
		continuation = page.Continuation
	}

	if res.PagesFetched >= s.maxPages && !res.Incomplete {
		// The feed may extend beyond the cap; do not claim a full walk.
		res.Incomplete = true
	}
	return s.finish(res, boundary), nil
}

func (s *Syncer) finish(res Result, boundary int64) Result {
	domain.SortActivitiesAsc(res.NewItems)
	if s.metrics != nil {
		s.metrics.ActivitiesSynced.Add(float64(len(res.NewItems)))
		s.metrics.SyncBoundary.Set(float64(boundary))
	}
	s.logger.Info("sync run finished",
		zap.Int64("boundary", boundary),
		zap.Int("pages", res.PagesFetched),
		zap.Int("new_items", len(res.NewItems)),
		zap.Int64("newest_seen", res.NewestTimestampSeen),
		zap.Bool("incomplete", res.Incomplete))
	return res
}

// qualifies applies the per-type filter. Bids carry an expiry; a bid about
// to lapse is not actionable by the time anything downstream reads it.
func (s *Syncer) qualifies(a domain.Activity) bool {
	if a.Type != domain.ActivityBid {
		return true
	}
	if a.ValidUntil == 0 {
		return false
	}
	return a.ValidUntil > s.now().Add(s.bidMargin).Unix()
}

func (s *Syncer) sleep(ctx context.Context) error {
	t := time.NewTimer(s.interPageDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
