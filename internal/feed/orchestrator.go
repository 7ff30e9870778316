package feed

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaleidonews/kaleido/internal/cache"
	"github.com/kaleidonews/kaleido/internal/models"
)

// maxErrorLen bounds the per-source error message stored in FeedResult.
const maxErrorLen = 50

// SnapshotWriter receives completed aggregate results. Failures are logged
// and never affect the FeedResult.
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, result models.FeedResult) error
}

// Orchestrator fans the per-source fetcher out across all configured
// sources, merges and time-sorts the results, and maintains the aggregate
// and per-source caches. Partial failure is a first-class success state:
// FetchFeeds always returns a FeedResult, with failed sources recorded in
// its status and error maps.
type Orchestrator struct {
	fetcher   *Fetcher
	router    *Router
	agg       cache.Store[models.FeedResult]
	perSource cache.Store[[]models.Article]
	aggFlight *cache.Flight[models.FeedResult]
	srcFlight *cache.Flight[[]models.Article]
	ttl       time.Duration
	snapshots SnapshotWriter
	log       zerolog.Logger

	mu       sync.Mutex
	statuses map[string]models.FetchStatus
}

// Options configures an Orchestrator.
type Options struct {
	Aggregate cache.Store[models.FeedResult]
	PerSource cache.Store[[]models.Article]
	TTL       time.Duration
	Snapshots SnapshotWriter
}

func NewOrchestrator(fetcher *Fetcher, router *Router, opts Options, log zerolog.Logger) *Orchestrator {
	if opts.Aggregate == nil {
		opts.Aggregate = cache.NewMemory[models.FeedResult]()
	}
	if opts.PerSource == nil {
		opts.PerSource = cache.NewMemory[[]models.Article]()
	}
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	return &Orchestrator{
		fetcher:   fetcher,
		router:    router,
		agg:       opts.Aggregate,
		perSource: opts.PerSource,
		aggFlight: cache.NewFlight[models.FeedResult](),
		srcFlight: cache.NewFlight[[]models.Article](),
		ttl:       opts.TTL,
		snapshots: opts.Snapshots,
		log:       log,
		statuses:  make(map[string]models.FetchStatus),
	}
}

// AggregateKey derives the cache key for a source set. It depends only on
// the set of ids, not their order.
func AggregateKey(sources []models.Source) string {
	ids := make([]string, 0, len(sources))
	for _, s := range sources {
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	return "feeds:" + strings.Join(ids, "+")
}

// FetchFeeds returns the aggregate result for the given sources, serving
// from cache when fresh and coalescing concurrent callers onto one cycle.
func (o *Orchestrator) FetchFeeds(ctx context.Context, sources []models.Source) (models.FeedResult, error) {
	key := AggregateKey(sources)
	if res, ok := o.agg.Get(ctx, key); ok {
		return res, nil
	}

	return o.aggFlight.Do(key, func() (models.FeedResult, error) {
		// A caller that waited on the flight lock may find the winner's
		// result already cached.
		if res, ok := o.agg.Get(ctx, key); ok {
			return res, nil
		}
		return o.runCycle(ctx, key, sources), nil
	})
}

// runCycle executes one full fetch cycle: concurrent fan-out, fan-in,
// global sort, cache write.
func (o *Orchestrator) runCycle(ctx context.Context, key string, sources []models.Source) models.FeedResult {
	start := time.Now()
	o.log.Info().Int("sources", len(sources)).Msg("fetch cycle starting")

	results := make(chan models.SourceResult, len(sources))
	var wg sync.WaitGroup
	for _, src := range sources {
		o.setStatus(src.ID, models.StatusLoading)
		wg.Add(1)
		go func(src models.Source) {
			defer wg.Done()
			articles, err := o.fetchSource(ctx, src)
			results <- models.SourceResult{SourceID: src.ID, Articles: articles, Err: err}
		}(src)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	result := models.FeedResult{
		Status:    make(map[string]models.FetchStatus, len(sources)),
		Errors:    make(map[string]string),
		FetchedAt: start,
	}
	for res := range results {
		if res.Err != nil {
			result.Status[res.SourceID] = models.StatusError
			// Store the last proxy failure itself, not the fetcher's
			// wrap: with the 50-char bound, a long source id in the
			// prefix would push the actual reason out of the message.
			msg := res.Err.Error()
			if inner := errors.Unwrap(res.Err); inner != nil {
				msg = inner.Error()
			}
			result.Errors[res.SourceID] = truncate(msg, maxErrorLen)
			o.setStatus(res.SourceID, models.StatusError)
			continue
		}
		result.Status[res.SourceID] = models.StatusOK
		result.Items = append(result.Items, res.Articles...)
		o.setStatus(res.SourceID, models.StatusOK)
	}

	// Completion order of the concurrent fetches must never leak into the
	// output: the merged list is always globally sorted newest-first.
	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].PublishedAt.After(result.Items[j].PublishedAt)
	})

	o.agg.Set(ctx, key, result, o.ttl)

	if o.snapshots != nil {
		go func(res models.FeedResult) {
			sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := o.snapshots.SaveSnapshot(sctx, res); err != nil {
				o.log.Error().Err(err).Msg("snapshot archive failed")
			}
		}(result)
	}

	o.log.Info().
		Int("articles", len(result.Items)).
		Int("errors", len(result.Errors)).
		Dur("duration", time.Since(start)).
		Msg("fetch cycle complete")
	return result
}

// fetchSource resolves one source through the per-source cache and flight
// map, so overlapping aggregate requests share source-level work too.
func (o *Orchestrator) fetchSource(ctx context.Context, src models.Source) ([]models.Article, error) {
	key := "source:" + src.ID
	return o.srcFlight.Do(key, func() ([]models.Article, error) {
		if articles, ok := o.perSource.Get(ctx, key); ok {
			return articles, nil
		}
		articles, err := o.fetcher.Fetch(ctx, src)
		if err != nil {
			return nil, err
		}
		o.perSource.Set(ctx, key, articles, o.ttl)
		return articles, nil
	})
}

// Statuses returns a copy of the current per-source statuses, including
// transient loading entries for a cycle still in progress.
func (o *Orchestrator) Statuses() map[string]models.FetchStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]models.FetchStatus, len(o.statuses))
	for id, st := range o.statuses {
		out[id] = st
	}
	return out
}

func (o *Orchestrator) setStatus(id string, st models.FetchStatus) {
	o.mu.Lock()
	o.statuses[id] = st
	o.mu.Unlock()
}

// ClearCache drops the aggregate and per-source caches so the next call
// bypasses both. Used by the explicit user refresh action.
func (o *Orchestrator) ClearCache(ctx context.Context) {
	o.agg.Clear(ctx)
	o.perSource.Clear(ctx)
}

// ClearSourceCache drops one source's cached result. The aggregate cache
// is cleared too since its entries embed that source's articles.
func (o *Orchestrator) ClearSourceCache(ctx context.Context, sourceID string) {
	o.perSource.Delete(ctx, "source:"+sourceID)
	o.agg.Clear(ctx)
}

// ResetProxyHealth zeroes all proxy failure counters.
func (o *Orchestrator) ResetProxyHealth() {
	o.router.Reset()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
