package servers

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"vcmpbrowser/internal/metrics"
)

// Enricher fills the detail cache for servers it has not queried yet.
type Enricher struct {
	status    StatusFetcher
	cache     *DetailCache
	presenter Presenter
	limiter   *rate.Limiter
	workers   int
	log       *zap.Logger
}

// EnricherConfig tunes the enricher. Workers <= 1 means strictly sequential
// requests in list order. RequestsPerSecond <= 0 disables pacing.
type EnricherConfig struct {
	Workers           int
	RequestsPerSecond float64
}

// NewEnricher wires an enricher to its status source, cache and presenter.
func NewEnricher(cfg EnricherConfig, status StatusFetcher, cache *DetailCache, presenter Presenter, log *zap.Logger) *Enricher {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Enricher{
		status:    status,
		cache:     cache,
		presenter: presenter,
		workers:   cfg.Workers,
		log:       log.With(zap.String("component", "enricher")),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return e
}

// pending returns the servers still to query, in list order, one per key.
func (e *Enricher) pending(list []ServerSummary) []ServerSummary {
	seen := make(map[string]bool, len(list))
	out := make([]ServerSummary, 0, len(list))
	for _, s := range list {
		key := s.Key()
		if seen[key] || e.cache.Has(key) {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// Enrich queries every uncached server in list and returns how many requests
// were issued. It stops early only when ctx is done.
func (e *Enricher) Enrich(ctx context.Context, list []ServerSummary) (int, error) {
	todo := e.pending(list)
	if len(todo) == 0 {
		return 0, nil
	}

	if e.workers <= 1 {
		for i, s := range todo {
			if err := e.enrichOne(ctx, s); err != nil {
				return i, err
			}
		}
		return len(todo), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	issued := 0
	for _, s := range todo {
		if gctx.Err() != nil {
			break
		}
		issued++
		s := s
		g.Go(func() error {
			return e.enrichOne(gctx, s)
		})
	}
	return issued, g.Wait()
}

// enrichOne returns an error only for cancellation; fetch failures become
// absent markers.
func (e *Enricher) enrichOne(ctx context.Context, s ServerSummary) error {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := s.Key()
	start := time.Now()
	d, err := e.status.Fetch(ctx, s)
	metrics.DetailFetchDuration.Observe(time.Since(start).Seconds())
	metrics.DetailFetches.WithLabelValues(metrics.Result(err)).Inc()

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.log.Warn("failed to fetch server details", zap.String("server", key), zap.Error(err))
		e.cache.MarkAbsent(key)
		e.updateCacheGauge()
		return nil
	}

	e.cache.Store(key, d)
	e.updateCacheGauge()
	if e.presenter != nil {
		e.presenter.RowUpdated(RenderRow(s, e.cache))
	}
	return nil
}

func (e *Enricher) updateCacheGauge() {
	online, absent := e.cache.Counts()
	metrics.DetailCacheEntries.WithLabelValues("online").Set(float64(online))
	metrics.DetailCacheEntries.WithLabelValues("absent").Set(float64(absent))
}
