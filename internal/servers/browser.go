package servers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"vcmpbrowser/internal/metrics"
)

// DefaultRefreshInterval is the masterlist poll period.
const DefaultRefreshInterval = 30 * time.Second

// Browser owns the authoritative list and reconciles it with the detail cache.
type Browser struct {
	masterlist MasterlistFetcher
	enricher   *Enricher
	cache      *DetailCache
	presenter  Presenter
	clock      clockwork.Clock
	interval   time.Duration
	log        *zap.Logger

	mu          sync.RWMutex
	list        []ServerSummary
	filter      Filter
	lastUpdated time.Time
	lastErr     error
	polled      bool
}

// BrowserConfig holds the browser's collaborators and timing.
type BrowserConfig struct {
	Masterlist MasterlistFetcher
	Enricher   *Enricher
	Cache      *DetailCache
	Presenter  Presenter
	Clock      clockwork.Clock
	Interval   time.Duration
	Filter     Filter
	Logger     *zap.Logger
}

// NewBrowser builds a browser. Zero Interval means DefaultRefreshInterval and
// a nil Clock means the real clock.
func NewBrowser(cfg BrowserConfig) *Browser {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRefreshInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Cache == nil {
		cfg.Cache = NewDetailCache()
	}
	return &Browser{
		masterlist: cfg.Masterlist,
		enricher:   cfg.Enricher,
		cache:      cfg.Cache,
		presenter:  cfg.Presenter,
		clock:      cfg.Clock,
		interval:   cfg.Interval,
		filter:     cfg.Filter,
		log:        cfg.Logger.With(zap.String("component", "browser")),
	}
}

// Run refreshes once immediately and then on every tick until ctx is done.
// Cycles run back to back on this goroutine and never overlap.
func (b *Browser) Run(ctx context.Context) {
	ticker := b.clock.NewTicker(b.interval)
	defer ticker.Stop()

	b.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			b.cycle(ctx)
		}
	}
}

func (b *Browser) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("refresh cycle panicked", zap.Any("panic", r))
		}
	}()
	_ = b.Refresh(ctx)
}

// Refresh polls the masterlist, replaces the list on success, pushes a render
// pass and then fills in missing details. On failure the previous list is
// kept and the view switches to the error state.
func (b *Browser) Refresh(ctx context.Context) error {
	log := b.log.With(zap.String("cycle", uuid.NewString()))

	list, err := b.masterlist.Fetch(ctx)
	metrics.MasterlistPolls.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		log.Error("failed to load servers", zap.Error(err))
		b.mu.Lock()
		b.lastErr = err
		b.polled = true
		b.mu.Unlock()
		if b.presenter != nil {
			b.presenter.ListFailed(err)
		}
		return err
	}

	b.mu.Lock()
	b.list = list
	b.lastUpdated = b.clock.Now()
	b.lastErr = nil
	b.polled = true
	f := b.filter
	b.mu.Unlock()
	metrics.ServersListed.Set(float64(len(list)))
	log.Info("masterlist refreshed", zap.Int("servers", len(list)))

	if b.presenter != nil {
		b.presenter.ListRendered(b.View(f))
	}

	if b.enricher == nil {
		return nil
	}
	n, err := b.enricher.Enrich(ctx, list)
	log.Debug("details fetched", zap.Int("requests", n))
	return err
}

// View renders the current state for f.
func (b *Browser) View(f Filter) View {
	b.mu.RLock()
	list, updated, lastErr, polled := b.list, b.lastUpdated, b.lastErr, b.polled
	b.mu.RUnlock()

	switch {
	case lastErr != nil:
		return View{Rows: []Row{}, Failed: true, Message: msgFailed, LastUpdated: updated}
	case !polled:
		return View{Rows: []Row{}, Message: msgLoading}
	}
	return Render(list, b.cache, f, updated)
}

// SetFilter replaces the filter used for pushed render passes and re-renders.
func (b *Browser) SetFilter(f Filter) {
	b.mu.Lock()
	b.filter = f
	b.mu.Unlock()
	if b.presenter != nil {
		b.presenter.ListRendered(b.View(f))
	}
}

// Filter returns the filter used for pushed render passes.
func (b *Browser) Filter() Filter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// ListServers returns a copy of the authoritative list.
func (b *Browser) ListServers() []ServerSummary {
	b.mu.RLock()
	defer b.mu.RUnlock()

	list := make([]ServerSummary, len(b.list))
	copy(list, b.list)
	return list
}

// Failed reports whether the last masterlist poll failed.
func (b *Browser) Failed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr != nil
}

// Cache exposes the detail cache.
func (b *Browser) Cache() *DetailCache {
	return b.cache
}
