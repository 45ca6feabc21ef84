package servers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Prune drops cache entries whose key is not in the current list and returns
// how many were removed. Stale keys are otherwise kept for the whole process.
func (b *Browser) Prune() int {
	list := b.ListServers()
	if len(list) == 0 {
		// never prune against an empty or not-yet-loaded list
		return 0
	}
	keys := make(map[string]struct{}, len(list))
	for _, s := range list {
		keys[s.Key()] = struct{}{}
	}
	return b.cache.Prune(func(key string) bool {
		_, ok := keys[key]
		return ok
	})
}

// StartJanitor prunes stale cache keys every interval until ctx is done.
// A non-positive interval disables it.
func (b *Browser) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := b.clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if n := b.Prune(); n > 0 {
					b.log.Info("pruned stale cache entries", zap.Int("removed", n))
				}
			}
		}
	}()
}
