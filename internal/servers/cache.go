package servers

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// DetailCache maps "address:port" to a detail record. A stored nil is the
// absent marker: the server was queried and could not be reached. Entries
// are never expired; a key is queried at most once per process.
type DetailCache struct {
	m *xsync.MapOf[string, *ServerDetail]
}

// NewDetailCache returns an empty cache.
func NewDetailCache() *DetailCache {
	return &DetailCache{m: xsync.NewMapOf[string, *ServerDetail]()}
}

// Lookup returns the cached detail and whether any entry exists.
// A present entry with a nil detail is the absent marker.
func (c *DetailCache) Lookup(key string) (*ServerDetail, bool) {
	return c.m.Load(key)
}

// Has reports whether key was already queried.
func (c *DetailCache) Has(key string) bool {
	_, ok := c.m.Load(key)
	return ok
}

// Store records a successful detail response.
func (c *DetailCache) Store(key string, d *ServerDetail) {
	c.m.Store(key, d)
}

// MarkAbsent records that key was queried but unreachable.
func (c *DetailCache) MarkAbsent(key string) {
	c.m.Store(key, nil)
}

// Len returns the number of entries, absent markers included.
func (c *DetailCache) Len() int {
	return c.m.Size()
}

// Counts splits the entries into online details and absent markers.
func (c *DetailCache) Counts() (online, absent int) {
	c.m.Range(func(_ string, d *ServerDetail) bool {
		if d == nil {
			absent++
		} else {
			online++
		}
		return true
	})
	return online, absent
}

// Prune deletes every key for which keep returns false and reports how many
// entries were removed.
func (c *DetailCache) Prune(keep func(key string) bool) int {
	removed := 0
	c.m.Range(func(key string, _ *ServerDetail) bool {
		if !keep(key) {
			c.m.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
