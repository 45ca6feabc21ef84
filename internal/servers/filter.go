package servers

import (
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxPlayers = 100
	placeholder       = "-"
)

// Match reports whether s passes the filter. The search text is matched as a
// case-insensitive substring of the address or the decimal port.
func (f Filter) Match(s ServerSummary) bool {
	if f.OfficialOnly && !s.Official {
		return false
	}
	term := strings.ToLower(f.Search)
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.Address), term) ||
		strings.Contains(strconv.Itoa(s.Port), term)
}

// Render filters list and derives each row from the cache. Order follows list.
func Render(list []ServerSummary, cache *DetailCache, f Filter, updated time.Time) View {
	v := View{Rows: make([]Row, 0, len(list)), LastUpdated: updated}
	for _, s := range list {
		if !f.Match(s) {
			continue
		}
		v.Rows = append(v.Rows, RenderRow(s, cache))
	}
	if len(v.Rows) == 0 {
		v.Message = msgNoMatch
	}
	return v
}

// RenderRow renders a single server from whatever the cache holds for it.
func RenderRow(s ServerSummary, cache *DetailCache) Row {
	key := s.Key()
	row := Row{
		Key:      key,
		Address:  s.Address,
		Port:     s.Port,
		Identity: key,
		Official: s.Official,
		Status:   StatusChecking,
		Players:  placeholder,
		Ping:     placeholder,
		Gamemode: placeholder,
	}

	d, ok := cache.Lookup(key)
	switch {
	case !ok:
	case d == nil:
		row.Status = StatusOffline
	default:
		row.Status = StatusOnline
		maxPlayers := d.MaxPlayers
		if maxPlayers == 0 {
			maxPlayers = defaultMaxPlayers
		}
		row.Players = strconv.Itoa(d.PlayerCount()) + "/" + strconv.Itoa(maxPlayers)
		row.Ping = "N/A"
		if d.Ping != 0 {
			row.Ping = strconv.Itoa(d.Ping)
		}
		row.Gamemode = "Unknown"
		if d.Gamemode != "" {
			row.Gamemode = d.Gamemode
		}
	}
	row.StatusLabel = row.Status.Label()
	return row
}
