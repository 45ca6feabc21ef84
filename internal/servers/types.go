package servers

import (
	"encoding/json"
	"strconv"
	"time"
)

// ServerSummary is one masterlist entry.
type ServerSummary struct {
	Address  string `json:"ip"`
	Port     int    `json:"port"`
	Official bool   `json:"is_official"`
}

// Key returns the cache key for the server ("address:port").
func (s ServerSummary) Key() string {
	return cacheKey(s.Address, s.Port)
}

func cacheKey(address string, port int) string {
	return address + ":" + strconv.Itoa(port)
}

// ServerDetail is the live status reported by the status API.
// Player entries are opaque; only their count is shown.
type ServerDetail struct {
	Players    []json.RawMessage `json:"players"`
	MaxPlayers int               `json:"maxPlayers"`
	Ping       int               `json:"ping"`
	Gamemode   string            `json:"gamemode"`
}

// PlayerCount returns the number of players in the detail.
func (d *ServerDetail) PlayerCount() int {
	if d == nil {
		return 0
	}
	return len(d.Players)
}

// Status is the presentation state of a row.
type Status string

const (
	StatusChecking Status = "checking" // no cache entry yet
	StatusOnline   Status = "online"   // detail cached
	StatusOffline  Status = "offline"  // queried, absent marker cached
)

// Label is the text shown in the status column.
func (s Status) Label() string {
	switch s {
	case StatusOnline:
		return "Online"
	case StatusOffline:
		return "Offline"
	default:
		return "Checking..."
	}
}

// Row is one rendered table row.
type Row struct {
	Key         string `json:"key"`
	Address     string `json:"address"`
	Port        int    `json:"port"`
	Identity    string `json:"identity"`
	Official    bool   `json:"official"`
	Status      Status `json:"status"`
	StatusLabel string `json:"status_label"`
	Players     string `json:"players"`
	Ping        string `json:"ping"`
	Gamemode    string `json:"gamemode"`
}

// View is the full rendered table.
type View struct {
	Rows        []Row     `json:"rows"`
	Message     string    `json:"message,omitempty"`
	Failed      bool      `json:"failed"`
	LastUpdated time.Time `json:"last_updated"`
}

// Filter holds the user-controlled filter inputs.
type Filter struct {
	Search       string `json:"search" yaml:"search"`
	OfficialOnly bool   `json:"official_only" yaml:"official_only"`
}

// Presenter receives render passes and incremental row updates.
type Presenter interface {
	ListRendered(v View)
	ListFailed(err error)
	RowUpdated(row Row)
}

const (
	msgLoading = "Loading servers..."
	msgFailed  = "Failed to load servers. Please try again later."
	msgNoMatch = "No servers found matching your criteria."
)
