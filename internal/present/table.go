package present

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"vcmpbrowser/internal/servers"
)

// TablePresenter prints the whole table on every render pass and one line per
// incremental row update.
type TablePresenter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTablePresenter(w io.Writer) *TablePresenter {
	return &TablePresenter{w: w}
}

func (p *TablePresenter) ListRendered(v servers.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	WriteTable(p.w, v)
}

func (p *TablePresenter) ListFailed(error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, "Failed to load servers. Please try again later.")
}

func (p *TablePresenter) RowUpdated(row servers.Row) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s\t%s\t%s\t%s\t%s\n", identity(row), row.StatusLabel, row.Players, row.Ping, row.Gamemode)
}

// WriteTable renders v as an aligned text table.
func WriteTable(w io.Writer, v servers.View) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVER\tSTATUS\tPLAYERS\tPING\tGAMEMODE")
	for _, r := range v.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", identity(r), r.StatusLabel, r.Players, r.Ping, r.Gamemode)
	}
	if v.Message != "" {
		fmt.Fprintln(tw, v.Message)
	}
	if !v.LastUpdated.IsZero() {
		fmt.Fprintf(tw, "Last updated: %s\n", v.LastUpdated.Local().Format(time.TimeOnly))
	}
	_ = tw.Flush()
}

func identity(r servers.Row) string {
	if r.Official {
		return r.Identity + " *"
	}
	return r.Identity
}
