package present

import (
	"go.uber.org/zap"

	"vcmpbrowser/internal/servers"
)

// LogPresenter reports render passes as structured log lines.
type LogPresenter struct {
	log *zap.Logger
}

func NewLogPresenter(log *zap.Logger) *LogPresenter {
	return &LogPresenter{log: log.With(zap.String("component", "presenter"))}
}

func (p *LogPresenter) ListRendered(v servers.View) {
	counts := map[servers.Status]int{}
	for _, r := range v.Rows {
		counts[r.Status]++
	}
	p.log.Info("server list rendered",
		zap.Int("rows", len(v.Rows)),
		zap.Int("online", counts[servers.StatusOnline]),
		zap.Int("offline", counts[servers.StatusOffline]),
		zap.Int("checking", counts[servers.StatusChecking]),
		zap.Time("last_updated", v.LastUpdated),
	)
}

func (p *LogPresenter) ListFailed(err error) {
	p.log.Warn("server list unavailable", zap.Error(err))
}

func (p *LogPresenter) RowUpdated(row servers.Row) {
	p.log.Debug("server row updated",
		zap.String("server", row.Identity),
		zap.String("status", row.StatusLabel),
		zap.String("players", row.Players),
		zap.String("ping", row.Ping),
		zap.String("gamemode", row.Gamemode),
	)
}
