package httpapi

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vcmpbrowser/internal/servers"
)

// filterFromQuery reads ?search= and ?official=. The checkbox form posts
// "on"; anything strconv.ParseBool accepts works too.
func filterFromQuery(c echo.Context) servers.Filter {
	f := servers.Filter{Search: c.QueryParam("search")}
	switch v := c.QueryParam("official"); v {
	case "":
	case "on":
		f.OfficialOnly = true
	default:
		f.OfficialOnly, _ = strconv.ParseBool(v)
	}
	return f
}

// handleServers responds with the filtered table in JSON, in masterlist order.
func (s *Server) handleServers(c echo.Context) error {
	return c.JSON(http.StatusOK, s.source.View(filterFromQuery(c)))
}

type indexPage struct {
	Filter      servers.Filter
	View        servers.View
	LastUpdated string
}

func (s *Server) handleIndex(c echo.Context) error {
	f := filterFromQuery(c)
	page := indexPage{Filter: f, View: s.source.View(f)}
	if !page.View.LastUpdated.IsZero() {
		page.LastUpdated = page.View.LastUpdated.Local().Format(time.TimeOnly)
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index", page); err != nil {
		s.log.Error("template execution failed", zap.Error(err))
		return c.String(http.StatusInternalServerError, "Failed to render page")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":            "ok",
		"masterlist_failed": s.source.Failed(),
	})
}

const indexTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>VC:MP Servers</title></head>
<body>
<form method="get" action="/">
  <input type="text" name="search" placeholder="Search by IP or port" value="{{.Filter.Search}}">
  <label><input type="checkbox" name="official"{{if .Filter.OfficialOnly}} checked{{end}}> Official only</label>
  <button type="submit">Filter</button>
</form>
<table>
  <thead><tr><th>Server</th><th>Status</th><th>Players</th><th>Ping</th><th>Gamemode</th></tr></thead>
  <tbody>
  {{- range .View.Rows}}
    <tr data-ip="{{.Address}}" data-port="{{.Port}}">
      <td class="server-name">{{.Identity}}{{if .Official}} <span class="official-badge" title="Official Server">&#10003;</span>{{end}}</td>
      <td><span class="server-status status-{{.Status}}">{{.StatusLabel}}</span></td>
      <td class="players-count">{{.Players}}</td>
      <td>{{.Ping}}</td>
      <td>{{.Gamemode}}</td>
    </tr>
  {{- end}}
  {{- if .View.Message}}
    <tr><td colspan="5" class="loading{{if .View.Failed}} error{{end}}">{{.View.Message}}</td></tr>
  {{- end}}
  </tbody>
</table>
<p>Last updated: <span id="lastUpdated">{{if .LastUpdated}}{{.LastUpdated}}{{else}}-{{end}}</span></p>
</body>
</html>
`
