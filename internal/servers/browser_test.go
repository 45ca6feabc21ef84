package servers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream fakes both the masterlist and the status API.
type upstream struct {
	mu          sync.Mutex
	masterlist  string
	statusCodes map[string]int
	statusBody  map[string]string
	statusHits  map[string]int
	masterHits  atomic.Int32
	srv         *httptest.Server
}

func newUpstream(t *testing.T) *upstream {
	u := &upstream{
		statusCodes: map[string]int{},
		statusBody:  map[string]string{},
		statusHits:  map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/servers/", func(w http.ResponseWriter, _ *http.Request) {
		u.masterHits.Add(1)
		u.mu.Lock()
		body := u.masterlist
		u.mu.Unlock()
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/status/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path[len("/status/"):]
		u.mu.Lock()
		u.statusHits[path]++
		code, ok := u.statusCodes[path]
		body := u.statusBody[path]
		u.mu.Unlock()
		if !ok {
			code = http.StatusOK
		}
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	})
	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) setMasterlist(body string) {
	u.mu.Lock()
	u.masterlist = body
	u.mu.Unlock()
}

func (u *upstream) setStatus(path string, code int, body string) {
	u.mu.Lock()
	u.statusCodes[path] = code
	u.statusBody[path] = body
	u.mu.Unlock()
}

func (u *upstream) hits(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.statusHits[path]
}

func (u *upstream) browser(pres Presenter, clock clockwork.Clock) *Browser {
	cache := NewDetailCache()
	status := NewStatusClient(u.srv.URL+"/status", u.srv.Client())
	return NewBrowser(BrowserConfig{
		Masterlist: NewMasterlistClient(u.srv.URL+"/servers/", u.srv.Client()),
		Enricher:   NewEnricher(EnricherConfig{Workers: 1}, status, cache, pres, nil),
		Cache:      cache,
		Presenter:  pres,
		Clock:      clock,
		Interval:   30 * time.Second,
	})
}

func TestBrowser_RefreshRendersOnlineRow(t *testing.T) {
	u := newUpstream(t)
	u.setMasterlist(`{"success":true,"servers":[{"ip":"1.2.3.4","port":5192,"is_official":true}]}`)
	u.setStatus("1.2.3.4/5192", http.StatusOK, `{"players":[1,2],"maxPlayers":50,"ping":40,"gamemode":"Deathmatch"}`)
	pres := &recordingPresenter{}
	clock := clockwork.NewFakeClock()
	b := u.browser(pres, clock)

	require.NoError(t, b.Refresh(context.Background()))

	// the pushed render pass only sees what was cached at that instant
	views := pres.getViews()
	require.Len(t, views, 1)
	require.Len(t, views[0].Rows, 1)
	assert.Equal(t, StatusChecking, views[0].Rows[0].Status)
	assert.Equal(t, clock.Now(), views[0].LastUpdated)

	rows := pres.getRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "1.2.3.4:5192", rows[0].Identity)
	assert.Equal(t, "Online", rows[0].StatusLabel)
	assert.Equal(t, "2/50", rows[0].Players)
	assert.Equal(t, "40", rows[0].Ping)
	assert.Equal(t, "Deathmatch", rows[0].Gamemode)

	v := b.View(Filter{})
	require.Len(t, v.Rows, 1)
	assert.Equal(t, rows[0], v.Rows[0])
}

func TestBrowser_MasterlistFailureKeepsPreviousList(t *testing.T) {
	u := newUpstream(t)
	u.setMasterlist(`{"success":false}`)
	pres := &recordingPresenter{}
	b := u.browser(pres, clockwork.NewFakeClock())

	assert.Equal(t, msgLoading, b.View(Filter{}).Message)

	err := b.Refresh(context.Background())
	require.ErrorIs(t, err, ErrMasterlistRejected)
	assert.Empty(t, b.ListServers())
	assert.True(t, b.Failed())

	v := b.View(Filter{})
	assert.True(t, v.Failed)
	assert.Equal(t, msgFailed, v.Message)
	assert.Empty(t, v.Rows)
	assert.Len(t, pres.failures, 1)

	u.setMasterlist(`{"success":true,"servers":[{"ip":"1.2.3.4","port":1,"is_official":false}]}`)
	u.setStatus("1.2.3.4/1", http.StatusInternalServerError, "")
	require.NoError(t, b.Refresh(context.Background()))
	require.Len(t, b.ListServers(), 1)

	u.setMasterlist(`{"success":tr`)
	require.Error(t, b.Refresh(context.Background()))
	assert.Equal(t, []ServerSummary{{Address: "1.2.3.4", Port: 1}}, b.ListServers())
	assert.True(t, b.View(Filter{}).Failed)
}

func TestBrowser_OfflineServerQueriedOnce(t *testing.T) {
	u := newUpstream(t)
	u.setMasterlist(`{"success":true,"servers":[{"ip":"9.9.9.9","port":7777,"is_official":false}]}`)
	u.setStatus("9.9.9.9/7777", http.StatusInternalServerError, "")
	pres := &recordingPresenter{}
	b := u.browser(pres, clockwork.NewFakeClock())

	require.NoError(t, b.Refresh(context.Background()))
	require.NoError(t, b.Refresh(context.Background()))
	require.NoError(t, b.Refresh(context.Background()))

	assert.Equal(t, 1, u.hits("9.9.9.9/7777"))
	assert.Empty(t, pres.getRows())

	v := b.View(Filter{})
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "Offline", v.Rows[0].StatusLabel)
}

func TestBrowser_SetFilterRerenders(t *testing.T) {
	u := newUpstream(t)
	u.setMasterlist(`{"success":true,"servers":[{"ip":"1.1.1.1","port":1,"is_official":true},{"ip":"2.2.2.2","port":2,"is_official":false}]}`)
	pres := &recordingPresenter{}
	b := u.browser(pres, clockwork.NewFakeClock())
	require.NoError(t, b.Refresh(context.Background()))

	b.SetFilter(Filter{OfficialOnly: true})

	views := pres.getViews()
	require.Len(t, views, 2)
	require.Len(t, views[1].Rows, 1)
	assert.Equal(t, "1.1.1.1:1", views[1].Rows[0].Key)
	assert.Equal(t, Filter{OfficialOnly: true}, b.Filter())
}

func TestBrowser_RunPollsAtStartAndOnEveryTick(t *testing.T) {
	u := newUpstream(t)
	u.setMasterlist(`{"success":true,"servers":[]}`)
	clock := clockwork.NewFakeClock()
	b := u.browser(&recordingPresenter{}, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	assert.Eventually(t, func() bool {
		return u.masterHits.Load() == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		clock.Advance(30 * time.Second)
		return u.masterHits.Load() >= 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestBrowser_PruneDropsStaleKeys(t *testing.T) {
	u := newUpstream(t)
	u.setMasterlist(`{"success":true,"servers":[{"ip":"1.1.1.1","port":1,"is_official":true}]}`)
	b := u.browser(nil, clockwork.NewFakeClock())
	b.Cache().MarkAbsent("8.8.8.8:8")

	assert.Equal(t, 0, b.Prune(), "nothing pruned before the first load")

	require.NoError(t, b.Refresh(context.Background()))
	assert.Equal(t, 1, b.Prune())
	assert.False(t, b.Cache().Has("8.8.8.8:8"))
	assert.True(t, b.Cache().Has("1.1.1.1:1"))
}

func TestBrowser_StartJanitorPrunesOnTick(t *testing.T) {
	u := newUpstream(t)
	u.setMasterlist(`{"success":true,"servers":[{"ip":"1.1.1.1","port":1,"is_official":true}]}`)
	clock := clockwork.NewFakeClock()
	b := u.browser(nil, clock)
	require.NoError(t, b.Refresh(context.Background()))
	b.Cache().MarkAbsent("8.8.8.8:8")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.StartJanitor(ctx, time.Minute)

	assert.Eventually(t, func() bool {
		clock.Advance(time.Minute)
		return !b.Cache().Has("8.8.8.8:8")
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, b.Cache().Has("1.1.1.1:1"))
}
