package servers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrServerUnreachable = fmt.Errorf("server unreachable")

// StatusFetcher queries live status for one server.
type StatusFetcher interface {
	Fetch(ctx context.Context, s ServerSummary) (*ServerDetail, error)
}

// StatusClient queries GET {base}/{address}/{port}.
type StatusClient struct {
	base string
	http *http.Client
}

// NewStatusClient builds a client rooted at base. A nil httpClient uses
// http.DefaultClient.
func NewStatusClient(base string, httpClient *http.Client) *StatusClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &StatusClient{base: strings.TrimRight(base, "/"), http: httpClient}
}

// URL returns the status endpoint for s.
func (c *StatusClient) URL(s ServerSummary) string {
	return c.base + "/" + url.PathEscape(s.Address) + "/" + strconv.Itoa(s.Port)
}

// Fetch performs one status request. Any non-2xx answer is reported as
// ErrServerUnreachable.
func (c *StatusClient) Fetch(ctx context.Context, s ServerSummary) (*ServerDetail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(s), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build status request for %s", s.Key())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch status for %s", s.Key())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(ErrServerUnreachable, "status for %s: code %d", s.Key(), resp.StatusCode)
	}

	var d ServerDetail
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, errors.Wrapf(err, "decode status for %s", s.Key())
	}
	return &d, nil
}
