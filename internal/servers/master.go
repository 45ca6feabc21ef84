package servers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrMasterlistRejected  = fmt.Errorf("masterlist reported failure")
	ErrMasterlistMalformed = fmt.Errorf("masterlist payload has no server array")
)

// MasterlistFetcher returns the authoritative server list.
type MasterlistFetcher interface {
	Fetch(ctx context.Context) ([]ServerSummary, error)
}

// MasterlistClient fetches the full server list in a single GET.
type MasterlistClient struct {
	url  string
	http *http.Client
}

// NewMasterlistClient builds a client for url. A nil httpClient uses
// http.DefaultClient.
func NewMasterlistClient(url string, httpClient *http.Client) *MasterlistClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MasterlistClient{url: url, http: httpClient}
}

type masterlistResponse struct {
	Success bool            `json:"success"`
	Servers []ServerSummary `json:"servers"`
}

// Fetch performs one masterlist request. The returned slice keeps the
// masterlist's order.
func (c *MasterlistClient) Fetch(ctx context.Context) ([]ServerSummary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build masterlist request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch masterlist")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("fetch masterlist: unexpected status code %d", resp.StatusCode)
	}

	var body masterlistResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "decode masterlist")
	}
	if !body.Success {
		return nil, ErrMasterlistRejected
	}
	if body.Servers == nil {
		return nil, ErrMasterlistMalformed
	}
	return body.Servers, nil
}
