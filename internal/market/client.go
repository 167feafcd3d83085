package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Provider is the read-only market-comparables lookup injected into the
// service layer. Implementations perform the I/O the engine itself never
// does; results are snapshotted once per scoring call.
type Provider interface {
	Snapshot(ctx context.Context, category, location, condition string) (*Snapshot, error)
	Candidates(ctx context.Context, category, location string) ([]Ad, error)
}

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("market %s %s: %d %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *HTTPClient) Snapshot(ctx context.Context, category, location, condition string) (*Snapshot, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("location", location)
	q.Set("condition", condition)
	data, err := c.doReq(ctx, "GET", "/listings/comparables?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *HTTPClient) Candidates(ctx context.Context, category, location string) ([]Ad, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("location", location)
	data, err := c.doReq(ctx, "GET", "/listings?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var ads []Ad
	if err := json.Unmarshal(data, &ads); err != nil {
		return nil, err
	}
	return ads, nil
}
