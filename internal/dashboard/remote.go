package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hostpanel/internal/system"
)

// HTTPGateway reads another panel's JSON endpoints
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a gateway for the panel served at baseURL
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) Snapshot(ctx context.Context) (*system.Snapshot, error) {
	var snap system.Snapshot
	if err := g.get(ctx, "/api/system", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (g *HTTPGateway) Services(ctx context.Context) (*system.ServiceList, error) {
	var list system.ServiceList
	if err := g.get(ctx, "/api/services", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (g *HTTPGateway) DiskIO(ctx context.Context) (*system.DiskIOStats, error) {
	var stats system.DiskIOStats
	if err := g.get(ctx, "/api/disk-io", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (g *HTTPGateway) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			return fmt.Errorf("failed to fetch %s: %s (status %d)", path, body.Error, resp.StatusCode)
		}
		return fmt.Errorf("failed to fetch %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
