package affiliate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/owningthelook/backend/internal/domain"
)

// ProxyClient reaches the networks through a remote search proxy endpoint
// (GET {baseURL}?query=...&network=...). Credentials live with the proxy.
type ProxyClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewProxyClient creates a client for the proxy at baseURL
func NewProxyClient(baseURL string, timeout time.Duration) *ProxyClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ProxyClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// Configured always reports true; the remote proxy decides per request
func (p *ProxyClient) Configured(network string) bool {
	return true
}

// Fetch asks the proxy for network's raw answer to query
func (p *ProxyClient) Fetch(ctx context.Context, network, query string) ([]byte, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("network", network)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProviderAPIFailure, network, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading body: %v", domain.ErrProviderAPIFailure, network, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Network: network, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
