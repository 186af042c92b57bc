package affiliate

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/owningthelook/backend/internal/domain"
)

// Affiliate networks reachable through the search proxy
const (
	NetworkAwin      = "awin"
	NetworkSkimlinks = "skimlinks"
	NetworkRakuten   = "rakuten"
	NetworkAmazon    = "amazon"
)

// Networks lists every network in provider-priority order
var Networks = []string{NetworkAwin, NetworkSkimlinks, NetworkRakuten, NetworkAmazon}

// Credentials holds the upstream endpoints and secrets of every network.
// Empty secrets leave the network unconfigured.
type Credentials struct {
	AwinAPIToken    string
	AwinPublisherID string
	AwinBaseURL     string

	SkimlinksAPIKey      string
	SkimlinksPublisherID string
	SkimlinksBaseURL     string

	RakutenAccessToken string
	RakutenBaseURL     string

	AmazonSearchURL string
}

// UpstreamError is returned when a network answers with a non-2xx status
type UpstreamError struct {
	Network    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API %s error: %d", e.Network, e.StatusCode)
}

// Unwrap lets callers match ErrProviderAPIFailure
func (e *UpstreamError) Unwrap() error {
	return domain.ErrProviderAPIFailure
}

// Forwarder calls the real affiliate APIs and hands back their JSON body
// verbatim. Shape normalization is left to the adapters.
type Forwarder struct {
	httpClient *http.Client
	creds      Credentials
}

// NewForwarder creates a forwarder for the given credentials
func NewForwarder(creds Credentials, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Forwarder{
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
	}
}

// Configured reports whether the network has all the credentials it needs
func (f *Forwarder) Configured(network string) bool {
	c := f.creds
	switch network {
	case NetworkRakuten:
		return c.RakutenAccessToken != ""
	case NetworkAwin:
		return c.AwinAPIToken != "" && c.AwinPublisherID != ""
	case NetworkSkimlinks:
		return c.SkimlinksAPIKey != "" && c.SkimlinksPublisherID != ""
	case NetworkAmazon:
		return c.AmazonSearchURL != ""
	}
	return false
}

// Fetch forwards query to network and returns the raw response body
func (f *Forwarder) Fetch(ctx context.Context, network, query string) ([]byte, error) {
	log.Printf("[Proxy] Searching %s for: %q", network, query)

	req, err := f.buildRequest(ctx, network, query)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProviderAPIFailure, network, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading body: %v", domain.ErrProviderAPIFailure, network, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[Proxy] %s API returned %d: %s", network, resp.StatusCode, string(body))
		return nil, &UpstreamError{Network: network, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// buildRequest builds the upstream request for one network, validating its credentials
func (f *Forwarder) buildRequest(ctx context.Context, network, query string) (*http.Request, error) {
	c := f.creds
	var reqURL, bearer string

	switch network {
	case NetworkRakuten:
		if !f.Configured(network) {
			return nil, fmt.Errorf("%w: RAKUTEN_ACCESS_TOKEN missing", domain.ErrProviderNotConfigured)
		}
		params := url.Values{}
		params.Set("keyword", query)
		reqURL = fmt.Sprintf("%s/productsearch/1.0?%s", strings.TrimRight(c.RakutenBaseURL, "/"), params.Encode())
		bearer = c.RakutenAccessToken

	case NetworkAwin:
		if !f.Configured(network) {
			return nil, fmt.Errorf("%w: AWIN credentials missing", domain.ErrProviderNotConfigured)
		}
		params := url.Values{}
		params.Set("searchTerm", query)
		params.Set("limit", "10")
		reqURL = fmt.Sprintf("%s/publisher/%s/productdb/search?%s",
			strings.TrimRight(c.AwinBaseURL, "/"), url.PathEscape(c.AwinPublisherID), params.Encode())
		bearer = c.AwinAPIToken

	case NetworkSkimlinks:
		if !f.Configured(network) {
			return nil, fmt.Errorf("%w: SKIMLINKS credentials missing", domain.ErrProviderNotConfigured)
		}
		params := url.Values{}
		params.Set("key", c.SkimlinksAPIKey)
		params.Set("publisher_id", c.SkimlinksPublisherID)
		params.Set("q", query)
		params.Set("limit", "25")
		reqURL = fmt.Sprintf("%s/v1/products?%s", strings.TrimRight(c.SkimlinksBaseURL, "/"), params.Encode())

	case NetworkAmazon:
		if !f.Configured(network) {
			return nil, fmt.Errorf("%w: AMAZON search URL missing", domain.ErrProviderNotConfigured)
		}
		sep := "?"
		if strings.Contains(c.AmazonSearchURL, "?") {
			sep = "&"
		}
		reqURL = c.AmazonSearchURL + sep + "q=" + url.QueryEscape(query)

	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedNetwork, network)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "OwningTheLook/1.0")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return req, nil
}
