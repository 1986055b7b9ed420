package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	DefaultWaybackBaseURL = "https://web.archive.org"
	DefaultArchiveLimit   = 50
)

// WaybackClient handles Wayback Machine CDX API requests
type WaybackClient struct {
	baseURL string
	limit   int
	fetcher *fetcher
}

// NewWaybackClient creates a new Wayback Machine API client.
// limit caps the number of capture rows per query; <= 0 uses DefaultArchiveLimit.
func NewWaybackClient(baseURL string, limit int, opts ClientOptions, logger *log.Logger) *WaybackClient {
	if baseURL == "" {
		baseURL = DefaultWaybackBaseURL
	}
	if limit <= 0 {
		limit = DefaultArchiveLimit
	}
	return &WaybackClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		limit:   limit,
		fetcher: newFetcher("wayback", opts, logger),
	}
}

// Limit returns the row cap applied to every query
func (c *WaybackClient) Limit() int {
	return c.limit
}

// BuildCDXQuery constructs the raw query string for the CDX API, without the leading '?'.
// The domain is matched exactly (no wildcard), which is what the snapshot index
// reports for a single host.
func BuildCDXQuery(domain string, limit int) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return fmt.Sprintf("url=%s&output=json&limit=%d", url.QueryEscape(domain), limit)
}

// FetchSnapshots fetches the raw CDX JSON for a domain.
// The body is a sequence of rows whose first element is the header row.
func (c *WaybackClient) FetchSnapshots(ctx context.Context, domain string) ([]byte, error) {
	rawURL := c.baseURL + "/cdx/search/cdx?" + BuildCDXQuery(domain, c.limit)
	body, err := c.fetcher.get(ctx, rawURL, "application/json, text/plain, */*")
	if err != nil {
		return nil, fmt.Errorf("CDX query for %s: %w", domain, err)
	}
	return body, nil
}

// ExtractRootDomain returns the registrable domain (eTLD+1) of a host or URL,
// e.g. "mail.shop.example.co.uk" -> "example.co.uk".
func ExtractRootDomain(input string) (string, error) {
	host, err := ExtractHost(input)
	if err != nil {
		return "", err
	}

	// Use publicsuffix to get the effective TLD+1 (root domain)
	rootDomain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", fmt.Errorf("failed to extract root domain: %w", err)
	}

	return rootDomain, nil
}

// ExtractHost reduces a URL or hostname to a bare lowercase hostname
func ExtractHost(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty input")
	}

	// If it looks like a URL, parse it
	if strings.Contains(input, "://") {
		parsed, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		input = parsed.Hostname()
	} else if i := strings.IndexAny(input, "/?#"); i >= 0 {
		input = input[:i]
	}

	input = strings.TrimSuffix(input, ".")
	return strings.ToLower(input), nil
}

// ClientOptions configures the HTTP behaviour shared by the source clients
type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
	RateLimit rate.Limit // requests per second; 0 disables limiting
}
