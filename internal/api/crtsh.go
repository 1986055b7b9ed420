package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
)

const DefaultCrtshBaseURL = "https://crt.sh"

// CrtshClient fetches certificate transparency entries from crt.sh
type CrtshClient struct {
	baseURL string
	fetcher *fetcher
}

// NewCrtshClient creates a new crt.sh client
func NewCrtshClient(baseURL string, opts ClientOptions, logger *log.Logger) *CrtshClient {
	if baseURL == "" {
		baseURL = DefaultCrtshBaseURL
	}
	return &CrtshClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		fetcher: newFetcher("crt.sh", opts, logger),
	}
}

// FetchCertificates fetches the raw crt.sh JSON for a domain (exact identity match)
func (c *CrtshClient) FetchCertificates(ctx context.Context, domain string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/?q=%s&output=json", c.baseURL, url.QueryEscape(strings.ToLower(strings.TrimSpace(domain))))
	body, err := c.fetcher.get(ctx, reqURL, "application/json")
	if err != nil {
		return nil, fmt.Errorf("crt.sh query for %s: %w", domain, err)
	}
	return body, nil
}
