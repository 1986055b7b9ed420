package api

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes     = 32 << 20
)

// StatusError is returned when a source answers with a non-2xx status
type StatusError struct {
	Source string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Source, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Source, e.Code, e.Body)
}

// fetcher is the GET-with-headers plumbing shared by the crt.sh and CDX clients
type fetcher struct {
	source     string
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	logger     *log.Logger
	maxBody    int64
}

func newFetcher(source string, opts ClientOptions, logger *log.Logger) *fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	f := &fetcher{
		source: source,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: ua,
		logger:    logger,
		maxBody:   maxBodyBytes,
	}
	if opts.RateLimit > 0 {
		f.limiter = rate.NewLimiter(opts.RateLimit, 1)
	}
	return f
}

func (f *fetcher) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Encoding", "gzip")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Source: f.source, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	// Handle gzip-compressed responses
	var reader io.Reader = resp.Body
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("%s response exceeds %d bytes", f.source, f.maxBody)
	}

	if f.logger != nil {
		f.logger.Debug("source fetched", "source", f.source, "bytes", len(body), "elapsed", time.Since(start))
	}

	return body, nil
}
