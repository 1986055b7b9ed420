package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/thesavant42/webhist/internal/api"
	"github.com/thesavant42/webhist/internal/models"
)

// DefaultFetchTimeout bounds each source fetch independently
const DefaultFetchTimeout = 10 * time.Second

// listingLimit is how many certificates CertificateListing prints before summarizing
const listingLimit = 10

// CertificateSource returns the raw certificate-log body for a domain
type CertificateSource interface {
	FetchCertificates(ctx context.Context, domain string) ([]byte, error)
}

// ArchiveSource returns the raw CDX body for a domain
type ArchiveSource interface {
	FetchSnapshots(ctx context.Context, domain string) ([]byte, error)
}

// Engine turns (domain, query type) requests into report text.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	certs        CertificateSource
	archive      ArchiveSource
	fetchTimeout time.Duration
	now          func() time.Time
	logger       *log.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithFetchTimeout overrides the per-source fetch timeout
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.fetchTimeout = d
		}
	}
}

// WithClock replaces the wall clock used for lifecycle verdicts
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine over the two sources. logger may be nil.
func NewEngine(certs CertificateSource, archive ArchiveSource, logger *log.Logger, opts ...Option) *Engine {
	e := &Engine{
		certs:        certs,
		archive:      archive,
		fetchTimeout: DefaultFetchTimeout,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is one investigation: the report text plus what it was built from
type Result struct {
	Domain           string
	QueryType        QueryType
	Report           string
	CertificateCount int
	SnapshotCount    int
	Valid            bool
	Analysis         *models.AnalysisResult
}

// Investigate returns the report for domain, or a short "Error: ..." line
// when the request is invalid. It never returns an error.
func (e *Engine) Investigate(ctx context.Context, domain, queryType string) string {
	return e.Run(ctx, domain, queryType).Report
}

// Run validates the request, fetches the sources the query type needs
// concurrently, and formats the report. Fetch failures leave that source
// empty; the report is still produced.
func (e *Engine) Run(ctx context.Context, domain, queryType string) Result {
	target, qt, msg := Validate(domain, queryType)
	if msg != "" {
		return Result{Domain: target, QueryType: qt, Report: msg}
	}

	in := Inputs{Domain: target}
	g, gctx := errgroup.WithContext(ctx)
	if qt.NeedsCertificates() {
		g.Go(func() error {
			in.Certificates = e.certificates(gctx, target)
			return nil
		})
	}
	if qt.NeedsArchive() {
		g.Go(func() error {
			in.Snapshots = e.snapshots(gctx, target)
			return nil
		})
	}
	if qt == WebArchive {
		g.Go(func() error {
			in.WWWSnapshots = e.snapshots(gctx, "www."+target)
			return nil
		})
	}
	// the goroutines swallow their errors, so Wait only synchronizes
	_ = g.Wait()

	report, res := Format(qt, in, e.now())
	e.debug("report built", "domain", target, "query_type", qt,
		"certificates", len(in.Certificates), "snapshots", len(in.Snapshots)+len(in.WWWSnapshots))

	return Result{
		Domain:           target,
		QueryType:        qt,
		Report:           report,
		CertificateCount: len(in.Certificates),
		SnapshotCount:    len(in.Snapshots) + len(in.WWWSnapshots),
		Valid:            true,
		Analysis:         &res,
	}
}

// CertificateListing prints the first certificates the log holds for domain,
// one block each, followed by a count of the rest.
func (e *Engine) CertificateListing(ctx context.Context, domain string) string {
	target, _, msg := Validate(domain, "")
	if msg != "" {
		return msg
	}

	certs := e.certificates(ctx, target)
	if len(certs) == 0 {
		return fmt.Sprintf("No certificates found for %s\n", target)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Certificate Transparency results for %s (%d certificates)\n\n", target, len(certs))
	for i, c := range certs {
		if i == listingLimit {
			fmt.Fprintf(&b, "... %d more\n", len(certs)-listingLimit)
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, orNA(c.CommonName))
		fmt.Fprintf(&b, "   Valid: %s to %s\n", orNA(c.NotBefore), orNA(c.NotAfter))
		fmt.Fprintf(&b, "   Issuer: %s\n", issuerLabel(c.IssuerName))
	}
	return b.String()
}

// Validate normalizes the domain and resolves the query type. msg is the
// error line to return to the caller, or "" when the request is valid.
func Validate(domain, queryType string) (target string, qt QueryType, msg string) {
	target = strings.ToLower(strings.TrimSpace(domain))
	if host, err := api.ExtractHost(target); err == nil {
		target = host
	}
	if target == "" || !strings.Contains(target, ".") {
		return target, "", fmt.Sprintf("Error: invalid domain: %s", target)
	}

	queryType = strings.TrimSpace(queryType)
	if queryType == "" {
		return target, Comprehensive, ""
	}
	qt, ok := ParseQueryType(queryType)
	if !ok {
		return target, "", fmt.Sprintf("Error: unknown query type: %s", queryType)
	}
	return target, qt, ""
}

// ParseToolInput splits the agent tool's "domain [QUERY_TYPE]" input
func ParseToolInput(input string) (domain, queryType string) {
	fields := strings.Fields(input)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], fields[1]
	}
}

func (e *Engine) fetchCertificates(ctx context.Context, domain string) []byte {
	if e.certs == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	body, err := e.certs.FetchCertificates(ctx, domain)
	if err != nil {
		e.warn("certificate fetch failed, continuing without certificate data", "domain", domain, "error", err)
		return nil
	}
	return body
}

func (e *Engine) fetchSnapshots(ctx context.Context, domain string) []byte {
	if e.archive == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	body, err := e.archive.FetchSnapshots(ctx, domain)
	if err != nil {
		e.warn("archive fetch failed, continuing without archive data", "domain", domain, "error", err)
		return nil
	}
	return body
}

// certificates fetches and normalizes the certificate records for domain
func (e *Engine) certificates(ctx context.Context, domain string) []models.CertificateRecord {
	body := e.fetchCertificates(ctx, domain)
	certs := NormalizeCertificates(body)
	if len(certs) == 0 && !emptyBody(body, 0) {
		e.warn("certificate response held no usable records", "domain", domain, "bytes", len(body))
	}
	return certs
}

func (e *Engine) snapshots(ctx context.Context, domain string) []models.ArchiveSnapshot {
	body := e.fetchSnapshots(ctx, domain)
	snaps := NormalizeArchive(body)
	if len(snaps) == 0 && !emptyBody(body, 1) {
		e.warn("archive response held no usable records", "domain", domain, "bytes", len(body))
	}
	return snaps
}

// emptyBody reports whether body is blank or a JSON array holding no more
// than header elements. Anything else that normalized to nothing was bad data.
func emptyBody(body []byte, header int) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return false
	}
	return len(items) <= header
}

func (e *Engine) warn(msg string, keyvals ...interface{}) {
	if e.logger != nil {
		e.logger.Warn(msg, keyvals...)
	}
}

func (e *Engine) debug(msg string, keyvals ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, keyvals...)
	}
}
