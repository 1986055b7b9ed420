package history

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/thesavant42/webhist/internal/api"
	"github.com/thesavant42/webhist/internal/models"
)

// QueryType selects which report the engine produces
type QueryType string

const (
	Comprehensive  QueryType = "COMPREHENSIVE"
	WebArchive     QueryType = "WEB_ARCHIVE"
	CertAnalysis   QueryType = "CERT_ANALYSIS"
	TechAnalysis   QueryType = "TECH_ANALYSIS"
	DomainTimeline QueryType = "DOMAIN_TIMELINE"
)

// QueryTypes lists the recognized query types in display order
var QueryTypes = []QueryType{Comprehensive, WebArchive, CertAnalysis, TechAnalysis, DomainTimeline}

// ParseQueryType matches s exactly (case-sensitive) against the known query types
func ParseQueryType(s string) (QueryType, bool) {
	for _, q := range QueryTypes {
		if string(q) == s {
			return q, true
		}
	}
	return "", false
}

// Title is the banner text for the report of this query type
func (q QueryType) Title() string {
	switch q {
	case Comprehensive:
		return "Comprehensive Web History Investigation"
	case WebArchive:
		return "Wayback Machine History"
	case CertAnalysis:
		return "Certificate Transparency Analysis"
	case TechAnalysis:
		return "Technical Infrastructure Analysis"
	case DomainTimeline:
		return "Domain Timeline"
	default:
		return string(q)
	}
}

// NeedsCertificates reports whether the report reads the certificate log
func (q QueryType) NeedsCertificates() bool {
	return q == Comprehensive || q == CertAnalysis || q == TechAnalysis || q == DomainTimeline
}

// NeedsArchive reports whether the report reads the archive index for the domain itself
func (q QueryType) NeedsArchive() bool {
	return q == Comprehensive || q == WebArchive || q == DomainTimeline
}

// Section names, used as keys of AnalysisResult.Sections
const (
	SectionCertificates = "certificates"
	SectionArchive      = "archive"
	SectionTechnical    = "technical"
	SectionTimeline     = "timeline"
)

const (
	sectionRule    = 50
	subsectionRule = 40
	issuerMaxRunes = 50
	recentArchives = 5
)

// Inputs is everything one report is built from
type Inputs struct {
	Domain       string
	Certificates []models.CertificateRecord
	Snapshots    []models.ArchiveSnapshot
	WWWSnapshots []models.ArchiveSnapshot // WEB_ARCHIVE only
}

// Format analyzes the inputs and renders the report for query type q.
// The returned AnalysisResult carries the rendered section text.
func Format(q QueryType, in Inputs, now time.Time) (string, models.AnalysisResult) {
	res := Analyze(in.Domain, in.Certificates, in.Snapshots, now)

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s %s ===\n\n", in.Domain, q.Title())

	switch q {
	case Comprehensive:
		if root, err := api.ExtractRootDomain(in.Domain); err == nil && root != in.Domain {
			fmt.Fprintf(&b, "Registrable domain: %s\n\n", root)
		}
		writeSection(&b, "Certificate Transparency Analysis", res, SectionCertificates, certificateSection(res))
		writeSection(&b, "Wayback Machine Archive Analysis", res, SectionArchive, archiveSection(res))
		writeSection(&b, "Technical Infrastructure Analysis", res, SectionTechnical, technicalSection(res))
		writeSection(&b, "Activity Timeline", res, SectionTimeline, timelineSection(res))

	case WebArchive:
		www := Analyze("www."+in.Domain, nil, in.WWWSnapshots, now)
		for _, r := range []models.AnalysisResult{res, www} {
			text := archiveSection(r)
			r.Sections[SectionArchive] = text
			fmt.Fprintf(&b, "%s archive history\n%s\n%s\n", r.Domain, strings.Repeat("-", subsectionRule), text)
		}

	case CertAnalysis:
		writeSection(&b, "Certificate Transparency Analysis", res, SectionCertificates, certificateSection(res))
		writeSection(&b, "Technical Infrastructure Analysis", res, SectionTechnical, technicalSection(res))

	case TechAnalysis:
		writeSection(&b, "Technical Infrastructure Analysis", res, SectionTechnical, technicalSection(res))

	case DomainTimeline:
		writeSection(&b, "Activity Timeline", res, SectionTimeline, timelineSection(res))
	}

	return strings.TrimRight(b.String(), "\n") + "\n", res
}

func writeSection(b *strings.Builder, title string, res models.AnalysisResult, key, text string) {
	res.Sections[key] = text
	fmt.Fprintf(b, "%s\n%s\n%s\n", title, strings.Repeat("=", sectionRule), text)
}

func certificateSection(res models.AnalysisResult) string {
	var b strings.Builder
	if res.CertificateCount == 0 {
		fmt.Fprintf(&b, "No certificate data found for %s\n", res.Domain)
		return b.String()
	}

	fmt.Fprintf(&b, "Total certificates: %d\n", res.CertificateCount)
	if skipped := res.CertificateCount - datedCount(res); skipped > 0 {
		fmt.Fprintf(&b, "Undated or inconsistent certificates: %d (excluded from date-based analysis)\n", skipped)
	}
	b.WriteString("\n")

	if first, ok := firstIssued(res); ok {
		b.WriteString("Certificate usage period\n")
		fmt.Fprintf(&b, "  First issued: %s\n", first.NotBefore)
		if latest := res.Lifecycle.Latest; latest != nil {
			fmt.Fprintf(&b, "  Latest issued: %s\n", latest.NotBefore)
			fmt.Fprintf(&b, "  Latest expiry: %s\n", orNA(latest.NotAfter))
		}
		b.WriteString("\n")
	}

	b.WriteString("Issuer distribution\n")
	for _, bucket := range res.Issuers {
		fmt.Fprintf(&b, "  %s: %d\n", issuerLabel(bucket.Label), bucket.Count)
	}
	b.WriteString("\n")

	b.WriteString("Certificates by year\n")
	writeBuckets(&b, res.CertificateYears)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Discovered subdomains (%d)\n", len(res.Subdomains))
	for _, name := range res.Subdomains {
		fmt.Fprintf(&b, "  %s\n", name)
	}
	return b.String()
}

func archiveSection(res models.AnalysisResult) string {
	var b strings.Builder
	if res.SnapshotCount == 0 {
		fmt.Fprintf(&b, "No archive data found for %s\n", res.Domain)
		return b.String()
	}

	fmt.Fprintf(&b, "Total snapshots: %d\n\n", res.SnapshotCount)

	dated := snapshotsByTime(res.Timeline)
	if len(dated) > 0 {
		first, last := dated[0], dated[len(dated)-1]
		b.WriteString("Archive period\n")
		fmt.Fprintf(&b, "  First snapshot: %s - %s\n", first.Timestamp, first.URL)
		fmt.Fprintf(&b, "  Last snapshot: %s - %s\n", last.Timestamp, last.URL)
		b.WriteString("\n")
	}

	b.WriteString("Snapshots by year\n")
	writeBuckets(&b, res.ArchiveYears)
	b.WriteString("\n")

	b.WriteString("HTTP status distribution\n")
	writeBuckets(&b, res.StatusCodes)
	b.WriteString("\n")

	b.WriteString("Recent snapshots\n")
	for _, s := range res.RecentSnapshots {
		fmt.Fprintf(&b, "  %s: %s (status: %s, type: %s)\n", orNA(s.Timestamp), orNA(s.URL), orNA(s.HTTPStatus), orNA(s.MimeType))
	}
	return b.String()
}

func technicalSection(res models.AnalysisResult) string {
	var b strings.Builder
	if res.CertificateCount == 0 {
		fmt.Fprintf(&b, "No certificate data found for %s; technical analysis unavailable\n", res.Domain)
		return b.String()
	}

	if len(res.IssuerWindows) > 0 {
		b.WriteString("Issuer usage windows\n")
		for _, w := range res.IssuerWindows {
			until := "unknown expiry"
			if w.HasExpiry {
				until = w.LastValid.Format("2006-01-02")
			}
			fmt.Fprintf(&b, "  %s: %d certificate(s), %s to %s\n",
				issuerLabel(w.Issuer), w.Count, w.FirstSeen.Format("2006-01-02"), until)
		}
		b.WriteString("\n")
	}

	r := res.Renewal
	b.WriteString("Renewal pattern\n")
	switch {
	case r.Sufficient():
		fmt.Fprintf(&b, "  Mean interval: %.1f days\n", r.Mean)
		fmt.Fprintf(&b, "  Shortest interval: %d days\n", r.Min)
		fmt.Fprintf(&b, "  Longest interval: %d days\n", r.Max)
		fmt.Fprintf(&b, "  Classification: %s\n", r.Classification)
	case r.DatedCount < 2:
		fmt.Fprintf(&b, "  Classification: %s (%d dated certificate(s), need at least 2)\n", r.Classification, r.DatedCount)
	default:
		fmt.Fprintf(&b, "  Classification: %s (no issuance gap between 1 and %d days)\n", r.Classification, maxRenewalDays-1)
	}
	b.WriteString("\n")

	b.WriteString("Certificate types\n")
	fmt.Fprintf(&b, "  Wildcard: %d\n", res.Wildcards.Wildcard)
	fmt.Fprintf(&b, "  Standard: %d\n", res.Wildcards.Standard)
	b.WriteString("\n")

	b.WriteString("Lifecycle\n")
	lc := res.Lifecycle
	if lc.State == models.LifecycleNoData {
		b.WriteString("  No dated certificate available; lifecycle cannot be inferred\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  Latest issuance: %s\n", lc.Latest.NotBefore)
	fmt.Fprintf(&b, "  Latest expiry: %s\n", orNA(lc.Latest.NotAfter))
	fmt.Fprintf(&b, "  Verdict: %s\n", lc.Verdict)
	return b.String()
}

func timelineSection(res models.AnalysisResult) string {
	var b strings.Builder
	if len(res.Timeline) == 0 {
		fmt.Fprintf(&b, "No dated certificate or archive events found for %s; timeline unavailable\n", res.Domain)
		return b.String()
	}

	window := Tail(res.Timeline, TimelineWindow)
	fmt.Fprintf(&b, "Events (most recent %d of %d)\n", len(window), len(res.Timeline))
	for _, e := range window {
		fmt.Fprintf(&b, "  %s [%s] %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Kind, describeEvent(e))
	}

	if span := res.Span; span != nil {
		b.WriteString("\nActivity span\n")
		fmt.Fprintf(&b, "  Start: %s\n", span.Start.Format("2006-01-02"))
		fmt.Fprintf(&b, "  Last activity: %s\n", span.End.Format("2006-01-02"))
		fmt.Fprintf(&b, "  Duration: %d days (about %d years %d months)\n", span.Days, span.Days/365, (span.Days%365)/30)
	}
	return b.String()
}

func describeEvent(e models.Event) string {
	switch e.Kind {
	case models.EventCertificate:
		return "certificate issued: " + truncateRunes(issuerLabel(e.Certificate.IssuerName), issuerMaxRunes)
	case models.EventArchive:
		return fmt.Sprintf("snapshot: %s (status: %s)", e.Snapshot.URL, orNA(e.Snapshot.HTTPStatus))
	default:
		return ""
	}
}

func writeBuckets(b *strings.Builder, buckets []models.Bucket) {
	if len(buckets) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, bucket := range buckets {
		fmt.Fprintf(b, "  %s: %d\n", bucket.Label, bucket.Count)
	}
}

func datedCount(res models.AnalysisResult) int {
	n := 0
	for _, e := range res.Timeline {
		if e.Kind == models.EventCertificate {
			n++
		}
	}
	return n
}

func firstIssued(res models.AnalysisResult) (models.CertificateRecord, bool) {
	for _, e := range res.Timeline {
		if e.Kind == models.EventCertificate {
			return *e.Certificate, true
		}
	}
	return models.CertificateRecord{}, false
}

// snapshotsByTime pulls the dated snapshots out of the (already sorted) timeline
func snapshotsByTime(timeline []models.Event) []models.ArchiveSnapshot {
	var snaps []models.ArchiveSnapshot
	for _, e := range timeline {
		if e.Kind == models.EventArchive {
			snaps = append(snaps, *e.Snapshot)
		}
	}
	sort.SliceStable(snaps, func(i, j int) bool { return snaps[i].Time.Before(snaps[j].Time) })
	return snaps
}

func issuerLabel(name string) string {
	if strings.TrimSpace(name) == "" {
		return "(unknown issuer)"
	}
	return name
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
