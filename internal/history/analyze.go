package history

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/thesavant42/webhist/internal/models"
)

// Renewal classifications and lifecycle verdicts, as they appear in reports
const (
	RenewalAutomated    = "automated/frequent renewal"
	RenewalStandard     = "standard renewal cycle"
	RenewalLongLived    = "long-lived certificate"
	RenewalInsufficient = "insufficient data"

	VerdictInactive = "inactive — certificate expired"
	VerdictUnknown  = "unknown — cannot parse expiry"
)

// renewal window, in days: deltas outside (0, maxRenewalDays) are not renewals
const maxRenewalDays = 365

// IssuerDistribution counts certificates per issuer name, most frequent first.
// Ties are ordered by issuer name.
func IssuerDistribution(certs []models.CertificateRecord) []models.Bucket {
	counts := make(map[string]int)
	for _, c := range certs {
		counts[c.IssuerName]++
	}
	buckets := toBuckets(counts)
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}

// CertificateYears buckets dated certificates by the year of NotBefore
func CertificateYears(certs []models.CertificateRecord) []models.Bucket {
	counts := make(map[string]int)
	for _, c := range certs {
		if !c.Dated() {
			continue
		}
		counts[strings.TrimSpace(c.NotBefore)[:4]]++
	}
	return sortedByLabel(counts)
}

// ArchiveYears buckets snapshots by capture year
func ArchiveYears(snapshots []models.ArchiveSnapshot) []models.Bucket {
	counts := make(map[string]int)
	for _, s := range snapshots {
		if year := s.Year(); year != "" {
			counts[year]++
		}
	}
	return sortedByLabel(counts)
}

// StatusDistribution counts snapshots per reported HTTP status.
// Captures without a status are counted under "N/A".
func StatusDistribution(snapshots []models.ArchiveSnapshot) []models.Bucket {
	counts := make(map[string]int)
	for _, s := range snapshots {
		status := strings.TrimSpace(s.HTTPStatus)
		if status == "" || status == "-" {
			status = "N/A"
		}
		counts[status]++
	}
	return sortedByLabel(counts)
}

// Subdomains returns every hostname named by the certificates, deduplicated
// as exact strings and sorted.
func Subdomains(certs []models.CertificateRecord) []string {
	seen := make(map[string]bool)
	for _, c := range certs {
		if cn := strings.TrimSpace(c.CommonName); cn != "" {
			seen[cn] = true
		}
		for _, name := range c.SANs() {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClassifyRenewal maps a mean renewal interval in days to its classification
func ClassifyRenewal(mean float64) string {
	switch {
	case mean < 30:
		return RenewalAutomated
	case mean < 90:
		return RenewalStandard
	default:
		return RenewalLongLived
	}
}

// RenewalIntervals measures the day gaps between consecutive issuances
func RenewalIntervals(certs []models.CertificateRecord) models.RenewalStats {
	dated := datedByIssuance(certs)
	stats := models.RenewalStats{
		DatedCount:     len(dated),
		Classification: RenewalInsufficient,
	}
	if len(dated) < 2 {
		return stats
	}

	for i := 1; i < len(dated); i++ {
		d := wholeDays(dated[i].NotBeforeTime.Sub(dated[i-1].NotBeforeTime))
		if d > 0 && d < maxRenewalDays {
			stats.Intervals = append(stats.Intervals, d)
		}
	}
	if len(stats.Intervals) == 0 {
		return stats
	}

	sum := 0
	stats.Min, stats.Max = stats.Intervals[0], stats.Intervals[0]
	for _, d := range stats.Intervals {
		sum += d
		if d < stats.Min {
			stats.Min = d
		}
		if d > stats.Max {
			stats.Max = d
		}
	}
	stats.Mean = float64(sum) / float64(len(stats.Intervals))
	stats.Classification = ClassifyRenewal(stats.Mean)
	return stats
}

// InferLifecycle judges whether the domain still holds a valid certificate,
// using the most recently issued dated certificate.
func InferLifecycle(certs []models.CertificateRecord, now time.Time) models.Lifecycle {
	dated := datedByIssuance(certs)
	if len(dated) == 0 {
		return models.Lifecycle{State: models.LifecycleNoData}
	}

	latest := dated[len(dated)-1]
	lc := models.Lifecycle{Latest: &latest}
	switch {
	case !latest.HasNotAfter:
		lc.State = models.LifecycleUnknown
		lc.Verdict = VerdictUnknown
	case latest.NotAfterTime.Before(now):
		lc.State = models.LifecycleInactive
		lc.Verdict = VerdictInactive
	default:
		lc.State = models.LifecycleActive
		lc.DaysRemaining = wholeDays(latest.NotAfterTime.Sub(now))
		lc.Verdict = ActiveVerdict(lc.DaysRemaining)
	}
	return lc
}

// ActiveVerdict renders the verdict for a certificate that has not expired
func ActiveVerdict(days int) string {
	return fmt.Sprintf("active — %d days remaining", days)
}

// ClassifyWildcards splits certificates into wildcard and standard
func ClassifyWildcards(certs []models.CertificateRecord) models.WildcardSplit {
	var split models.WildcardSplit
	for _, c := range certs {
		if c.IsWildcard() {
			split.Wildcard++
		} else {
			split.Standard++
		}
	}
	return split
}

// IssuerWindows reports, per issuer, when its certificates were first issued
// and how long the last of them stayed valid. Ordered by first issuance.
func IssuerWindows(certs []models.CertificateRecord) []models.IssuerWindow {
	byIssuer := make(map[string]*models.IssuerWindow)
	for _, c := range certs {
		if !c.Dated() {
			continue
		}
		w, ok := byIssuer[c.IssuerName]
		if !ok {
			w = &models.IssuerWindow{Issuer: c.IssuerName, FirstSeen: c.NotBeforeTime}
			byIssuer[c.IssuerName] = w
		}
		w.Count++
		if c.NotBeforeTime.Before(w.FirstSeen) {
			w.FirstSeen = c.NotBeforeTime
		}
		if c.HasNotAfter && (!w.HasExpiry || c.NotAfterTime.After(w.LastValid)) {
			w.LastValid = c.NotAfterTime
			w.HasExpiry = true
		}
	}

	windows := make([]models.IssuerWindow, 0, len(byIssuer))
	for _, w := range byIssuer {
		windows = append(windows, *w)
	}
	sort.Slice(windows, func(i, j int) bool {
		if !windows[i].FirstSeen.Equal(windows[j].FirstSeen) {
			return windows[i].FirstSeen.Before(windows[j].FirstSeen)
		}
		return windows[i].Issuer < windows[j].Issuer
	})
	return windows
}

// Analyze runs every analyzer over one request's records
func Analyze(domain string, certs []models.CertificateRecord, snapshots []models.ArchiveSnapshot, now time.Time) models.AnalysisResult {
	timeline := Merge(certs, snapshots)
	return models.AnalysisResult{
		Domain:           domain,
		CertificateCount: len(certs),
		SnapshotCount:    len(snapshots),
		Issuers:          IssuerDistribution(certs),
		CertificateYears: CertificateYears(certs),
		ArchiveYears:     ArchiveYears(snapshots),
		StatusCodes:      StatusDistribution(snapshots),
		RecentSnapshots:  lastSnapshots(snapshots, recentArchives),
		Subdomains:       Subdomains(certs),
		Renewal:          RenewalIntervals(certs),
		Lifecycle:        InferLifecycle(certs, now),
		Wildcards:        ClassifyWildcards(certs),
		IssuerWindows:    IssuerWindows(certs),
		Timeline:         timeline,
		Span:             ActivitySpan(timeline),
		Sections:         make(map[string]string),
	}
}

// lastSnapshots returns up to n trailing snapshots, unparsed timestamps included
func lastSnapshots(snapshots []models.ArchiveSnapshot, n int) []models.ArchiveSnapshot {
	if len(snapshots) > n {
		snapshots = snapshots[len(snapshots)-n:]
	}
	return snapshots
}

// datedByIssuance returns the dated certificates ordered by NotBefore.
// Equal issuance times keep source order, so the last one wins as "latest".
func datedByIssuance(certs []models.CertificateRecord) []models.CertificateRecord {
	var dated []models.CertificateRecord
	for _, c := range certs {
		if c.Dated() {
			dated = append(dated, c)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].NotBeforeTime.Before(dated[j].NotBeforeTime)
	})
	return dated
}

// wholeDays truncates a duration to whole days, rounding toward negative infinity
func wholeDays(d time.Duration) int {
	const day = 24 * time.Hour
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}

func toBuckets(counts map[string]int) []models.Bucket {
	buckets := make([]models.Bucket, 0, len(counts))
	for label, count := range counts {
		buckets = append(buckets, models.Bucket{Label: label, Count: count})
	}
	return buckets
}

func sortedByLabel(counts map[string]int) []models.Bucket {
	buckets := toBuckets(counts)
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}
