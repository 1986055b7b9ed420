package models

import "time"

// Bucket is one label/count pair of a histogram (issuers, years, status codes)
type Bucket struct {
	Label string
	Count int
}

// RenewalStats holds the renewal-interval analysis of a certificate set
type RenewalStats struct {
	DatedCount     int   // certificates with a parseable NotBefore
	Intervals      []int // retained day deltas (0 < d < 365)
	Mean           float64
	Min            int
	Max            int
	Classification string
}

// Sufficient reports whether a classification was computed from intervals
func (r RenewalStats) Sufficient() bool {
	return len(r.Intervals) > 0
}

// LifecycleState is the coarse verdict of the lifecycle inference
type LifecycleState int

const (
	LifecycleNoData LifecycleState = iota
	LifecycleActive
	LifecycleInactive
	LifecycleUnknown
)

// Lifecycle is the verdict derived from the most recently issued certificate
type Lifecycle struct {
	State         LifecycleState
	Latest        *CertificateRecord
	DaysRemaining int
	Verdict       string
}

// IssuerWindow is the span during which one issuer's certificates were in use
type IssuerWindow struct {
	Issuer    string
	Count     int
	FirstSeen time.Time
	LastValid time.Time
	HasExpiry bool
}

// WildcardSplit counts wildcard versus standard certificates
type WildcardSplit struct {
	Wildcard int
	Standard int
}

// ActivitySpan is the first-to-last range covered by a timeline
type ActivitySpan struct {
	Start time.Time
	End   time.Time
	Days  int
}

// AnalysisResult bundles the structured analyzer outputs for one request
type AnalysisResult struct {
	Domain           string
	CertificateCount int
	SnapshotCount    int
	Issuers          []Bucket
	CertificateYears []Bucket
	ArchiveYears     []Bucket
	StatusCodes      []Bucket
	RecentSnapshots  []ArchiveSnapshot // last rows in source order
	Subdomains       []string
	Renewal          RenewalStats
	Lifecycle        Lifecycle
	Wildcards        WildcardSplit
	IssuerWindows    []IssuerWindow
	Timeline         []Event
	Span             *ActivitySpan
	Sections         map[string]string // rendered section text, keyed by section name
}
