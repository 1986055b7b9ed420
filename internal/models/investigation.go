package models

import "time"

// Investigation is one logged engine run: the request and the report it produced
type Investigation struct {
	ID               int64     `json:"id"`
	Domain           string    `json:"domain"`
	QueryType        string    `json:"query_type"`
	Report           string    `json:"report"`
	CertificateCount int       `json:"certificate_count"`
	SnapshotCount    int       `json:"snapshot_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// InvestigationFilter holds filter criteria for listing logged investigations
type InvestigationFilter struct {
	Domain string
	Limit  int
	Offset int
}

// DomainSummary aggregates the logged runs for one domain
type DomainSummary struct {
	Domain  string    `json:"domain"`
	Runs    int       `json:"runs"`
	LastRun time.Time `json:"last_run"`
}
