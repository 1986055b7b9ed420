package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/thesavant42/webhist/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "webhist.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndGetInvestigation(t *testing.T) {
	db := openTestDB(t)

	created := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	id, err := db.InsertInvestigation(models.Investigation{
		Domain:           "example.com",
		QueryType:        "CERT_ANALYSIS",
		Report:           "=== example.com Certificate Transparency Analysis ===\n",
		CertificateCount: 12,
		SnapshotCount:    0,
		CreatedAt:        created,
	})
	if err != nil {
		t.Fatalf("InsertInvestigation() error = %v", err)
	}

	got, err := db.GetInvestigation(id)
	if err != nil {
		t.Fatalf("GetInvestigation(%d) error = %v", id, err)
	}
	if got.Domain != "example.com" || got.QueryType != "CERT_ANALYSIS" || got.CertificateCount != 12 {
		t.Errorf("unexpected investigation: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}

	if _, err := db.GetInvestigation(id + 100); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInvestigation(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGetInvestigationsFiltered(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	runs := []struct {
		domain string
		offset int
	}{
		{"example.com", 0},
		{"example.org", 1},
		{"example.com", 2},
		{"example.com", 3},
	}
	for _, r := range runs {
		_, err := db.InsertInvestigation(models.Investigation{
			Domain:    r.domain,
			QueryType: "COMPREHENSIVE",
			Report:    "report",
			CreatedAt: base.Add(time.Duration(r.offset) * time.Hour),
		})
		if err != nil {
			t.Fatalf("InsertInvestigation() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    models.InvestigationFilter
		wantLen   int
		wantTotal int
	}{
		{"all", models.InvestigationFilter{}, 4, 4},
		{"by domain", models.InvestigationFilter{Domain: "example.com"}, 3, 3},
		{"paged", models.InvestigationFilter{Domain: "example.com", Limit: 2, Offset: 2}, 1, 3},
		{"unknown domain", models.InvestigationFilter{Domain: "nope.test"}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := db.GetInvestigations(tt.filter)
			if err != nil {
				t.Fatalf("GetInvestigations() error = %v", err)
			}
			if len(got) != tt.wantLen || total != tt.wantTotal {
				t.Errorf("got %d rows (total %d), want %d (total %d)", len(got), total, tt.wantLen, tt.wantTotal)
			}
		})
	}

	all, _, _ := db.GetInvestigations(models.InvestigationFilter{})
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Errorf("investigations not newest first: %v after %v", all[i].CreatedAt, all[i-1].CreatedAt)
		}
	}
}

func TestGetInvestigatedDomainsAndPrune(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, domain := range []string{"old.example", "example.com", "example.com"} {
		if _, err := db.InsertInvestigation(models.Investigation{
			Domain:    domain,
			QueryType: "COMPREHENSIVE",
			Report:    "r",
			CreatedAt: base.AddDate(0, 0, i*10),
		}); err != nil {
			t.Fatalf("InsertInvestigation() error = %v", err)
		}
	}

	domains, err := db.GetInvestigatedDomains()
	if err != nil {
		t.Fatalf("GetInvestigatedDomains() error = %v", err)
	}
	if len(domains) != 2 || domains[0].Domain != "example.com" || domains[0].Runs != 2 {
		t.Errorf("unexpected domain summaries: %+v", domains)
	}

	removed, err := db.PruneBefore(base.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("PruneBefore() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("PruneBefore removed %d rows, want 1", removed)
	}
}
