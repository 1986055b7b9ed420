package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/thesavant42/webhist/internal/models"
)

func TestIsRule(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{strings.Repeat("=", 50), true},
		{strings.Repeat("-", 40), true},
		{"=====", false},
		{"=== example.com Domain Timeline ===", false},
		{"", false},
		{"----====----", false},
	}
	for _, tt := range tests {
		if got := isRule(tt.line); got != tt.want {
			t.Errorf("isRule(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestRenderReportKeepsText(t *testing.T) {
	report := strings.Join([]string{
		"=== example.com Domain Timeline ===",
		"",
		"Activity Timeline",
		strings.Repeat("=", 50),
		"Events (most recent 2 of 2)",
		"  2024-01-01 00:00:00 [CERT] certificate issued: R3",
		"  2024-02-01 00:00:00 [ARCHIVE] snapshot: http://example.com/ (status: 200)",
		"",
	}, "\n")

	rendered := RenderReport(report)
	for _, want := range []string{
		"=== example.com Domain Timeline ===",
		"Activity Timeline",
		"[CERT]",
		"certificate issued: R3",
		"http://example.com/ (status: 200)",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("rendered report lost %q:\n%s", want, rendered)
		}
	}
}

func TestPrintReportPlain(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, "Error: invalid domain: localhost", true)
	if got := buf.String(); got != "Error: invalid domain: localhost\n" {
		t.Errorf("PrintReport plain = %q", got)
	}
}

func TestInvestigationRows(t *testing.T) {
	rows := investigationRows([]models.Investigation{{
		ID:               3,
		Domain:           "example.com",
		QueryType:        "WEB_ARCHIVE",
		CertificateCount: 0,
		SnapshotCount:    61,
		CreatedAt:        time.Date(2024, 6, 1, 9, 5, 0, 0, time.UTC),
	}})

	want := []string{"3", "example.com", "WEB_ARCHIVE", "0", "61", "2024-06-01 09:05"}
	if len(rows) != 1 || strings.Join(rows[0], "|") != strings.Join(want, "|") {
		t.Errorf("investigationRows() = %v, want %v", rows, want)
	}
}

func TestInvestigationColumnsFitLayout(t *testing.T) {
	for _, width := range []int{40, 110, 300} {
		layout := NewLayout(width, 30)
		total := 0
		for _, c := range investigationColumns(layout) {
			total += c.Width
		}
		if total > layout.TableWidth && width >= MinViewportWidth {
			t.Errorf("width %d: columns need %d, table has %d", width, total, layout.TableWidth)
		}
	}
}
