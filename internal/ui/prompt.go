package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/thesavant42/webhist/internal/history"
)

// sanitizeInput removes null bytes and other invisible control characters from input
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 || (r < 32 && r != '\t' && r != '\n' && r != '\r') {
			return -1
		}
		return r
	}, s)
}

// queryTypeDescriptions is the help text shown next to each report type
var queryTypeDescriptions = map[history.QueryType]string{
	history.Comprehensive:  "certificates, archive, infrastructure and timeline",
	history.WebArchive:     "archive history for the domain and its www host",
	history.CertAnalysis:   "certificate log and infrastructure analysis",
	history.TechAnalysis:   "issuers, renewal cadence and lifecycle only",
	history.DomainTimeline: "merged certificate and archive timeline",
}

// PromptForInvestigation asks for a domain and the report to run on it
func PromptForInvestigation() (domain string, queryType history.QueryType, err error) {
	queryType = history.Comprehensive

	options := make([]huh.Option[history.QueryType], 0, len(history.QueryTypes))
	for _, q := range history.QueryTypes {
		label := fmt.Sprintf("%-16s %s", q, queryTypeDescriptions[q])
		options = append(options, huh.NewOption(label, q))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Domain to investigate").
				Description("Hostname or URL, e.g. example.com").
				Placeholder("example.com").
				Value(&domain).
				Validate(func(s string) error {
					s = strings.TrimSpace(sanitizeInput(s))
					if s == "" {
						return fmt.Errorf("domain cannot be empty")
					}
					if !strings.Contains(s, ".") {
						return fmt.Errorf("invalid domain: %s", s)
					}
					return nil
				}),
			huh.NewSelect[history.QueryType]().
				Title("Report").
				Options(options...).
				Value(&queryType),
		),
	).WithTheme(NewAppTheme())

	if err := form.Run(); err != nil {
		return "", "", fmt.Errorf("prompt cancelled: %w", err)
	}

	return strings.TrimSpace(sanitizeInput(domain)), queryType, nil
}

// ConfirmRecord asks whether the finished report should be saved to the investigation log
func ConfirmRecord(domain string) bool {
	save := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Save the %s report to the investigation log?", domain)).
				Affirmative("Yes").
				Negative("No").
				Value(&save),
		),
	).WithTheme(NewAppTheme())

	if err := form.Run(); err != nil {
		return false
	}
	return save
}
