package ui

import (
	"fmt"
	"io"
	"strings"
)

// RenderReport colors a plain-text report for the terminal. The text itself
// is unchanged; only banners, section titles, rules and event tags are styled.
func RenderReport(report string) string {
	lines := strings.Split(report, "\n")
	out := make([]string, len(lines))

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "=== ") && strings.HasSuffix(line, " ==="):
			out[i] = BannerStyle.Render(line)
		case strings.HasPrefix(line, "Error: "):
			out[i] = ErrorStyle.Render(line)
		case isRule(trimmed):
			out[i] = RuleStyle.Render(line)
		case i+1 < len(lines) && isRule(strings.TrimSpace(lines[i+1])) && trimmed != "":
			out[i] = TitleStyle.Render(line)
		case trimmed != "" && !strings.HasPrefix(line, " ") && !strings.Contains(line, ":"):
			out[i] = SubtitleStyle.Render(line)
		case strings.Contains(line, "[CERT]"):
			out[i] = strings.Replace(line, "[CERT]", CertTagStyle.Render("[CERT]"), 1)
		case strings.Contains(line, "[ARCHIVE]"):
			out[i] = strings.Replace(line, "[ARCHIVE]", ArchiveTagStyle.Render("[ARCHIVE]"), 1)
		case strings.HasPrefix(trimmed, "Verdict: "), strings.HasPrefix(trimmed, "Classification: "):
			out[i] = AccentStyle.Render(line)
		default:
			out[i] = line
		}
	}
	return strings.Join(out, "\n")
}

// isRule reports whether s is a section underline (all "=" or all "-")
func isRule(s string) bool {
	if len(s) < 10 {
		return false
	}
	return strings.Trim(s, "=") == "" || strings.Trim(s, "-") == ""
}

// PrintReport writes the report, styled unless plain is set
func PrintReport(w io.Writer, report string, plain bool) {
	if plain {
		fmt.Fprint(w, report)
	} else {
		fmt.Fprint(w, RenderReport(report))
	}
	if !strings.HasSuffix(report, "\n") {
		fmt.Fprintln(w)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Println(SuccessStyle.Render(message))
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Println(ErrorStyle.Render("Error: " + message))
}

// PrintHint prints dimmed help text
func PrintHint(message string) {
	fmt.Println(HintStyle.Render(message))
}
