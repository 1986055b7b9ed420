package ui

// history.go browses the investigation log: a table of past runs, and the
// stored report of the selected run in a scrollable viewport.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thesavant42/webhist/internal/models"
)

const historyTimeLayout = "2006-01-02 15:04"

// investigationColumns sizes the history table to the layout width.
// The domain column takes whatever the fixed columns leave over.
func investigationColumns(layout Layout) []table.Column {
	const idW, typeW, certW, snapW, whenW = 6, 16, 7, 7, 17
	domainW := layout.TableWidth - (idW + typeW + certW + snapW + whenW) - 12
	if domainW < 16 {
		domainW = 16
	}
	return []table.Column{
		{Title: "ID", Width: idW},
		{Title: "Domain", Width: domainW},
		{Title: "Report", Width: typeW},
		{Title: "Certs", Width: certW},
		{Title: "Snaps", Width: snapW},
		{Title: "When (UTC)", Width: whenW},
	}
}

func investigationRows(invs []models.Investigation) []table.Row {
	rows := make([]table.Row, 0, len(invs))
	for _, inv := range invs {
		rows = append(rows, table.Row{
			strconv.FormatInt(inv.ID, 10),
			inv.Domain,
			inv.QueryType,
			strconv.Itoa(inv.CertificateCount),
			strconv.Itoa(inv.SnapshotCount),
			inv.CreatedAt.UTC().Format(historyTimeLayout),
		})
	}
	return rows
}

// InitTable creates a table with the app styles and the cursor at the top
func InitTable(columns []table.Column, rows []table.Row, height int, focused bool) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(focused),
		table.WithHeight(height),
	)
	ApplyTableStyles(&t)
	t.GotoTop()
	return t
}

// RenderInvestigationTable renders the log as a static, non-interactive table
func RenderInvestigationTable(invs []models.Investigation, total int) string {
	if len(invs) == 0 {
		return HintStyle.Render("No investigations recorded yet.")
	}
	layout := DefaultLayout()
	t := InitTable(investigationColumns(layout), investigationRows(invs), len(invs)+1, false)

	footer := HintStyle.Render(fmt.Sprintf("%d of %d investigations", len(invs), total))
	return BorderStyle.Render(t.View()) + "\n" + footer
}

// RenderDomainSummaries lists each investigated domain with its run count
func RenderDomainSummaries(domains []models.DomainSummary) string {
	if len(domains) == 0 {
		return HintStyle.Render("No investigations recorded yet.")
	}
	columns := []table.Column{
		{Title: "Domain", Width: 40},
		{Title: "Runs", Width: 6},
		{Title: "Last run (UTC)", Width: 17},
	}
	rows := make([]table.Row, 0, len(domains))
	for _, d := range domains {
		rows = append(rows, table.Row{d.Domain, strconv.Itoa(d.Runs), d.LastRun.UTC().Format(historyTimeLayout)})
	}
	return BorderStyle.Render(InitTable(columns, rows, len(rows)+1, false).View())
}

// historyModel is the interactive log browser
type historyModel struct {
	table    table.Model
	viewport viewport.Model
	invs     []models.Investigation
	layout   Layout
	viewing  bool
	quitting bool
}

// RunHistoryBrowser shows the investigation log; enter opens a stored report,
// esc goes back, q quits.
func RunHistoryBrowser(invs []models.Investigation) error {
	layout := DefaultLayout()
	m := historyModel{
		table:    InitTable(investigationColumns(layout), investigationRows(invs), TableHeight, true),
		viewport: viewport.New(layout.ViewportWidth, layout.Height-4),
		invs:     invs,
		layout:   layout,
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("history browser error: %w", err)
	}
	return nil
}

func (m historyModel) Init() tea.Cmd {
	return tea.WindowSize()
}

func (m historyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = NewLayout(msg.Width, msg.Height)
		m.table.SetColumns(investigationColumns(m.layout))
		m.table.SetHeight(clamp(msg.Height-6, 3, TableHeight*2))
		m.viewport.Width = m.layout.ViewportWidth
		m.viewport.Height = msg.Height - 4
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if m.viewing {
			switch key {
			case "esc", "backspace":
				m.viewing = false
				return m, nil
			case "q", "ctrl+c":
				m.quitting = true
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		switch key {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if i := m.table.Cursor(); i >= 0 && i < len(m.invs) {
				m.viewport.SetContent(RenderReport(m.invs[i].Report))
				m.viewport.GotoTop()
				m.viewing = true
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m historyModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.viewing {
		inv := m.invs[m.table.Cursor()]
		b.WriteString(TitleStyle.Render(fmt.Sprintf("#%d %s %s", inv.ID, inv.Domain, inv.QueryType)))
		b.WriteString("\n")
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
		b.WriteString(HintStyle.Render(fmt.Sprintf("↑/↓ scroll • esc back • q quit • %3.0f%%", m.viewport.ScrollPercent()*100)))
		return b.String()
	}

	b.WriteString(TitleStyle.Render("Investigation log"))
	b.WriteString("\n")
	b.WriteString(BorderStyle.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(HintStyle.Render(fmt.Sprintf("%d investigations • enter open • q quit", len(m.invs))))
	return b.String()
}
