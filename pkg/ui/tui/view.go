package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"roparse/pkg/ui"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, logoStyle.Render(ui.ASCIILogo))

	width := m.width - 4
	if width < 40 {
		width = 40
	}
	sections = append(sections, m.renderStatsPanel(width))
	sections = append(sections, m.renderLogsPanel(width))

	if m.showHelp {
		sections = append(sections, m.renderHelp(width))
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help, q to stop"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatsPanel renders the crawl counters
func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render("GROUP " + m.info.GroupID)

	status := StateStyle(m.state).Render(strings.ToUpper(m.state.String()))
	if m.state == RunActive {
		status = m.spinner.View() + " " + status
	}

	elapsed := time.Since(m.sessionStartTime)
	if !m.finishedAt.IsZero() {
		elapsed = m.finishedAt.Sub(m.sessionStartTime)
	}

	cursor := m.nextCursor
	if cursor == "" {
		cursor = "-"
	}
	if len(cursor) > 32 {
		cursor = cursor[:29] + "..."
	}

	rows := []string{
		m.statRow("Status", status),
		m.statRow("Mode", fmt.Sprintf("%s (%d workers)", m.info.Mode, m.info.Workers)),
		m.statRow("Pages", fmt.Sprintf("%d", m.pages)),
		m.statRow("Processed", fmt.Sprintf("%d", m.processed)),
		m.statRow("Unique", fmt.Sprintf("%d (+%d)", m.unique, m.lastAdded)),
		m.statRow("Rate", rateStyle.Render(fmt.Sprintf("%.1f members/s", m.Rate()))),
		m.statRow("Elapsed", formatDuration(elapsed)),
		m.statRow("Next cursor", cursor),
	}

	if m.info.MaxUsers > 0 {
		bar := m.progress.ViewAs(m.CapProgress())
		rows = append(rows, m.statRow("Cap", fmt.Sprintf("%s %d/%d", bar, m.unique, m.info.MaxUsers)))
	}
	if m.info.Output != "" {
		rows = append(rows, m.statRow("Output", m.info.Output))
	}
	if m.stopReason != "" {
		rows = append(rows, m.statRow("Stop reason", m.stopReason))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, rows...)...),
	)
}

func (m *Model) statRow(label, value string) string {
	return statsLabelStyle.Render(label+":") + statsValueStyle.Render(value)
}

// renderLogsPanel renders the most recent log lines that fit the window
func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render("LOG")

	height := m.height - 28
	if height < 3 {
		height = 3
	}

	start := 0
	if len(m.logMessages) > height {
		start = len(m.logMessages) - height
	}

	maxMsgLen := width - 20
	var logs []string
	for _, entry := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(entry.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(entry.Color).Render(fmt.Sprintf("%-7s", entry.Level))
		message := entry.Message
		if maxMsgLen > 3 && len(message) > maxMsgLen {
			message = message[:maxMsgLen-3] + "..."
		}
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m *Model) renderHelp(width int) string {
	help := `
  Keys:
    q/ctrl+c - Stop collecting and save what was found
    ctrl+l   - Clear the log panel
    ?        - Toggle this help

  Status:
    ` + successStyle.Render("Green") + `    - Finished
    ` + warningStyle.Render("Orange") + `   - Stopping
    ` + errorStyle.Render("Red") + `      - Failed
`

	return panelStyle.Width(width).Render(help)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
