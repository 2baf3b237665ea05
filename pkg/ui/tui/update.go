package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"roparse/pkg/models"
)

// Message types for the TUI

// PageMsg is sent after a page was applied to the result set
type PageMsg struct {
	Progress models.Progress
}

// FetchErrorMsg is sent when a fetch failure ended the crawl
type FetchErrorMsg struct {
	Error error
}

// DoneMsg is sent once the result file was written or failed to write
type DoneMsg struct {
	OutputPath string
	Unique     int
	StopReason string
	Err        error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.Done() {
			return m, nil
		}
		return m, tickCmd()

	case PageMsg:
		m.ApplyProgress(msg.Progress)
		return m, nil

	case FetchErrorMsg:
		m.AddLogMessage("ERROR", "Request error: "+msg.Error.Error())
		return m, nil

	case DoneMsg:
		m.Finish(msg)
		if m.quitOnDone {
			return m, tea.Quit
		}
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if m.Done() {
			return m, tea.Quit
		}
		m.RequestStop()
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = []LogMessage{}
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*250, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// SendLog creates a log message
func SendLog(level, message string) tea.Msg {
	return LogMsg{Level: level, Message: message}
}
