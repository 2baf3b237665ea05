package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"roparse/pkg/models"
)

// RunState is the lifecycle of the crawl shown by the TUI
type RunState int

const (
	RunActive RunState = iota
	RunStopping
	RunFinished
	RunFailed
)

func (s RunState) String() string {
	switch s {
	case RunActive:
		return "collecting"
	case RunStopping:
		return "stopping"
	case RunFinished:
		return "finished"
	case RunFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunInfo describes the crawl being displayed
type RunInfo struct {
	GroupID  string
	Mode     string
	Workers  int
	MaxUsers int
	Output   string
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner  spinner.Model
	progress progress.Model

	info RunInfo

	// Crawl state
	state      RunState
	pages      int
	processed  int
	unique     int
	lastAdded  int
	nextCursor string
	failure    error
	stopReason string

	sessionStartTime time.Time
	finishedAt       time.Time

	// stop is called once when the user asks to stop
	stop       func()
	stopCalled bool
	quitOnDone bool

	// UI state
	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a new TUI model. stop is invoked when the user presses
// q or ctrl+c.
func NewModel(info RunInfo, stop func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return Model{
		spinner:          s,
		progress:         p,
		info:             info,
		state:            RunActive,
		stop:             stop,
		sessionStartTime: time.Now(),
		logMessages:      []LogMessage{},
		maxLogMessages:   50,
		quitOnDone:       true,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// ApplyProgress records a processed page
func (m *Model) ApplyProgress(p models.Progress) {
	m.pages = p.Page
	m.processed = p.Processed
	m.unique = p.Unique
	m.lastAdded = p.Added
	m.nextCursor = p.NextCursor
}

// RequestStop asks the crawl to stop; repeated calls do nothing
func (m *Model) RequestStop() {
	if m.stopCalled || m.state != RunActive {
		return
	}
	m.stopCalled = true
	m.state = RunStopping
	if m.stop != nil {
		m.stop()
	}
	m.AddLogMessage("WARN", "Stop requested, finishing current page")
}

// Finish marks the crawl as over
func (m *Model) Finish(msg DoneMsg) {
	m.finishedAt = time.Now()
	m.stopReason = msg.StopReason
	if msg.Unique > 0 || m.unique == 0 {
		m.unique = msg.Unique
	}
	if msg.OutputPath != "" {
		m.info.Output = msg.OutputPath
	}
	if msg.Err != nil {
		m.state = RunFailed
		m.failure = msg.Err
		m.AddLogMessage("ERROR", "Failed to write results: "+msg.Err.Error())
		return
	}
	m.state = RunFinished
	m.AddLogMessage("SUCCESS", "Results saved to "+m.info.Output)
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	color := dimWhite
	switch level {
	case "ERROR":
		color = errorRed
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	case "INFO":
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// CapProgress returns how far the unique count is toward max users, in
// [0, 1]. It is 0 when no cap is set.
func (m *Model) CapProgress() float64 {
	if m.info.MaxUsers <= 0 {
		return 0
	}
	ratio := float64(m.unique) / float64(m.info.MaxUsers)
	if ratio > 1 {
		return 1
	}
	return ratio
}

// Rate returns processed members per second since the session started
func (m *Model) Rate() float64 {
	end := time.Now()
	if !m.finishedAt.IsZero() {
		end = m.finishedAt
	}
	elapsed := end.Sub(m.sessionStartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(m.processed) / elapsed
}

// Done reports whether the crawl is over
func (m *Model) Done() bool {
	return m.state == RunFinished || m.state == RunFailed
}
