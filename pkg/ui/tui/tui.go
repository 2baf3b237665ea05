package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"roparse/pkg/models"
)

// TUI represents the terminal user interface. It satisfies the scraper's
// Observer interface so it can be attached to a run directly.
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a new TUI instance. stop is called when the user presses
// q or ctrl+c while the crawl is running.
func NewTUI(info RunInfo, stop func(), opts ...tea.ProgramOption) *TUI {
	model := NewModel(info, stop)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	program := tea.NewProgram(&model, opts...)

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start runs the TUI until the crawl is done or the program is quit
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// PageProcessed forwards crawl progress to the model
func (t *TUI) PageProcessed(p models.Progress) {
	t.Send(PageMsg{Progress: p})
}

// FetchFailed forwards a fetch failure to the model
func (t *TUI) FetchFailed(err error) {
	t.Send(FetchErrorMsg{Error: err})
}

// Finish reports the written result file and ends the program
func (t *TUI) Finish(outputPath string, unique int, stopReason string, err error) {
	t.Send(DoneMsg{
		OutputPath: outputPath,
		Unique:     unique,
		StopReason: stopReason,
		Err:        err,
	})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	t.Send(SendLog(level, message))
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}
