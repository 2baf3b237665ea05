package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"roparse/pkg/models"
)

// ProgressLine keeps a single console line with the processed member count
// up to date while a crawl runs
type ProgressLine struct {
	mu        sync.Mutex
	out       io.Writer
	processed int
	startTime time.Time
	printed   bool
}

// NewProgressLine creates a progress line writing to out
func NewProgressLine(out io.Writer) *ProgressLine {
	return &ProgressLine{
		out:       out,
		startTime: time.Now(),
	}
}

// PageProcessed redraws the line after a page was applied
func (p *ProgressLine) PageProcessed(progress models.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed = progress.Processed
	p.printed = true
	fmt.Fprintf(p.out, "\rProcessed members: %d", p.processed)
}

// FetchFailed reports the error that ended the crawl below the line
func (p *ProgressLine) FetchFailed(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.newline()
	fmt.Fprintf(p.out, "%s %v\n", Red("Request error:"), err)
}

// Finish ends the progress line and prints where the results went
func (p *ProgressLine) Finish(outputPath string, unique int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.newline()
	fmt.Fprintf(p.out, "Results saved to %s\n", outputPath)
	fmt.Fprintf(p.out, "Total unique users found: %d\n", unique)
}

// Rate returns the average number of processed members per second
func (p *ProgressLine) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(p.processed) / elapsed
}

func (p *ProgressLine) newline() {
	if p.printed {
		fmt.Fprintln(p.out)
		p.printed = false
	}
}
