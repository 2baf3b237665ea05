package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"roparse/pkg/roblox"
)

// ErrInvalidGroupID is returned when the entered group id is not a number
var ErrInvalidGroupID = errors.New("group id must be a number")

// RunAnswers holds what the user entered at the interactive prompt
type RunAnswers struct {
	GroupID string
	// MaxUsers is 0 when every member should be collected
	MaxUsers int
	Workers  int
}

// Prompter asks for run parameters on a line-oriented terminal
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading answers from in and writing
// questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// IsInteractive reports whether f is attached to a terminal
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// AskGroupID asks for the group id. Anything but digits is rejected.
func (p *Prompter) AskGroupID() (string, error) {
	answer, err := p.ask("Enter group ID: ")
	if err != nil {
		return "", err
	}
	if !roblox.IsValidGroupID(answer) {
		return "", ErrInvalidGroupID
	}
	return answer, nil
}

// AskMaxUsers asks how many users to collect. An empty or non-numeric
// answer, or zero, means all of them.
func (p *Prompter) AskMaxUsers() (int, error) {
	answer, err := p.ask("Enter number of users to collect (leave empty to collect all): ")
	if err != nil {
		return 0, err
	}
	n, ok := positiveInt(answer)
	if !ok {
		return 0, nil
	}
	return n, nil
}

// AskWorkers asks for the worker count. Anything but a positive number
// means one worker.
func (p *Prompter) AskWorkers() (int, error) {
	answer, err := p.ask("Enter number of workers (default 1): ")
	if err != nil {
		return 1, err
	}
	n, ok := positiveInt(answer)
	if !ok {
		return 1, nil
	}
	return n, nil
}

// AskRun asks all three questions in order. It stops at the group id when
// that answer is invalid.
func (p *Prompter) AskRun() (*RunAnswers, error) {
	groupID, err := p.AskGroupID()
	if err != nil {
		return nil, err
	}
	maxUsers, err := p.AskMaxUsers()
	if err != nil {
		return nil, err
	}
	workers, err := p.AskWorkers()
	if err != nil {
		return nil, err
	}

	return &RunAnswers{
		GroupID:  groupID,
		MaxUsers: maxUsers,
		Workers:  workers,
	}, nil
}

// ask prints question and returns the trimmed answer. EOF after a partial
// line counts as an answer; EOF on an empty line is an empty answer.
func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
