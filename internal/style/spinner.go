package style

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

type Spinner interface {
	SetSuffix(suffix string)
	SetFinalMSG(finalMSG string)
	Start()
	Stop()
}

// TestSpinner is a spinner implementation for testing that outputs each
// spinner update on a new line instead of clearing and redrawing
type TestSpinner struct {
	mu       sync.Mutex
	Suffix   string
	FinalMSG string
	color    func(a ...interface{}) string
	Writer   io.Writer
	active   bool
}

// NewTestSpinner returns a spinner that logs its transitions to w.
func NewTestSpinner(w io.Writer) *TestSpinner {
	return &TestSpinner{
		color:  color.New(color.FgGreen).SprintFunc(),
		Writer: w,
	}
}

func (s *TestSpinner) SetSuffix(suffix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.Writer, "[SET SUFFIX] %s\n", suffix)
	s.Suffix = suffix
}

// Start will start the indicator.
func (s *TestSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	fmt.Fprintf(s.Writer, "[SPINNER START]\n")
}

// Stop stops the indicator.
func (s *TestSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	fmt.Fprintf(s.Writer, "[SPINNER STOP]\n")
	if s.FinalMSG != "" {
		fmt.Fprintf(s.Writer, "[FINAL MSG] %s\n", s.color(s.FinalMSG))
	}
}

func (s *TestSpinner) SetFinalMSG(finalMSG string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FinalMSG = finalMSG
}

type TerminalSpinner struct {
	spinner *spinner.Spinner
}

func NewTerminalSpinner(cs []string, d time.Duration, options ...spinner.Option) *TerminalSpinner {
	return &TerminalSpinner{
		spinner: spinner.New(cs, d, options...),
	}
}

func (s *TerminalSpinner) SetSuffix(suffix string) {
	s.spinner.Suffix = suffix
}

func (s *TerminalSpinner) SetFinalMSG(finalMSG string) {
	s.spinner.FinalMSG = finalMSG
}

func (s *TerminalSpinner) Start() {
	s.spinner.Start()
}

func (s *TerminalSpinner) Stop() {
	s.spinner.Stop()
}

// NewSpinner returns a terminal spinner writing to w, or a line-oriented
// test spinner when CARBONWISE_TEST is set.
func NewSpinner(w io.Writer) Spinner {
	if os.Getenv("CARBONWISE_TEST") == "true" {
		return NewTestSpinner(w)
	}

	return NewTerminalSpinner(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w), spinner.WithColor("green"))
}
