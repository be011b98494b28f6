package ui

import (
	"time"

	"github.com/briandowns/spinner"
)

// ProgressReporter reports long-running progress to the terminal.
type ProgressReporter interface {
	Update(message string)
	Stop()
}

// SpinnerProgress implements ProgressReporter using briandowns/spinner.
type SpinnerProgress struct {
	spinner *spinner.Spinner
}

func NewSpinnerProgress() *SpinnerProgress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Prefix = "  "
	s.Color("cyan", "bold")

	return &SpinnerProgress{spinner: s}
}

// Start starts the spinner with an initial message.
func (sp *SpinnerProgress) Start(message string) {
	sp.spinner.Suffix = "  " + message
	sp.spinner.Start()
}

// Update updates the spinner message.
func (sp *SpinnerProgress) Update(message string) {
	sp.spinner.Suffix = "  " + message
}

// Stop stops the spinner.
func (sp *SpinnerProgress) Stop() {
	if sp.spinner.Active() {
		sp.spinner.Stop()
	}
}

// NoopProgress discards all updates, for --json and piped output.
type NoopProgress struct{}

func (NoopProgress) Update(string) {}
func (NoopProgress) Stop()         {}
