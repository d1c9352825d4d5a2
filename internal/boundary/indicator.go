package boundary

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Indicator is shown while the global state is not Ready.
type Indicator interface {
	Start()
	Stop()
	// Update replaces the message next to the indicator.
	Update(message string)
}

// spinnerIndicator is the terminal Indicator. The spinner library stays
// silent when out is not a terminal.
type spinnerIndicator struct {
	s *spinner.Spinner
}

// NewSpinner creates an Indicator writing to out.
func NewSpinner(out io.Writer) Indicator {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " Starting..."
	return &spinnerIndicator{s: s}
}

func (i *spinnerIndicator) Start() {
	i.s.Start()
}

func (i *spinnerIndicator) Stop() {
	i.s.Stop()
}

func (i *spinnerIndicator) Update(message string) {
	i.s.Lock()
	i.s.Suffix = " " + message
	i.s.Unlock()
}

// noopIndicator is used when no terminal is attached.
type noopIndicator struct{}

func (noopIndicator) Start()        {}
func (noopIndicator) Stop()         {}
func (noopIndicator) Update(string) {}
