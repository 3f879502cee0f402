package tools

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Spinner provides a loading animation while discovery sources run
type Spinner struct {
	out      io.Writer
	frames   []string
	interval time.Duration
	mu       sync.Mutex
	running  bool
	done     chan struct{}
	message  string
}

// NewSpinner creates a new spinner writing to stdout
func NewSpinner(message string) *Spinner {
	return &Spinner{
		out:      os.Stdout,
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 80 * time.Millisecond,
		message:  message,
		done:     make(chan struct{}),
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		cyan := color.New(color.FgCyan)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for i := 0; ; i = (i + 1) % len(s.frames) {
			s.mu.Lock()
			select {
			case <-done:
				s.mu.Unlock()
				return
			default:
			}
			fmt.Fprintf(s.out, "\r    %s %s", cyan.Sprint(s.frames[i]), s.message)
			s.mu.Unlock()
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Update changes the spinner message
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop stops the spinner and clears the line
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.done)
	fmt.Fprint(s.out, "\r\033[K")
}

// Success stops the spinner and shows a success message
func (s *Spinner) Success(message string) {
	s.Stop()
	green := color.New(color.FgGreen)
	s.mu.Lock()
	fmt.Fprintf(s.out, "    %s %s\n", green.Sprint("✓"), message)
	s.mu.Unlock()
}

// Fail stops the spinner and shows a failure message
func (s *Spinner) Fail(message string) {
	s.Stop()
	yellow := color.New(color.FgYellow)
	s.mu.Lock()
	fmt.Fprintf(s.out, "    %s %s\n", yellow.Sprint("✗"), message)
	s.mu.Unlock()
}

// SourceStatus prints one line per discovery source in a fixed order
type SourceStatus struct {
	mu     sync.Mutex
	order  []string
	counts map[string]int
	errs   map[string]error
}

// NewSourceStatus creates a tracker for the named sources
func NewSourceStatus(names []string) *SourceStatus {
	return &SourceStatus{
		order:  names,
		counts: make(map[string]int),
		errs:   make(map[string]error),
	}
}

// Set records the outcome of one source
func (ss *SourceStatus) Set(name string, count int, err error) {
	ss.mu.Lock()
	ss.counts[name] = count
	if err != nil {
		ss.errs[name] = err
	}
	ss.mu.Unlock()
}

// Print writes the per-source summary
func (ss *SourceStatus) Print(w io.Writer) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	ss.mu.Lock()
	defer ss.mu.Unlock()

	for _, name := range ss.order {
		if err, failed := ss.errs[name]; failed {
			fmt.Fprintf(w, "    %s %-14s %s\n", yellow.Sprint("✗"), name, gray.Sprint(err))
			continue
		}
		fmt.Fprintf(w, "    %s %-14s %d hosts\n", green.Sprint("✓"), name, ss.counts[name])
	}
}
