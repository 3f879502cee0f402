package runner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// PhaseProgress tracks the status of every phase and prints one tree line
// per transition. It is safe for concurrent use.
type PhaseProgress struct {
	mu       sync.RWMutex
	out      io.Writer
	statuses map[Phase]PhaseStatus
	counts   map[Phase][]count
	quiet    bool
}

// PhaseStatus represents the current state of a phase
type PhaseStatus struct {
	Status   string        // pending, running, completed, failed, skipped
	Duration time.Duration // Duration when completed
	Error    string        // Error message if failed
}

type count struct {
	name  string
	value int
}

// NewPhaseProgress creates a tracker writing to out. A quiet tracker records
// state but prints nothing.
func NewPhaseProgress(out io.Writer, quiet bool) *PhaseProgress {
	pp := &PhaseProgress{
		out:      out,
		statuses: make(map[Phase]PhaseStatus),
		counts:   make(map[Phase][]count),
		quiet:    quiet,
	}
	for _, phase := range AllPhases() {
		pp.statuses[phase] = PhaseStatus{Status: "pending"}
	}
	return pp
}

// MarkRunning marks a phase as running
func (pp *PhaseProgress) MarkRunning(phase Phase) {
	pp.mu.Lock()
	pp.statuses[phase] = PhaseStatus{Status: "running"}
	pp.mu.Unlock()
	pp.printPhaseStatus(phase, "running", 0, nil)
}

// MarkCompleted marks a phase as completed with duration
func (pp *PhaseProgress) MarkCompleted(phase Phase, duration time.Duration) {
	pp.mu.Lock()
	pp.statuses[phase] = PhaseStatus{Status: "completed", Duration: duration}
	counts := append([]count(nil), pp.counts[phase]...)
	pp.mu.Unlock()
	pp.printPhaseStatus(phase, "completed", duration, counts)
}

// MarkFailed marks a phase as failed
func (pp *PhaseProgress) MarkFailed(phase Phase, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	pp.mu.Lock()
	pp.statuses[phase] = PhaseStatus{Status: "failed", Error: errMsg}
	pp.mu.Unlock()
	pp.printPhaseStatus(phase, "failed", 0, nil)
}

// MarkSkipped marks a phase as skipped
func (pp *PhaseProgress) MarkSkipped(phase Phase) {
	pp.mu.Lock()
	pp.statuses[phase] = PhaseStatus{Status: "skipped"}
	pp.mu.Unlock()
	pp.printPhaseStatus(phase, "skipped", 0, nil)
}

// SetCount records a metric shown when the phase completes. Metrics keep
// the order they were first set in.
func (pp *PhaseProgress) SetCount(phase Phase, metric string, value int) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	for i, c := range pp.counts[phase] {
		if c.name == metric {
			pp.counts[phase][i].value = value
			return
		}
	}
	pp.counts[phase] = append(pp.counts[phase], count{metric, value})
}

// Durations returns completed phase durations keyed by phase. Skipped phases
// are reported as "skipped".
func (pp *PhaseProgress) Durations() map[string]string {
	pp.mu.RLock()
	defer pp.mu.RUnlock()
	out := make(map[string]string)
	for p, s := range pp.statuses {
		switch s.Status {
		case "completed":
			out[string(p)] = formatDuration(s.Duration)
		case "skipped":
			out[string(p)] = "skipped"
		}
	}
	return out
}

func (pp *PhaseProgress) printPhaseStatus(phase Phase, status string, duration time.Duration, counts []count) {
	if pp.quiet {
		return
	}
	name := fmt.Sprintf("[%d] %s", PhaseNumber[phase], PhaseName[phase])
	icon := getStatusIcon(status)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)
	dim := color.New(color.Faint)

	switch status {
	case "running":
		fmt.Fprintf(pp.out, "%s%s %s\n", cyan.Sprint("├── "), cyan.Sprintf("%s %-28s", icon, name), dim.Sprint("running..."))
	case "completed":
		line := green.Sprint("├── ") + green.Sprintf("%s %-28s", icon, name)
		if duration > 0 {
			line += " " + dim.Sprintf("%-8s", formatDuration(duration))
		}
		fmt.Fprintf(pp.out, "%s%s\n", line, formatCounts(counts))
	case "failed":
		fmt.Fprintf(pp.out, "%s%s %s\n", red.Sprint("├── "), red.Sprintf("%s %-28s", icon, name), red.Sprint("FAILED"))
	case "skipped":
		fmt.Fprintf(pp.out, "%s%s %s\n", yellow.Sprint("├── "), dim.Sprintf("%s %-28s", icon, name), dim.Sprint("skipped"))
	}
}

func formatCounts(counts []count) string {
	if len(counts) == 0 {
		return ""
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s: %d", c.name, c.value)
	}
	return " " + color.New(color.FgWhite).Sprint(strings.Join(parts, " │ "))
}

// PrintSummary prints the closing box
func (pp *PhaseProgress) PrintSummary(totalDuration time.Duration, outputDir string) {
	if pp.quiet {
		return
	}
	pp.mu.RLock()
	completed, failed, skipped := 0, 0, 0
	for _, status := range pp.statuses {
		switch status.Status {
		case "completed":
			completed++
		case "failed":
			failed++
		case "skipped":
			skipped++
		}
	}
	pp.mu.RUnlock()

	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite, color.Bold)

	status := green.Sprintf("✓ %d completed", completed)
	if failed > 0 {
		status += " │ " + red.Sprintf("✗ %d failed", failed)
	}
	if skipped > 0 {
		status += " │ " + yellow.Sprintf("⊘ %d skipped", skipped)
	}

	fmt.Fprintln(pp.out)
	fmt.Fprintln(pp.out, cyan.Sprint("╔══════════════════════════════════════════════════╗"))
	fmt.Fprintln(pp.out, cyan.Sprint("║")+white.Sprint("                    RUN COMPLETE                  ")+cyan.Sprint("║"))
	fmt.Fprintln(pp.out, cyan.Sprint("╚══════════════════════════════════════════════════╝"))
	fmt.Fprintf(pp.out, "  Status:  %s\n", status)
	fmt.Fprintf(pp.out, "  Time:    %s\n", white.Sprint(formatDuration(totalDuration)))
	if outputDir != "" {
		fmt.Fprintf(pp.out, "  Results: %s\n", outputDir)
	}
	fmt.Fprintln(pp.out)
}

// newBar returns a progress bar over n tasks, or nil when progress is off
func (pp *PhaseProgress) newBar(n int, description string, disabled bool) *progressbar.ProgressBar {
	if pp.quiet || disabled || n == 0 {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(pp.out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("    "+description),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func getStatusIcon(status string) string {
	switch status {
	case "running":
		return "◐"
	case "completed":
		return "✓"
	case "failed":
		return "✗"
	case "skipped":
		return "⊘"
	default:
		return "○"
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
