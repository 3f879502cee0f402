package debug

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	enabled bool
	mu      sync.Mutex
	entries []Entry
)

// Entry records one timed step (a discovery source, a fetch phase)
type Entry struct {
	Timestamp time.Time     `json:"timestamp"`
	Name      string        `json:"name"`
	Duration  time.Duration `json:"duration"`
	Count     int           `json:"count"`
	Status    string        `json:"status"`
}

// Enable turns on debug logging
func Enable() {
	mu.Lock()
	enabled = true
	mu.Unlock()
}

// IsEnabled returns whether debug logging is enabled
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Logf prints a gray debug line
func Logf(format string, args ...interface{}) {
	if !IsEnabled() {
		return
	}
	gray := color.New(color.FgHiBlack)
	gray.Printf("    [DEBUG %s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
}

// LogStep records the outcome of a named step and prints it when enabled.
// Steps are recorded even when debug output is off so the summary is complete.
func LogStep(name string, start time.Time, count int, err error) {
	duration := time.Since(start)
	status := "OK"
	if err != nil {
		status = fmt.Sprintf("ERROR: %v", err)
	}

	mu.Lock()
	entries = append(entries, Entry{
		Timestamp: time.Now(),
		Name:      name,
		Duration:  duration,
		Count:     count,
		Status:    status,
	})
	on := enabled
	mu.Unlock()

	if !on {
		return
	}
	statusColor := color.New(color.FgGreen)
	if err != nil {
		statusColor = color.New(color.FgRed)
	}
	gray := color.New(color.FgHiBlack)
	gray.Printf("    [DEBUG %s] %-14s ", time.Now().Format("15:04:05.000"), name)
	statusColor.Printf("%s", status)
	gray.Printf(" (duration: %s, results: %d)\n", duration.Round(time.Millisecond), count)
}

// LogPhaseStart logs the start of a phase
func LogPhaseStart(phase string) time.Time {
	start := time.Now()
	if !IsEnabled() {
		return start
	}
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("    [DEBUG %s] PHASE START: %s\n", start.Format("15:04:05.000"), phase)
	return start
}

// LogPhaseEnd logs the end of a phase
func LogPhaseEnd(phase string, start time.Time) {
	if !IsEnabled() {
		return
	}
	duration := time.Since(start)
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("    [DEBUG %s] PHASE END:   %s (total: %s)\n", time.Now().Format("15:04:05.000"), phase, duration.Round(time.Millisecond))
}

// Summary prints every recorded step
func Summary() {
	mu.Lock()
	on := enabled
	snapshot := append([]Entry{}, entries...)
	mu.Unlock()
	if !on || len(snapshot) == 0 {
		return
	}

	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Println()
	cyan.Println("═══════════════════════════════════════════════════════")
	cyan.Println("                    DEBUG SUMMARY")
	cyan.Println("═══════════════════════════════════════════════════════")

	var total time.Duration
	for _, e := range snapshot {
		mark := "✓"
		if e.Status != "OK" {
			mark = "✗"
		}
		fmt.Printf("  %s %-20s %10s %6d\n", mark, e.Name, e.Duration.Round(time.Millisecond), e.Count)
		total += e.Duration
	}

	fmt.Println("───────────────────────────────────────────────────────")
	fmt.Printf("  Total step time: %s\n", total.Round(time.Millisecond))
	fmt.Printf("  Steps recorded: %d\n", len(snapshot))
	cyan.Println("═══════════════════════════════════════════════════════")
}
