package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	skipColor = color.New(color.FgYellow)
	headColor = color.New(color.Bold)
)

// Print writes the failures, then the summary table.
func (s Summary) Print(w io.Writer) {
	rule := strings.Repeat("=", 50)

	for _, t := range s.Tests {
		if t.Status != Failed {
			continue
		}
		name := t.Name
		if t.PackageLevel {
			name = t.Package
		}
		failColor.Fprintf(w, "[%s] FAILED (%.2fs)\n", name, t.Elapsed)
		for _, line := range t.Output {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	headColor.Fprintln(w, "TEST EXECUTION SUMMARY")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Timestamp: %s\n", s.Timestamp.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(w, "Total Tests: %d\n", s.Total)
	passColor.Fprintf(w, "Passed: %d ✓\n", s.Passed)
	failColor.Fprintf(w, "Failed: %d ✗\n", s.Failed)
	skipColor.Fprintf(w, "Skipped: %d ⊘\n", s.Skipped)
	if s.PackageFailures > 0 {
		failColor.Fprintf(w, "Package Failures: %d ✗\n", s.PackageFailures)
	}
	fmt.Fprintf(w, "Pass Rate: %.1f%%\n", s.PassRate())
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}
