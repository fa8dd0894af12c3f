// Package report turns `go test -json` output into a run summary that can
// be saved as JSON and printed to the console.
package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// Status is a test's final state.
type Status string

const (
	Passed  Status = "PASSED"
	Failed  Status = "FAILED"
	Skipped Status = "SKIPPED"
)

// maxOutputLines caps how much output is kept for a failed test.
const maxOutputLines = 50

// TestResult is one finished test.
type TestResult struct {
	Package string   `json:"package"`
	Name    string   `json:"name"`
	Status  Status   `json:"status"`
	Elapsed float64  `json:"elapsed_seconds"`
	Output  []string `json:"output,omitempty"`

	// PackageLevel marks a package that failed without any failing test,
	// such as a build failure or a panic in TestMain.
	PackageLevel bool `json:"package_level,omitempty"`
}

// Summary is the run report.
type Summary struct {
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total_tests"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	// PackageFailures counts packages that failed outside any test.
	PackageFailures int          `json:"package_failures"`
	Tests           []TestResult `json:"tests"`
}

// event mirrors the records written by `go test -json`.
type event struct {
	Time    time.Time
	Action  string
	Package string
	Test    string
	Elapsed float64
	Output  string
}

type testKey struct {
	pkg, name string
}

// Parse reads `go test -json` output. Lines that are not JSON events are
// ignored. A package that fails without a failing test is reported as a
// PackageLevel result so the run cannot look green.
func Parse(r io.Reader) ([]TestResult, error) {
	outputs := make(map[testKey][]string)
	failedTests := make(map[string]int)
	var results []TestResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		key := testKey{ev.Package, ev.Test}
		if ev.Test == "" {
			switch ev.Action {
			case "output":
				outputs[key] = append(outputs[key], ev.Output)
			case "fail":
				if failedTests[ev.Package] == 0 {
					results = append(results, TestResult{
						Package:      ev.Package,
						Status:       Failed,
						Elapsed:      ev.Elapsed,
						Output:       tail(outputs[key], maxOutputLines),
						PackageLevel: true,
					})
				}
				delete(outputs, key)
			case "pass", "skip":
				delete(outputs, key)
			}
			continue
		}

		var status Status
		switch ev.Action {
		case "output":
			outputs[key] = append(outputs[key], ev.Output)
			continue
		case "pass":
			status = Passed
		case "fail":
			status = Failed
		case "skip":
			status = Skipped
		default:
			continue
		}

		res := TestResult{Package: ev.Package, Name: ev.Test, Status: status, Elapsed: ev.Elapsed}
		if status == Failed {
			res.Output = tail(outputs[key], maxOutputLines)
			failedTests[ev.Package]++
		}
		delete(outputs, key)
		results = append(results, res)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read test events: %w", err)
	}
	return results, nil
}

func tail(lines []string, n int) []string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = string(bytes.TrimRight([]byte(l), "\n"))
	}
	return out
}

// NewSummary counts results. Tests are ordered by package then name.
func NewSummary(results []TestResult, now time.Time) Summary {
	s := Summary{Timestamp: now, Tests: append([]TestResult(nil), results...)}
	sort.SliceStable(s.Tests, func(i, j int) bool {
		if s.Tests[i].Package != s.Tests[j].Package {
			return s.Tests[i].Package < s.Tests[j].Package
		}
		return s.Tests[i].Name < s.Tests[j].Name
	})
	for _, r := range s.Tests {
		if r.PackageLevel {
			s.PackageFailures++
			continue
		}
		s.Total++
		switch r.Status {
		case Passed:
			s.Passed++
		case Failed:
			s.Failed++
		case Skipped:
			s.Skipped++
		}
	}
	return s
}

// PassRate is the percentage of tests that passed, 0 for an empty run.
func (s Summary) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total) * 100
}

// OK reports whether nothing failed, including whole packages.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.PackageFailures == 0
}

// Save writes the summary as indented JSON.
func (s Summary) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Load reads a summary written by Save.
func Load(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("read report: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("decode report: %w", err)
	}
	return s, nil
}
