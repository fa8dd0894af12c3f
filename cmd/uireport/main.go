// Command uireport summarises a UI test run.
//
// Usage:
//
//	go test -json ./tests/ui/... | go run ./cmd/uireport -o test_report.json
//	go run ./cmd/uireport results.jsonl
//
// It prints the failures and a summary table, optionally saves the summary
// as JSON, and exits 1 if any test failed.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kuitang/quiz-uitest/internal/report"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var outPath string

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&outPath, "o", "", "write the summary as JSON to this file")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "at most one input file may be given")
		fs.Usage()
		return 2
	}

	in := stdin
	if fs.NArg() == 1 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(stderr, "Invalid input: %s\n", err)
			return 2
		}
		defer f.Close()
		in = f
	}

	results, err := report.Parse(in)
	if err != nil {
		fmt.Fprintf(stderr, "Could not read test events: %s\n", err)
		return 2
	}

	summary := report.NewSummary(results, time.Now())
	summary.Print(stdout)

	if outPath != "" {
		if err := summary.Save(outPath); err != nil {
			fmt.Fprintf(stderr, "Could not save report: %s\n", err)
			return 2
		}
		fmt.Fprintf(stdout, "Report saved: %s\n", outPath)
	}

	if !summary.OK() {
		return 1
	}
	return 0
}
