// Package launcher is the interactive entry point: a preflight check, a
// setup step when the check fails, and the numbered menu.
package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"docketvoice/internal/application"
)

const menuText = `
========================================
  DocketVoice - bankruptcy intake
========================================
  1. Voice system test
  2. Start the assistant
  3. Exit
========================================
Choose an option (1-3): `

// ExitError carries the process exit status out of the launcher.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Checker verifies that the assistant can start.
type Checker interface {
	Check(ctx context.Context) []application.CheckResult
}

// Installer prepares a fresh checkout so the Checker passes.
type Installer interface {
	Install(ctx context.Context) error
}

// Entry is one runnable program behind the menu.
type Entry func(ctx context.Context) error

type Launcher struct {
	Checker   Checker
	Installer Installer
	VoiceTest Entry
	MainApp   Entry
	In        io.Reader
	Out       io.Writer
	Logger    *slog.Logger
}

func (l *Launcher) Run(ctx context.Context) error {
	if results := l.Checker.Check(ctx); Failed(results) {
		PrintResults(l.Out, results)
		fmt.Fprintln(l.Out, "Some requirements are missing. Running setup...")

		if err := l.Installer.Install(ctx); err != nil {
			fmt.Fprintf(l.Out, "Setup failed: %v\n", err)
			return &ExitError{Code: 1, Err: fmt.Errorf("setup: %w", err)}
		}
		fmt.Fprintln(l.Out, "Setup complete.")
	}

	fmt.Fprint(l.Out, menuText)
	line, err := bufio.NewReader(l.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading choice: %w", err)
	}

	switch choice(line) {
	case '1':
		return l.VoiceTest(ctx)
	case '2':
		return l.MainApp(ctx)
	case '3':
		fmt.Fprintln(l.Out, "Goodbye.")
		return nil
	default:
		l.Logger.Warn("unrecognized menu choice, starting the assistant", "choice", strings.TrimSpace(line))
		return l.MainApp(ctx)
	}
}

func choice(line string) rune {
	for _, r := range line {
		if r != ' ' && r != '\t' && r != '\r' && r != '\n' {
			return r
		}
	}
	return 0
}

// Failed reports whether any result is an error. Warnings do not fail.
func Failed(results []application.CheckResult) bool {
	for _, r := range results {
		if r.Status == application.CheckError {
			return true
		}
	}
	return false
}

func PrintResults(w io.Writer, results []application.CheckResult) {
	for _, r := range results {
		fmt.Fprintf(w, "  [%-5s] %s: %s\n", r.Status, r.Name, r.Message)
	}
}
