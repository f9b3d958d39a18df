package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"docketvoice/config"
	"docketvoice/internal/application"
)

// Setup copies the example files into place, creates the working
// directories, and re-runs the checker.
type Setup struct {
	// Root is the project directory holding .env.example and
	// config.example.yaml.
	Root    string
	Dirs    []string
	Checker Checker
	Out     io.Writer
	Logger  *slog.Logger
}

var templates = map[string]string{
	".env":        ".env.example",
	"config.yaml": "config.example.yaml",
}

func (s *Setup) Install(ctx context.Context) error {
	for dst, src := range templates {
		copied, err := copyIfMissing(filepath.Join(s.Root, src), filepath.Join(s.Root, dst))
		if err != nil {
			return err
		}
		if copied {
			fmt.Fprintf(s.Out, "Created %s from %s. Fill in your API keys there.\n", dst, src)
		}
	}

	for _, dir := range s.Dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		s.Logger.Debug("directory ready", "dir", dir)
	}

	if err := config.LoadEnv(filepath.Join(s.Root, ".env")); err != nil {
		return err
	}

	results := s.Checker.Check(ctx)
	PrintResults(s.Out, results)
	if Failed(results) {
		return fmt.Errorf("requirements still missing: %s", failedNames(results))
	}
	return nil
}

func copyIfMissing(src, dst string) (bool, error) {
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", dst, err)
	}

	data, err := os.ReadFile(src)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0600); err != nil {
		return false, fmt.Errorf("writing %s: %w", dst, err)
	}
	return true, nil
}

func failedNames(results []application.CheckResult) string {
	var names []string
	for _, r := range results {
		if r.Status == application.CheckError {
			names = append(names, r.Name)
		}
	}
	return strings.Join(names, ", ")
}
