package cmd

import (
	"os"
	"strings"
	"testing"
)

// TestNoStderrInDataCommands verifies that the data commands report through
// slog or the command's writers rather than writing to os.Stderr directly.
func TestNoStderrInDataCommands(t *testing.T) {
	files := []string{
		"compress.go",
		"decompress.go",
		"inspect.go",
		"bench.go",
		"status.go",
	}

	for _, f := range files {
		t.Run(f, func(t *testing.T) {
			data, err := os.ReadFile(f)
			if err != nil {
				t.Fatalf("failed to read %s: %v", f, err)
			}
			content := string(data)

			// Check for fmt.Fprintf(os.Stderr patterns
			if strings.Contains(content, "fmt.Fprintf(os.Stderr") {
				t.Errorf("%s contains fmt.Fprintf(os.Stderr, ...); use slog instead", f)
			}
			if strings.Contains(content, "fmt.Fprintln(os.Stderr") {
				t.Errorf("%s contains fmt.Fprintln(os.Stderr, ...); use slog instead", f)
			}
		})
	}
}

// TestSetupLoggerReturnsLogger verifies setupLogger returns a non-nil logger.
func TestSetupLoggerReturnsLogger(t *testing.T) {
	logger := setupLogger()
	if logger == nil {
		t.Fatal("setupLogger() returned nil")
	}
}

// TestSetupLoggerVerbose verifies verbose flag affects logger level.
func TestSetupLoggerVerbose(t *testing.T) {
	oldVerbose := verbose
	defer func() { verbose = oldVerbose }()

	verbose = false
	logger := setupLogger()
	if logger == nil {
		t.Fatal("setupLogger() returned nil with verbose=false")
	}

	verbose = true
	loggerV := setupLogger()
	if loggerV == nil {
		t.Fatal("setupLogger() returned nil with verbose=true")
	}
}
