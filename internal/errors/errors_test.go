package errors

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/julianstephens/habitstore/internal/storage"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      errors.New("something went wrong"),
			expected: "Error: something went wrong",
		},
		{
			name:     "storage error",
			err:      storage.Wrap("insert habit", errors.New("disk I/O error")),
			expected: "Error: insert habit: disk I/O error",
		},
		{
			name:     "wrapped not found",
			err:      fmt.Errorf("edit: %w", &storage.NotFoundError{ID: "abc"}),
			expected: `Error: no habit with id "abc"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	got := Formatf("failed to load %s", "habits.db")
	if got != "Error: failed to load habits.db" {
		t.Errorf("Formatf() = %q", got)
	}
}

func TestFatal(t *testing.T) {
	if os.Getenv("HABITSTORE_TEST_FATAL") == "1" {
		Fatal(errors.New("boom"))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal$")
	cmd.Env = append(os.Environ(), "HABITSTORE_TEST_FATAL=1")
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if !strings.Contains(string(out), "Error: boom") {
		t.Errorf("expected formatted error on stderr, got %q", out)
	}
}

func TestFatalNilDoesNotExit(t *testing.T) {
	Fatal(nil)
}
