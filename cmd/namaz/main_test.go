package main

import (
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildBinary compiles namaz to a temp directory.
func buildBinary(t *testing.T, ldflags string) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "namaz")

	args := []string{"build"}
	if ldflags != "" {
		args = append(args, "-ldflags", ldflags)
	}
	args = append(args, "-o", binPath, ".")

	if out, err := exec.Command("go", args...).CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	return binPath
}

func TestVersionFlag(t *testing.T) {
	binPath := buildBinary(t, "-X main.version=v1.2.3-test")

	out, err := exec.Command(binPath, "--version").Output()
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if got, want := strings.TrimSpace(string(out)), "namaz version v1.2.3-test"; got != want {
		t.Errorf("--version = %q, want %q", got, want)
	}
}

func TestUnknownCommandExitsNonZero(t *testing.T) {
	binPath := buildBinary(t, "")

	out, err := exec.Command(binPath, "pray-for-me").CombinedOutput()
	var exitErr *exec.ExitError
	if err == nil || !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if !strings.HasPrefix(string(out), "error: ") {
		t.Errorf("stderr = %q, want error: prefix", out)
	}
}
