package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Behavior describes how the fake instrumentation tool responds to one target.
type Behavior struct {
	Stdout   string
	Stderr   string
	ExitCode int

	// Sleep delays the response, in seconds (fractions allowed where the
	// host sleep(1) supports them).
	Sleep string
}

// OKRecord is a well-formed ten-field tool record.
const OKRecord = "10,1,30,28,480,16,1,0,0.25,0.75\n"

// FakeTool writes a /bin/sh script that emulates the instrumentation tool.
//
// The script dispatches on the base name of its single argument; unknown
// targets exit 99. Every invocation appends its argument to the file
// returned by CallLog.
func FakeTool(t *testing.T, behaviors map[string]Behavior) string {
	t.Helper()
	dir := t.TempDir()
	log := filepath.Join(dir, "calls.log")

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "printf '%%s\\n' \"$1\" >> %s\n", shellQuote(log))
	b.WriteString("case \"$(basename \"$1\")\" in\n")
	for name, beh := range behaviors {
		fmt.Fprintf(&b, "%s)\n", shellQuote(name))
		if beh.Sleep != "" {
			fmt.Fprintf(&b, "  sleep %s\n", beh.Sleep)
		}
		if beh.Stdout != "" {
			fmt.Fprintf(&b, "  printf '%%s' %s\n", shellQuote(beh.Stdout))
		}
		if beh.Stderr != "" {
			fmt.Fprintf(&b, "  printf '%%s' %s >&2\n", shellQuote(beh.Stderr))
		}
		fmt.Fprintf(&b, "  exit %d\n  ;;\n", beh.ExitCode)
	}
	b.WriteString("*)\n  echo \"fake tool: unknown target $1\" >&2\n  exit 99\n  ;;\nesac\n")

	path := filepath.Join(dir, "alloc_inspector")
	if err := os.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		t.Fatalf("write fake tool: %v", err)
	}
	return path
}

// CallLog returns the arguments the fake tool at toolPath was invoked with.
func CallLog(t *testing.T, toolPath string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(filepath.Dir(toolPath), "calls.log"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read call log: %v", err)
	}
	var calls []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			calls = append(calls, line)
		}
	}
	return calls
}

// Target creates a dummy executable of the given size and returns its path.
func Target(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create target dir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o755); err != nil {
		t.Fatalf("write target: %v", err)
	}
	return path
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
