package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if result := colorize(colorGreen, "hello"); strings.Contains(result, "\033") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}

	noColor = false
	if result := colorize(colorGreen, "hello"); !strings.Contains(result, "\033") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestStatusLineAlignment(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	short := statusLine("Failed", "0")
	long := statusLine("Total chars", "1234")

	if short != "  Failed:      0" {
		t.Errorf("statusLine short label = %q", short)
	}
	if long != "  Total chars: 1234" {
		t.Errorf("statusLine long label = %q", long)
	}
	if strings.Index(short, "0") != strings.Index(long, "1234") {
		t.Errorf("value columns not aligned: %q vs %q", short, long)
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	path := pidFilePath(t.TempDir())

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile: %v", err)
	}
	if pid <= 0 {
		t.Errorf("pid = %d, want positive", pid)
	}

	removePIDFile(path)
	if _, err := readPIDFile(path); err == nil {
		t.Error("expected error reading removed PID file")
	}
}

func TestPIDFilePath(t *testing.T) {
	got := pidFilePath("/data")
	if got != filepath.Join("/data", "numbase.pid") {
		t.Errorf("pidFilePath = %q", got)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	want := []string{"serve", "stop", "status", "ingest", "reindex", "search", "calc", "stats", "config"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}
