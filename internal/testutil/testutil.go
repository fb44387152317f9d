// Package testutil provides small fixtures shared by package tests.
//
// Typical usage:
//
//	func TestMyCommand(t *testing.T) {
//	    path := testutil.WriteFile(t, "metadata.csv", "LJ001|Hello.\n")
//	    tok := newTokenizer(testutil.DiscardLogger())
//	    ...
//	}
package testutil

import (
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
)

// DiscardLogger returns a logger that drops every record, keeping test
// output free of not-found warnings.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path. The directory is removed when the test ends.
func WriteFile(tb testing.TB, name, content string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}

	return path
}

// FreeAddr returns a loopback address with a port that was free at the time
// of the call.
func FreeAddr(tb testing.TB) string {
	tb.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("listen: %v", err)
	}

	addr := ln.Addr().String()
	_ = ln.Close()

	return addr
}
