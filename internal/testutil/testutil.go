// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

// WithTempHome points HOME at a fresh temporary directory.
func WithTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// ChdirTemp runs the rest of the test inside a fresh temporary directory.
func ChdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// CaptureStdout returns everything fn writes to os.Stdout.
func CaptureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	out := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(r)
		out <- string(b)
	}()

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()
	fn()
	_ = w.Close()
	s := <-out
	_ = r.Close()
	return s
}

// WriteScript writes an executable /bin/sh script. Tests using it skip on Windows.
func WriteScript(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
}

// WriteExecutable writes a script that exits 0.
func WriteExecutable(t *testing.T, path string) {
	t.Helper()
	WriteScript(t, path, "exit 0")
}

// FakeFFmpeg writes an ffmpeg stand-in into dir. It records its arguments in
// args.txt beside itself and writes "merged" to its final argument.
func FakeFFmpeg(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "ffmpeg")
	WriteScript(t, path, `printf '%s\n' "$@" > "$(dirname "$0")/args.txt"
for last in "$@"; do :; done
printf 'merged' > "$last"`)
	return path
}

// FailingFFmpeg writes an ffmpeg stand-in into dir that prints msg to stderr
// and exits 1.
func FailingFFmpeg(t *testing.T, dir, msg string) string {
	t.Helper()
	path := filepath.Join(dir, "ffmpeg")
	WriteScript(t, path, "echo '"+msg+"' >&2\nexit 1")
	return path
}
