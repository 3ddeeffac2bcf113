package rclone

import (
	"bufio"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/jmagar/hlsgrab/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatsLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want model.UploadProgress
		ok   bool
	}{
		{
			name: "one-line stats",
			line: "Transferred:    12.500 MiB / 250 MiB, 5%, 4.100 MiB/s, ETA 58s",
			want: model.UploadProgress{Percent: 5, Speed: "4.100 MiB/s", Uploaded: "12.500 MiB", Total: "250 MiB"},
			ok:   true,
		},
		{
			name: "log prefixed and coloured",
			line: "2026/10/19 09:12:44 NOTICE: \x1b[32mTransferred: 250 MiB / 250 MiB, 100%, 31 MiB/s, ETA 0s\x1b[0m",
			want: model.UploadProgress{Percent: 100, Speed: "31 MiB/s", Uploaded: "250 MiB", Total: "250 MiB"},
			ok:   true,
		},
		{
			name: "no spaces",
			line: "Transferred: 1.5GiB/3GiB,50%,80MiB/s,ETA 19s",
			want: model.UploadProgress{Percent: 50, Speed: "80MiB/s", Uploaded: "1.5GiB", Total: "3GiB"},
			ok:   true,
		},
		{
			name: "percent derived from sizes",
			line: "Transferred: 30 MiB / 120 MiB, 6 MiB/s",
			want: model.UploadProgress{Percent: 25, Speed: "6 MiB/s", Uploaded: "30 MiB", Total: "120 MiB"},
			ok:   true,
		},
		{
			name: "no speed yet",
			line: "Transferred: 0 B / 0 B, -, ETA -",
			want: model.UploadProgress{Percent: 100, Speed: "0 B", Uploaded: "0 B", Total: "0 B"},
			ok:   true,
		},
		{name: "checks line", line: "Checks: 1 / 1, 100%"},
		{name: "empty", line: "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStatsLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestScanLinesOrCR(t *testing.T) {
	sc := bufio.NewScanner(strings.NewReader("a\rb\r\nc\n d "))
	sc.Split(scanLinesOrCR)
	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestCopyAndCheckArgs(t *testing.T) {
	args, dest := copyArgs("/out/3-closures.mp4", "gdrive:courses/Go", 8)
	assert.Equal(t, "gdrive:courses/Go/3-closures.mp4", dest)
	assert.Equal(t, []string{
		"copyto", "/out/3-closures.mp4", "gdrive:courses/Go/3-closures.mp4",
		"--transfers=8", "--progress", "--stats=1s", "--stats-one-line",
	}, args)

	assert.Equal(t, []string{
		"check", "--one-way", "--include", "3-closures.mp4", "/out", "gdrive:courses/Go",
	}, checkArgs("/out/3-closures.mp4", dest))
}

func TestRunWithStats(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	var updates []model.UploadProgress
	cmd := exec.Command("sh", "-c",
		`printf 'Transferred: 1 MiB / 4 MiB, 25%%, 1 MiB/s\rTransferred: 4 MiB / 4 MiB, 100%%, 2 MiB/s\n'`)
	require.NoError(t, runWithStats(cmd, func(p model.UploadProgress) { updates = append(updates, p) }))
	require.Len(t, updates, 3)
	assert.Equal(t, "...", updates[0].Total)
	assert.Equal(t, 25, updates[1].Percent)
	assert.Equal(t, 100, updates[2].Percent)
}

func TestRunWithStats_FailureCarriesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	cmd := exec.Command("sh", "-c", `echo "Failed to copy: directory not found" >&2; exit 1`)
	err := runWithStats(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory not found")
}
