package mux

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagar/hlsgrab/internal/model"
	"github.com/jmagar/hlsgrab/internal/testutil"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script ffmpeg stand-in requires a POSIX shell")
	}
}

func segmentsIn(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(paths[i], []byte(n), 0644))
	}
	return paths
}

func TestMerge_Success(t *testing.T) {
	skipOnWindows(t)
	binDir := t.TempDir()
	segDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "course", "1-intro.mkv")

	f := &FFmpeg{Binary: testutil.FakeFFmpeg(t, binDir)}
	segs := segmentsIn(t, segDir, "00000.ts", "00001.ts")

	err := f.Merge(context.Background(), Request{
		Dir:       segDir,
		Segments:  segs,
		Durations: []float64{4, 3},
		Dest:      out,
		Container: "mkv",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "merged", string(data))
	assert.NoFileExists(t, out+".part")

	args, err := os.ReadFile(filepath.Join(binDir, "args.txt"))
	require.NoError(t, err)
	argList := strings.Split(strings.TrimSpace(string(args)), "\n")
	assert.Contains(t, argList, filepath.Join(segDir, model.LocalPlaylist))
	assert.Contains(t, argList, "matroska")
	assert.Equal(t, out+".part", argList[len(argList)-1])

	playlist, err := os.ReadFile(filepath.Join(segDir, model.LocalPlaylist))
	require.NoError(t, err)
	text := string(playlist)
	assert.Less(t, strings.Index(text, "00000.ts"), strings.Index(text, "00001.ts"))
	assert.NotContains(t, text, segDir, "segments inside Dir are listed by name")
}

func TestMerge_FailureCarriesStderr(t *testing.T) {
	skipOnWindows(t)
	segDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "x.mp4")
	f := &FFmpeg{Binary: testutil.FailingFFmpeg(t, t.TempDir(), "Invalid data found when processing input")}

	err := f.Merge(context.Background(), Request{
		Dir:       segDir,
		Segments:  segmentsIn(t, segDir, "00000.ts"),
		Dest:      out,
		Container: "mp4",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMergeFailed))

	var me *model.MergeError
	require.True(t, errors.As(err, &me))
	assert.Contains(t, me.Output, "Invalid data found")
	assert.NoFileExists(t, out)
	assert.NoFileExists(t, out+".part")
}

func TestMerge_RejectsUnknownContainerAndEmptyInput(t *testing.T) {
	f := &FFmpeg{Binary: "ffmpeg"}
	err := f.Merge(context.Background(), Request{Dir: t.TempDir(), Segments: []string{"a.ts"}, Dest: "x.avi", Container: "avi"})
	assert.ErrorIs(t, err, model.ErrMergeFailed)

	err = f.Merge(context.Background(), Request{Dir: t.TempDir(), Dest: "x.mp4", Container: "mp4"})
	assert.ErrorIs(t, err, model.ErrEmptyPlaylist)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		container string
		want      string
		wantErr   bool
	}{
		{"mp4", "mp4", false},
		{"mkv", "matroska", false},
		{"ts", "mpegts", false},
		{"webm", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.container)
		if tt.wantErr {
			assert.Error(t, err, tt.container)
		} else {
			assert.NoError(t, err, tt.container)
		}
		assert.Equal(t, tt.want, got, tt.container)
	}
}
