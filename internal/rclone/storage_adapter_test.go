package rclone

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/jmagar/hlsgrab/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingAdapter records every rclone invocation instead of running it.
func recordingAdapter(t *testing.T, calls *[][]string) *StorageAdapter {
	t.Helper()
	a := NewStorageAdapter()
	a.validatePath = func(string) error { return nil }
	a.command = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*calls = append(*calls, append([]string{name}, args...))
		return exec.CommandContext(ctx, name, args...)
	}
	a.runStats = func(*exec.Cmd, func(model.UploadProgress)) error { return nil }
	a.run = func(*exec.Cmd) error { return nil }
	a.remove = func(string) error { return nil }
	return a
}

func TestStorageAdapter_UploadVerifiesThenDeletes(t *testing.T) {
	var calls [][]string
	a := recordingAdapter(t, &calls)
	a.runStats = func(_ *exec.Cmd, onProgress func(model.UploadProgress)) error {
		require.NotNil(t, onProgress)
		onProgress(model.UploadProgress{Percent: 40, Speed: "3 MiB/s", Uploaded: "40 MiB", Total: "100 MiB"})
		return nil
	}
	var removed, hookPath string
	a.remove = func(p string) error { removed = p; return nil }

	var seen []model.UploadProgress
	completed := false
	err := a.Upload(context.Background(),
		&model.Config{RcloneEnabled: true, DeleteAfterUpload: true},
		model.UploadRequest{LocalPath: "/out/1-intro.mp4", RemoteDir: "gdrive:courses/Go"},
		model.StorageHooks{
			OnProgress:          func(p model.UploadProgress) { seen = append(seen, p) },
			OnComplete:          func() { completed = true },
			OnDeleteAfterUpload: func(p string) { hookPath = p },
		})
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, []string{"rclone", "copyto", "/out/1-intro.mp4", "gdrive:courses/Go/1-intro.mp4",
		"--transfers=4", "--progress", "--stats=1s", "--stats-one-line"}, calls[0])
	assert.Equal(t, "check", calls[1][1])
	require.Len(t, seen, 1)
	assert.Equal(t, 40, seen[0].Percent)
	assert.True(t, completed)
	assert.Equal(t, "/out/1-intro.mp4", hookPath)
	assert.Equal(t, "/out/1-intro.mp4", removed)
}

func TestStorageAdapter_KeepsFileWhenVerifyFails(t *testing.T) {
	var calls [][]string
	a := recordingAdapter(t, &calls)
	a.run = func(*exec.Cmd) error { return errors.New("1 differences found") }
	a.remove = func(string) error {
		t.Fatal("file must not be removed when verification fails")
		return nil
	}
	err := a.Upload(context.Background(),
		&model.Config{RcloneEnabled: true, DeleteAfterUpload: true, RcloneTransfers: 2},
		model.UploadRequest{LocalPath: "/out/a.mp4", RemoteDir: "gdrive:x"}, model.StorageHooks{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keeping /out/a.mp4")
	assert.Equal(t, "--transfers=2", calls[0][4])
}

func TestStorageAdapter_UploadWithoutDeleteSkipsCheck(t *testing.T) {
	var calls [][]string
	a := recordingAdapter(t, &calls)
	require.NoError(t, a.Upload(context.Background(), &model.Config{RcloneEnabled: true},
		model.UploadRequest{LocalPath: "/out/a.mp4", RemoteDir: "gdrive:"}, model.StorageHooks{}))
	require.Len(t, calls, 1)
	assert.Equal(t, "gdrive:a.mp4", calls[0][3])
}

func TestStorageAdapter_UploadErrors(t *testing.T) {
	var calls [][]string
	a := recordingAdapter(t, &calls)
	a.runStats = func(*exec.Cmd, func(model.UploadProgress)) error { return errors.New("exit status 1") }
	err := a.Upload(context.Background(), &model.Config{RcloneEnabled: true},
		model.UploadRequest{LocalPath: "/out/a.mp4", RemoteDir: "gdrive:"}, model.StorageHooks{})
	assert.ErrorContains(t, err, "rclone upload of /out/a.mp4 failed")

	a.validatePath = func(p string) error { return errors.New("bad path " + p) }
	err = a.Upload(context.Background(), &model.Config{RcloneEnabled: true},
		model.UploadRequest{LocalPath: "/out/a.mp4", RemoteDir: "gdrive:"}, model.StorageHooks{})
	assert.ErrorContains(t, err, "invalid local path")
}

func TestStorageAdapter_DisabledIsNoop(t *testing.T) {
	var calls [][]string
	a := recordingAdapter(t, &calls)
	require.NoError(t, a.Upload(context.Background(), &model.Config{},
		model.UploadRequest{LocalPath: "a"}, model.StorageHooks{}))
	exists, err := a.PathExists(context.Background(), &model.Config{}, "gdrive:a")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, calls)
}

func TestStorageAdapter_PathExists(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	cfg := &model.Config{RcloneEnabled: true, RcloneRemote: "gdrive"}
	for _, tt := range []struct {
		script  string
		exists  bool
		wantErr bool
	}{
		{script: "exit 0", exists: true},
		{script: "exit 3"},
		{script: "exit 1", wantErr: true},
	} {
		t.Run(tt.script, func(t *testing.T) {
			a := NewStorageAdapter()
			a.validatePath = func(string) error { return nil }
			var got []string
			a.command = func(ctx context.Context, name string, args ...string) *exec.Cmd {
				got = args
				return exec.CommandContext(ctx, "sh", "-c", tt.script)
			}
			exists, err := a.PathExists(context.Background(), cfg, "gdrive:courses/Go/1-intro.mp4")
			assert.Equal(t, []string{"lsf", "gdrive:courses/Go/1-intro.mp4"}, got)
			assert.Equal(t, tt.exists, exists)
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestRemoteFilePath(t *testing.T) {
	assert.Equal(t, "gdrive:a.mp4", RemoteFilePath("gdrive:", "a.mp4"))
	assert.Equal(t, "gdrive:c/a.mp4", RemoteFilePath("gdrive:c/", "a.mp4"))
	assert.Equal(t, "gdrive:c", remoteParent("gdrive:c/a.mp4"))
	assert.Equal(t, "gdrive:", remoteParent("gdrive:a.mp4"))
	assert.Equal(t, "/srv", remoteParent("/srv/a.mp4"))
}
