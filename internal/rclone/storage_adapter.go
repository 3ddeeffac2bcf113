package rclone

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jmagar/hlsgrab/internal/helpers"
	"github.com/jmagar/hlsgrab/internal/model"
)

const (
	defaultTransfers = 4
	lsfTimeout       = 30 * time.Second
)

// StorageAdapter is a storage provider backed by the rclone CLI.
type StorageAdapter struct {
	binary string

	// Swappable in tests.
	validatePath func(path string) error
	remove       func(path string) error
	command      func(ctx context.Context, name string, args ...string) *exec.Cmd
	runStats     func(cmd *exec.Cmd, onProgress func(model.UploadProgress)) error
	run          func(cmd *exec.Cmd) error
}

var _ model.StorageProvider = (*StorageAdapter)(nil)

// NewStorageAdapter creates an rclone-backed storage adapter.
func NewStorageAdapter() *StorageAdapter {
	return &StorageAdapter{
		binary:       defaultBinary,
		validatePath: helpers.ValidatePath,
		remove:       os.Remove,
		command:      exec.CommandContext,
		runStats:     runWithStats,
		run:          func(cmd *exec.Cmd) error { return cmd.Run() },
	}
}

// Upload copies req.LocalPath into req.RemoteDir. With DeleteAfterUpload the
// local file is removed only after "rclone check" confirms the remote copy.
func (a *StorageAdapter) Upload(ctx context.Context, cfg *model.Config, req model.UploadRequest, hooks model.StorageHooks) error {
	if !cfg.RcloneEnabled {
		return nil
	}
	if err := a.validatePath(req.LocalPath); err != nil {
		return fmt.Errorf("invalid local path: %w", err)
	}
	if err := a.validatePath(req.RemoteDir); err != nil {
		return fmt.Errorf("invalid remote directory: %w", err)
	}

	transfers := cfg.RcloneTransfers
	if transfers <= 0 {
		transfers = defaultTransfers
	}
	args, dest := copyArgs(req.LocalPath, req.RemoteDir, transfers)
	if err := a.runStats(a.command(ctx, a.binary, args...), hooks.OnProgress); err != nil {
		return fmt.Errorf("rclone upload of %s failed: %w", req.LocalPath, err)
	}
	if hooks.OnComplete != nil {
		hooks.OnComplete()
	}
	if !cfg.DeleteAfterUpload {
		return nil
	}

	var out bytes.Buffer
	check := a.command(ctx, a.binary, checkArgs(req.LocalPath, dest)...)
	check.Stdout = &out
	check.Stderr = &out
	if err := a.run(check); err != nil {
		return fmt.Errorf("upload verification failed, keeping %s: %w\n%s",
			req.LocalPath, err, strings.TrimSpace(out.String()))
	}

	if hooks.OnDeleteAfterUpload != nil {
		hooks.OnDeleteAfterUpload(req.LocalPath)
	}
	if err := a.remove(req.LocalPath); err != nil {
		return fmt.Errorf("failed to delete local file: %w", err)
	}
	return nil
}

// PathExists reports whether a full rclone location exists.
func (a *StorageAdapter) PathExists(ctx context.Context, cfg *model.Config, remotePath string) (bool, error) {
	if !cfg.RcloneEnabled {
		return false, nil
	}
	if err := a.validatePath(remotePath); err != nil {
		return false, fmt.Errorf("invalid remote path: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, lsfTimeout)
	defer cancel()

	err := a.run(a.command(ctx, a.binary, "lsf", remotePath))
	if err == nil {
		return true, nil
	}
	code, ok := exitCode(err)
	switch {
	case !ok:
		return false, fmt.Errorf("failed to execute rclone: %w", err)
	case code == exitDirNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("rclone lsf %s exited %d: %w", remotePath, code, err)
	}
}

// RemoteFilePath returns where fileName lands under remoteDir.
func RemoteFilePath(remoteDir, fileName string) string {
	if strings.HasSuffix(remoteDir, ":") {
		return remoteDir + fileName
	}
	return strings.TrimSuffix(remoteDir, "/") + "/" + fileName
}
