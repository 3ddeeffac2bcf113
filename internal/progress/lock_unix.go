//go:build !windows

package progress

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

// RootLock is an exclusive advisory lock on an output root. The kernel drops
// it when the process exits, so a crashed run never leaves the root locked.
type RootLock struct {
	f *os.File
}

// LockRoot takes the run lock of root, retrying up to maxRetries times.
// While another run holds it the error matches model.ErrRootLocked.
func LockRoot(root string, maxRetries int) (*RootLock, error) {
	path := lockPath(root)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	for attempt := 0; ; attempt++ {
		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			recordHolder(f)
			return &RootLock{f: f}, nil
		}
		if attempt >= maxRetries {
			break
		}
		time.Sleep(lockRetryInterval)
	}
	_ = f.Close()
	return nil, lockedError(root, path, err)
}

// Release drops the lock. Calling it again is a no-op.
func (l *RootLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	_ = f.Truncate(0)
	unlockErr := syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	if err := f.Close(); err != nil && unlockErr == nil {
		unlockErr = err
	}
	if unlockErr != nil {
		return fmt.Errorf("release root lock: %w", unlockErr)
	}
	return nil
}
