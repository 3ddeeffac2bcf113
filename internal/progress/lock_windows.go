//go:build windows

package progress

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// RootLock is an exclusive lock on an output root, held by creating the lock
// file. A file left behind by a crashed run has to be removed by hand.
type RootLock struct {
	f    *os.File
	path string
}

// LockRoot creates the lock file exclusively, retrying up to maxRetries times.
// While another run holds it the error matches model.ErrRootLocked.
func LockRoot(root string, maxRetries int) (*RootLock, error) {
	path := lockPath(root)
	var err error
	for attempt := 0; ; attempt++ {
		var f *os.File
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
		if err == nil {
			recordHolder(f)
			return &RootLock{f: f, path: path}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if attempt >= maxRetries {
			break
		}
		time.Sleep(lockRetryInterval)
	}
	return nil, lockedError(root, path, err)
}

// Release drops the lock. Calling it again is a no-op.
func (l *RootLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = l.f.Close()
	l.f = nil
	return os.Remove(l.path)
}
