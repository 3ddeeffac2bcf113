package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jmagar/hlsgrab/internal/model"
)

const lockRetryInterval = 100 * time.Millisecond

func lockPath(root string) string {
	return filepath.Join(root, model.LockFileName)
}

// recordHolder replaces the lock file content with this process's PID.
func recordHolder(f *os.File) {
	if err := f.Truncate(0); err != nil {
		return
	}
	_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
}

// lockedError reports which process holds the lock, when the file says.
func lockedError(root, path string, cause error) error {
	if b, err := os.ReadFile(path); err == nil {
		if pid := strings.TrimSpace(string(b)); pid != "" {
			return fmt.Errorf("%w: %s (held by pid %s): %w", model.ErrRootLocked, root, pid, cause)
		}
	}
	return fmt.Errorf("%w: %s: %w", model.ErrRootLocked, root, cause)
}
