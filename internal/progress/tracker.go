// Package progress persists which catalog items of an output root are finished.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmagar/hlsgrab/internal/model"
)

// Tracker reads and writes <root>/.download-progress.json.
// A run holds LockRoot on the same root, so writes never race another run.
type Tracker struct {
	path string
}

// New returns the tracker for an output root.
func New(root string) *Tracker {
	return &Tracker{path: filepath.Join(root, model.ProgressFileName)}
}

// Path returns the state file location.
func (t *Tracker) Path() string { return t.path }

// Load returns the saved progress. A missing file yields empty progress and no error.
// A corrupt file also yields empty progress; the returned error wraps
// ErrProgressStateCorrupt and should be reported as a warning only.
func (t *Tracker) Load() (model.Progress, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.Progress{}, nil
	}
	if err != nil {
		return model.Progress{}, fmt.Errorf("%w: %v", model.ErrProgressStateCorrupt, err)
	}
	var p model.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Progress{}, fmt.Errorf("%w: %s: %v", model.ErrProgressStateCorrupt, t.path, err)
	}
	return p, nil
}

// MarkDone re-reads the state, records ordinal, replaces total and saves it atomically.
// The returned value is the new state.
func (t *Tracker) MarkDone(ordinal, total int) (model.Progress, error) {
	current, _ := t.Load()
	next := current.WithDone(ordinal, total)
	if err := t.save(next); err != nil {
		return current, err
	}
	return next, nil
}

func (t *Tracker) save(p model.Progress) error {
	if p.Completed == nil {
		p.Completed = []int{}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	tmpPath := t.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp progress file: %w", err)
	}
	if err := os.Rename(tmpPath, t.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename progress file: %w", err)
	}
	return nil
}
