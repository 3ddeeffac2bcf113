// Package download runs catalog items through resolve, fetch, merge and resume tracking.
// Presentation and upload are reached through the Deps callbacks so the engine
// stays free of terminal and remote-storage concerns.
package download

import (
	"context"

	"github.com/jmagar/hlsgrab/internal/model"
)

// Deps holds optional callbacks wired by the command layer. Nil fields are skipped.
type Deps struct {
	// OnItemStart is called before an item is examined. index is 1-based.
	OnItemStart func(index, total int, item model.CatalogItem)

	// OnPhase is called after every successful phase transition.
	OnPhase func(st *model.ItemState)

	// OnSegment is called after each segment is stored.
	OnSegment func(st *model.ItemState, done, total int)

	// OnItemEnd is called once the item reaches Done or Failed.
	OnItemEnd func(st *model.ItemState)

	// Warn reports a non-fatal problem.
	Warn func(msg string)

	// Upload sends a finished output to remote storage. Failures are only warnings.
	Upload func(ctx context.Context, localPath string) error
}

func (d *Deps) warn(msg string) {
	if d != nil && d.Warn != nil {
		d.Warn(msg)
	}
}
