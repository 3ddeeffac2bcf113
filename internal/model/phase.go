package model

import (
	"fmt"
	"sync"
	"time"
)

// ItemPhase is a state of the per-item download state machine.
type ItemPhase int

const (
	PhasePending ItemPhase = iota
	PhaseResolving
	PhaseFetching
	PhaseMerging
	PhaseDone
	PhaseFailed
)

// String returns the lower-case phase name used in logs.
func (p ItemPhase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseResolving:
		return "resolving"
	case PhaseFetching:
		return "fetching"
	case PhaseMerging:
		return "merging"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (p ItemPhase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// ItemState tracks one item through the state machine.
type ItemState struct {
	Mu sync.Mutex // Protects all fields from concurrent access

	Item      CatalogItem
	Phase     ItemPhase
	Skipped   bool
	Err       error
	OutPath   string
	Segments  int
	Bytes     int64
	StartTime time.Time
	EndTime   time.Time
}

// NewItemState returns a pending state for item.
func NewItemState(item CatalogItem) *ItemState {
	return &ItemState{Item: item, Phase: PhasePending, StartTime: time.Now()}
}

// SetPhase moves the item to phase with transition validation.
// Thread-safe: acquires mutex internally.
func (s *ItemState) SetPhase(phase ItemPhase) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if !isValidTransition(s.Phase, phase) {
		return fmt.Errorf("invalid phase transition: %s -> %s", s.Phase, phase)
	}
	s.Phase = phase
	if phase.Terminal() {
		s.EndTime = time.Now()
	}
	return nil
}

// Fail moves the item to PhaseFailed, recording err wrapped with the phase it failed in.
func (s *ItemState) Fail(err error) *ItemError {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	itemErr := &ItemError{Ordinal: s.Item.Ordinal, Title: s.Item.Title, Phase: s.Phase, Err: err}
	s.Phase = PhaseFailed
	s.Err = itemErr
	s.EndTime = time.Now()
	return itemErr
}

// Duration returns the elapsed time for the item, or time so far if still active.
func (s *ItemState) Duration() time.Duration {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

func isValidTransition(from, to ItemPhase) bool {
	if to == PhaseFailed {
		return !from.Terminal()
	}
	switch from {
	case PhasePending:
		// Pending -> Done is the already-completed skip; Pending -> Merging is segment reuse.
		return to == PhaseResolving || to == PhaseDone || to == PhaseMerging
	case PhaseResolving:
		return to == PhaseFetching
	case PhaseFetching:
		return to == PhaseMerging
	case PhaseMerging:
		return to == PhaseDone
	default:
		return false
	}
}
