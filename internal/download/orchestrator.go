package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmagar/hlsgrab/internal/fetch"
	"github.com/jmagar/hlsgrab/internal/helpers"
	"github.com/jmagar/hlsgrab/internal/hls"
	"github.com/jmagar/hlsgrab/internal/model"
	"github.com/jmagar/hlsgrab/internal/mux"
	"github.com/jmagar/hlsgrab/internal/progress"
	"github.com/jmagar/hlsgrab/internal/store"
)

// PlaylistResolver picks the media playlist for a catalog item.
type PlaylistResolver interface {
	Resolve(ctx context.Context, playlistURL string, captured map[string]string) (model.ResolvedPlaylist, error)
}

// Merger combines an item's segments into its output file.
type Merger interface {
	Merge(ctx context.Context, req mux.Request) error
}

// Options configure an Orchestrator.
type Options struct {
	Root          string
	Container     string
	SegmentExt    string
	KeepTemp      bool
	ReuseSegments bool
}

// Orchestrator processes catalog items one at a time, one segment at a time.
type Orchestrator struct {
	opts     Options
	fetcher  fetch.Fetcher
	retrier  *fetch.Retrier
	resolver PlaylistResolver
	merger   Merger
	tracker  *progress.Tracker
	deps     *Deps
}

// New wires an Orchestrator. Playlists missing from an item's captured bodies
// are fetched through fetcher with the same retry policy as segments.
func New(opts Options, fetcher fetch.Fetcher, retrier *fetch.Retrier, merger Merger, deps *Deps) *Orchestrator {
	if opts.Container == "" {
		opts.Container = model.DefaultContainer
	}
	if opts.SegmentExt == "" {
		opts.SegmentExt = model.DefaultSegmentExt
	}
	if retrier == nil {
		retrier = fetch.NewRetrier(model.DefaultMaxAttempts)
	}
	if deps == nil {
		deps = &Deps{}
	}
	o := &Orchestrator{
		opts:    opts,
		fetcher: fetcher,
		retrier: retrier,
		merger:  merger,
		tracker: progress.New(opts.Root),
		deps:    deps,
	}
	o.resolver = hls.NewResolver(opts.SegmentExt, func(ctx context.Context, url string) ([]byte, error) {
		return o.retrier.Fetch(ctx, url, o.fetcher)
	})
	return o
}

// WithResolver replaces the playlist resolver.
func (o *Orchestrator) WithResolver(r PlaylistResolver) *Orchestrator {
	o.resolver = r
	return o
}

// Result is the outcome of one catalog run.
type Result struct {
	Batch    model.BatchProgressState
	Items    []*model.ItemState
	Progress model.Progress
}

// Failures returns the errors of failed items in catalog order.
func (r *Result) Failures() []*model.ItemError {
	var out []*model.ItemError
	for _, st := range r.Items {
		var ie *model.ItemError
		if st.Phase == model.PhaseFailed && errors.As(st.Err, &ie) {
			out = append(out, ie)
		}
	}
	return out
}

// OutputPath returns where item's merged file is written.
func (o *Orchestrator) OutputPath(item model.CatalogItem) string {
	return filepath.Join(o.opts.Root, helpers.ItemFileName(item, o.opts.Container))
}

// RunCatalog processes items in the given order. Item failures are recorded in the
// result and never stop the loop. The returned error is non-nil only when the output
// root cannot be created or locked, or ctx was cancelled; cancellation is checked between items.
func (o *Orchestrator) RunCatalog(ctx context.Context, items []model.CatalogItem) (*Result, error) {
	if err := helpers.MakeDirs(o.opts.Root); err != nil {
		return nil, fmt.Errorf("failed to create output root %s: %w", o.opts.Root, err)
	}
	lock, err := progress.LockRoot(o.opts.Root, 0)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			o.deps.warn(fmt.Sprintf("Failed to release lock on %s: %v", o.opts.Root, err))
		}
	}()

	prog, err := o.tracker.Load()
	if err != nil {
		o.deps.warn(fmt.Sprintf("Ignoring unreadable progress state, starting over: %v", err))
	}

	res := &Result{Batch: model.BatchProgressState{TotalItems: len(items), StartTime: time.Now()}}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			res.Progress = prog
			return res, err
		}
		res.Batch.CurrentItem = i + 1
		res.Batch.CurrentTitle = item.Title
		if o.deps.OnItemStart != nil {
			o.deps.OnItemStart(i+1, len(items), item)
		}

		// An item that has started runs to completion even if ctx is cancelled meanwhile.
		st := o.processItem(context.WithoutCancel(ctx), item, len(items), &prog)
		res.Items = append(res.Items, st)

		switch {
		case st.Skipped:
			res.Batch.Skipped++
		case st.Phase == model.PhaseDone:
			res.Batch.Complete++
		default:
			res.Batch.Failed++
		}

		if o.deps.OnItemEnd != nil {
			o.deps.OnItemEnd(st)
		}
	}
	res.Progress = prog
	return res, nil
}

func (o *Orchestrator) processItem(ctx context.Context, item model.CatalogItem, total int, prog *model.Progress) *model.ItemState {
	st := model.NewItemState(item)

	if prog.IsDone(item.Ordinal) {
		st.Skipped = true
		st.OutPath = o.OutputPath(item)
		o.advance(st, model.PhaseDone)
		return st
	}

	var s *store.Store
	if o.opts.ReuseSegments {
		s = o.reusableStore(item.Ordinal)
	}
	if s != nil {
		if m, err := s.ReadManifest(); err == nil && m != nil {
			st.Segments = m.SegmentCount
		}
		st.Bytes = helpers.DirSize(s.Dir())
	} else {
		var err error
		if s, err = o.fetchItem(ctx, st); err != nil {
			st.Fail(err)
			return st
		}
	}

	o.advance(st, model.PhaseMerging)
	dest := o.OutputPath(item)
	if err := o.merge(ctx, s, dest); err != nil {
		// Segments stay on disk for inspection or a --reuse-segments rerun.
		st.Fail(err)
		return st
	}

	next, err := o.tracker.MarkDone(item.Ordinal, total)
	if err != nil {
		st.Fail(fmt.Errorf("merged %s but could not record progress: %w", dest, err))
		return st
	}
	*prog = next

	st.Mu.Lock()
	st.OutPath = dest
	st.Mu.Unlock()
	o.advance(st, model.PhaseDone)

	if !o.opts.KeepTemp {
		if err := s.Close(true); err != nil {
			o.deps.warn(fmt.Sprintf("Could not clean up %s: %v", s.Dir(), err))
		}
	}
	if o.deps.Upload != nil {
		if err := o.deps.Upload(ctx, dest); err != nil {
			o.deps.warn(fmt.Sprintf("Upload of %s failed: %v", filepath.Base(dest), err))
		}
	}
	return st
}

// fetchItem resolves the playlist and stores every segment. Any failure aborts the item.
// The temp directory is only created once there is something to put in it.
func (o *Orchestrator) fetchItem(ctx context.Context, st *model.ItemState) (*store.Store, error) {
	item := st.Item
	o.advance(st, model.PhaseResolving)
	resolved, err := o.resolver.Resolve(ctx, item.PlaylistURL, item.CapturedBodies)
	if err != nil {
		return nil, err
	}
	count := len(resolved.Segments)
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrEmptyPlaylist, resolved.EffectiveURL)
	}

	s, err := store.Open(o.opts.Root, item.Ordinal, o.opts.SegmentExt)
	if err != nil {
		return nil, err
	}
	o.advance(st, model.PhaseFetching)
	if err := s.WriteManifest(item, count, resolved.Durations); err != nil {
		return nil, err
	}
	for i, url := range resolved.Segments {
		data, err := o.retrier.Fetch(ctx, url, o.fetcher)
		if err != nil {
			return nil, fmt.Errorf("segment %d of %d: %w", i+1, count, err)
		}
		if _, err := s.Put(i, data); err != nil {
			return nil, err
		}
		st.Mu.Lock()
		st.Segments = i + 1
		st.Bytes += int64(len(data))
		st.Mu.Unlock()
		if o.deps.OnSegment != nil {
			o.deps.OnSegment(st, i+1, count)
		}
	}
	return s, nil
}

// reusableStore returns the item's temp store when a previous run left a complete
// segment set behind, without creating anything on disk.
func (o *Orchestrator) reusableStore(ordinal int) *store.Store {
	info, err := os.Stat(store.Dir(o.opts.Root, ordinal))
	if err != nil || !info.IsDir() {
		return nil
	}
	s, err := store.Open(o.opts.Root, ordinal, o.opts.SegmentExt)
	if err != nil || !s.Complete() {
		return nil
	}
	return s
}

func (o *Orchestrator) merge(ctx context.Context, s *store.Store, dest string) error {
	paths, err := s.OrderedPaths()
	if err != nil {
		return &model.MergeError{Dest: dest, Err: err}
	}
	var durations []float64
	if m, err := s.ReadManifest(); err == nil && m != nil {
		durations = m.Durations
	}
	return o.merger.Merge(ctx, mux.Request{
		Dir:       s.Dir(),
		Segments:  paths,
		Durations: durations,
		Dest:      dest,
		Container: o.opts.Container,
	})
}

// advance performs a transition the orchestrator's own control flow guarantees is valid.
func (o *Orchestrator) advance(st *model.ItemState, phase model.ItemPhase) {
	if err := st.SetPhase(phase); err != nil {
		o.deps.warn(fmt.Sprintf("item %d: %v", st.Item.Ordinal, err))
		return
	}
	if o.deps.OnPhase != nil {
		o.deps.OnPhase(st)
	}
}
