package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmagar/hlsgrab/internal/catalog"
	"github.com/jmagar/hlsgrab/internal/config"
	"github.com/jmagar/hlsgrab/internal/download"
	"github.com/jmagar/hlsgrab/internal/fetch"
	"github.com/jmagar/hlsgrab/internal/model"
	"github.com/jmagar/hlsgrab/internal/mux"
	"github.com/jmagar/hlsgrab/internal/notify"
	"github.com/jmagar/hlsgrab/internal/rclone"
	"github.com/jmagar/hlsgrab/internal/ui"
)

func run(ctx context.Context, args *model.Args) int {
	cfg, err := config.Load(args)
	if err != nil {
		ui.PrintError(fmt.Sprintf("Failed to load config: %v", err))
		return exitFatal
	}

	if args.Status {
		var cat *catalog.Catalog
		if args.Catalog != "" {
			if cat, err = catalog.Load(args.Catalog); err != nil {
				ui.PrintError(err.Error())
				return exitFatal
			}
		}
		return printStatus(ctx, cfg, cat)
	}

	if args.Catalog == "" {
		ui.PrintError("No catalog file given. Usage: hlsgrab [options] CATALOG")
		return exitFatal
	}
	cat, err := catalog.Load(args.Catalog)
	if err != nil {
		ui.PrintError(err.Error())
		return exitFatal
	}

	ffmpegBin, err := config.ResolveFfmpegBinary(cfg)
	if err != nil {
		ui.PrintError(err.Error())
		return exitFatal
	}
	if cfg.RcloneEnabled {
		version, err := rclone.CheckRcloneAvailable(ctx, "")
		if err != nil {
			ui.PrintError(err.Error())
			return exitFatal
		}
		ui.PrintInfo("Uploading finished files with " + version)
	}
	if cfg.FetchLogPath != "" {
		runID, err := fetch.InitLogger(cfg.FetchLogPath)
		if err != nil {
			ui.PrintWarning(fmt.Sprintf("Fetch log disabled: %v", err))
		} else {
			defer func() { _ = fetch.CloseLogger() }()
			ui.PrintInfo(fmt.Sprintf("Logging requests to %s (run %s)", cfg.FetchLogPath, runID))
		}
	}

	orch := download.New(download.Options{
		Root:          cfg.OutPath,
		Container:     cfg.Container,
		SegmentExt:    cfg.SegmentExt,
		KeepTemp:      cfg.KeepTemp,
		ReuseSegments: cfg.ReuseSegments,
	}, newFetcher(cfg, cat), newRetrier(cfg), &mux.FFmpeg{Binary: ffmpegBin}, newDeps(cfg, cat.Course))

	title := cat.Course
	if title == "" {
		title = filepath.Base(args.Catalog)
	}
	ui.PrintHeader(title)
	ui.PrintKeyValue("Items", fmt.Sprintf("%d", len(cat.Items)), ui.ColorCyan)
	ui.PrintKeyValue("Output", cfg.OutPath, ui.ColorCyan)

	res, runErr := orch.RunCatalog(ctx, cat.Items)
	if res == nil {
		ui.PrintError(runErr.Error())
		return exitFatal
	}
	ui.PrintCompletionSummary(res.Batch, res.Items)
	sendSummary(cfg, cat.Course, res)

	switch {
	case errors.Is(runErr, context.Canceled):
		ui.PrintWarning("Run cancelled. Completed items are recorded; rerun to resume")
		return exitItemsFailed
	case runErr != nil:
		ui.PrintError(runErr.Error())
		return exitFatal
	case res.Batch.Failed > 0:
		return exitItemsFailed
	}
	return exitOK
}

// newFetcher forwards the captured session when there is one; otherwise requests
// identify themselves with a descriptive User-Agent and Referer.
func newFetcher(cfg *model.Config, cat *catalog.Catalog) fetch.Fetcher {
	opts := fetch.Options{Timeout: cfg.FetchTimeoutDuration(), RateLimit: cfg.RateLimit}
	if cat.HasSession() {
		return fetch.NewSessionFetcher(cat.Session, opts)
	}
	return fetch.NewDirectFetcher(cfg.UserAgent, cfg.Referer, opts)
}

func newRetrier(cfg *model.Config) *fetch.Retrier {
	r := fetch.NewRetrier(cfg.MaxAttempts)
	r.OnRetry = func(url string, attempt int, wait time.Duration, err error) {
		ui.EndProgressLine()
		ui.PrintWarning(fmt.Sprintf("Attempt %d/%d for %s failed (%v), retrying in %s",
			attempt, r.MaxAttempts, filepath.Base(url), err, wait))
	}
	return r
}

func newDeps(cfg *model.Config, course string) *download.Deps {
	deps := &download.Deps{
		OnItemStart: ui.PrintItemHeader,
		OnPhase: func(st *model.ItemState) {
			st.Mu.Lock()
			phase, skipped := st.Phase, st.Skipped
			st.Mu.Unlock()
			switch {
			case skipped:
			case phase == model.PhaseFetching:
				ui.PrintDownload("Fetching segments")
			case phase == model.PhaseMerging:
				ui.PrintInfo("Merging segments")
			}
		},
		OnSegment: func(st *model.ItemState, done, total int) {
			st.Mu.Lock()
			bytes := st.Bytes
			st.Mu.Unlock()
			ui.PrintSegmentProgress(done, total, bytes)
		},
		OnItemEnd: ui.PrintItemResult,
		Warn:      ui.PrintWarning,
	}
	if cfg.RcloneEnabled {
		deps.Upload = func(ctx context.Context, localPath string) error {
			ui.PrintUpload("Uploading " + filepath.Base(localPath))
			return rclone.Upload(ctx, cfg, localPath, course, model.StorageHooks{
				OnProgress: func(p model.UploadProgress) {
					ui.PrintUploadProgress(p.Percent, p.Speed, p.Uploaded, p.Total)
				},
				OnComplete: ui.EndProgressLine,
				OnDeleteAfterUpload: func(path string) {
					ui.PrintInfo("Removed local copy " + path)
				},
			})
		}
	}
	return deps
}

func sendSummary(cfg *model.Config, course string, res *download.Result) {
	g := notify.New(cfg.GotifyURL, cfg.GotifyToken)
	if g == nil {
		return
	}
	title, msg, priority := notify.Summary(course, res.Batch, res.Failures())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := g.Send(ctx, title, msg, priority); err != nil {
		ui.PrintWarning(fmt.Sprintf("Notification failed: %v", err))
	}
}
