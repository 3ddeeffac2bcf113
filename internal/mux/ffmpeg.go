// Package mux turns an item's ordered segment files into one container with ffmpeg.
package mux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jmagar/hlsgrab/internal/hls"
	"github.com/jmagar/hlsgrab/internal/model"
)

// Request describes one merge.
type Request struct {
	// Dir holds the segments; local.m3u8 is written here.
	Dir string
	// Segments are the blob paths in merge order.
	Segments  []string
	Durations []float64
	// Dest is the final output path.
	Dest      string
	Container string
}

// FFmpeg muxes segments with an external ffmpeg binary, stream copy only.
type FFmpeg struct {
	Binary string
}

var containerFormats = map[string]string{
	"mp4": "mp4",
	"mkv": "matroska",
	"ts":  "mpegts",
}

// FormatFor returns ffmpeg's -f name for a container extension.
func FormatFor(container string) (string, error) {
	format, ok := containerFormats[container]
	if !ok {
		return "", fmt.Errorf("unsupported container %q", container)
	}
	return format, nil
}

// Merge writes the local playlist, runs ffmpeg into <dest>.part and renames it into place.
// Failures are returned as *model.MergeError carrying ffmpeg's stderr.
func (f *FFmpeg) Merge(ctx context.Context, req Request) error {
	if len(req.Segments) == 0 {
		return &model.MergeError{Dest: req.Dest, Err: model.ErrEmptyPlaylist}
	}
	format, err := FormatFor(req.Container)
	if err != nil {
		return &model.MergeError{Dest: req.Dest, Err: err}
	}

	entries := make([]string, len(req.Segments))
	for i, p := range req.Segments {
		if filepath.Dir(p) == filepath.Clean(req.Dir) {
			entries[i] = filepath.Base(p)
		} else {
			entries[i] = p
		}
	}
	playlist := filepath.Join(req.Dir, model.LocalPlaylist)
	if err := hls.WriteLocalPlaylist(playlist, entries, req.Durations); err != nil {
		return &model.MergeError{Dest: req.Dest, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(req.Dest), 0755); err != nil {
		return &model.MergeError{Dest: req.Dest, Err: err}
	}
	partPath := req.Dest + ".part"
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-allowed_extensions", "ALL",
		"-protocol_whitelist", "file",
		"-i", playlist,
		"-c", "copy",
		"-f", format,
		partPath,
	}

	var errBuffer bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Binary, args...)
	cmd.Stderr = &errBuffer
	if err := cmd.Run(); err != nil {
		_ = os.Remove(partPath)
		return &model.MergeError{Dest: req.Dest, Output: errBuffer.String(), Err: err}
	}

	info, err := os.Stat(partPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(partPath)
		if err == nil {
			err = errors.New("ffmpeg produced an empty file")
		}
		return &model.MergeError{Dest: req.Dest, Output: errBuffer.String(), Err: err}
	}
	if err := os.Rename(partPath, req.Dest); err != nil {
		_ = os.Remove(partPath)
		return &model.MergeError{Dest: req.Dest, Err: err}
	}
	return nil
}
