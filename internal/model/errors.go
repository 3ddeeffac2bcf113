package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the download pipeline.
var (
	// ErrMalformedPlaylist is returned when playlist text is empty or unusable.
	ErrMalformedPlaylist = errors.New("malformed playlist")
	// ErrPlaylistUnavailable is returned when no body is known for a required playlist URL.
	ErrPlaylistUnavailable = errors.New("playlist unavailable")
	// ErrNoCapturedVariant is returned when none of a master playlist's variants was captured.
	ErrNoCapturedVariant = errors.New("no captured variant")
	// ErrEmptyPlaylist is returned when a media playlist lists zero segments.
	ErrEmptyPlaylist = errors.New("playlist has no segments")
	// ErrSegmentFetchFailed is returned when a segment could not be fetched within the retry budget.
	ErrSegmentFetchFailed = errors.New("segment fetch failed")
	// ErrMergeFailed is returned when the muxer did not produce an output file.
	ErrMergeFailed = errors.New("merge failed")
	// ErrProgressStateCorrupt indicates the progress file could not be parsed.
	ErrProgressStateCorrupt = errors.New("progress state corrupt")
	// ErrRootLocked is returned when another run holds the output root.
	ErrRootLocked = errors.New("output root is in use by another run")
)

// PlaylistUnavailableError lists the URLs that were known when a playlist body was missing.
type PlaylistUnavailableError struct {
	URL   string
	Known []string
}

func (e *PlaylistUnavailableError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("%s: %s (no captured bodies)", ErrPlaylistUnavailable, e.URL)
	}
	return fmt.Sprintf("%s: %s (captured: %s)", ErrPlaylistUnavailable, e.URL, strings.Join(e.Known, ", "))
}

func (e *PlaylistUnavailableError) Unwrap() error { return ErrPlaylistUnavailable }

// NoCapturedVariantError lists the variant URLs that were considered.
type NoCapturedVariantError struct {
	MasterURL  string
	Candidates []string
}

func (e *NoCapturedVariantError) Error() string {
	return fmt.Sprintf("%s for %s (candidates: %s)", ErrNoCapturedVariant, e.MasterURL, strings.Join(e.Candidates, ", "))
}

func (e *NoCapturedVariantError) Unwrap() error { return ErrNoCapturedVariant }

// SegmentFetchError describes a segment that exhausted its attempts.
type SegmentFetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *SegmentFetchError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %s: %v", ErrSegmentFetchFailed, e.Attempts, e.URL, e.Err)
}

// Is matches ErrSegmentFetchFailed while Unwrap exposes the last attempt's error.
func (e *SegmentFetchError) Is(target error) bool { return target == ErrSegmentFetchFailed }

func (e *SegmentFetchError) Unwrap() error { return e.Err }

// MergeError carries the muxer's diagnostic output.
type MergeError struct {
	Dest   string
	Output string
	Err    error
}

func (e *MergeError) Error() string {
	msg := fmt.Sprintf("%s: %s: %v", ErrMergeFailed, e.Dest, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *MergeError) Is(target error) bool { return target == ErrMergeFailed }

func (e *MergeError) Unwrap() error { return e.Err }

// ItemError records which item and phase an error came from.
type ItemError struct {
	Ordinal int
	Title   string
	Phase   ItemPhase
	Err     error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (%s) failed while %s: %v", e.Ordinal, e.Title, e.Phase, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
