package model

// Output defaults.
const (
	DefaultContainer    = "mp4"
	DefaultSegmentExt   = "ts"
	DefaultMaxAttempts  = 3
	DefaultFetchTimeout = 30 // seconds
	DefaultOutPath      = "hlsgrab downloads"

	// SegmentPadWidth is the zero-padding of blob filenames. Ordering never depends on it.
	SegmentPadWidth = 5

	TempDirName      = ".temp"
	ManifestFileName = "manifest.json"
	ProgressFileName = ".download-progress.json"
	LocalPlaylist    = "local.m3u8"
	LockFileName     = ".hlsgrab.lock"
)

// Descriptive headers sent by the direct (non-session) fetcher.
const (
	DirectUserAgent = "hlsgrab/1.0 (+https://github.com/jmagar/hlsgrab)"
	DirectReferer   = "https://github.com/jmagar/hlsgrab"
)

// Message priority constants for notifications.
const (
	MessagePriorityStatus  = 1
	MessagePriorityWarning = 5
	MessagePriorityError   = 8
)
