package model

import (
	"slices"
	"time"
)

// Config holds the user's configuration.
type Config struct {
	OutPath           string `json:"outPath" split_words:"true" validate:"required"`
	Container         string `json:"container" validate:"oneof=mp4 mkv ts"`
	SegmentExt        string `json:"segmentExt" split_words:"true" validate:"required"`
	MaxAttempts       int    `json:"maxAttempts" split_words:"true" validate:"min=1,max=10"`
	FetchTimeout      int    `json:"fetchTimeout" split_words:"true" validate:"min=1"`
	RateLimit         int    `json:"rateLimit,omitempty" split_words:"true" validate:"min=0"`
	KeepTemp          bool   `json:"keepTemp,omitempty" split_words:"true"`
	ReuseSegments     bool   `json:"reuseSegments,omitempty" split_words:"true"`
	UseFfmpegEnvVar   bool   `json:"useFfmpegEnvVar" split_words:"true"`
	FfmpegNameStr     string `json:"ffmpegNameStr,omitempty" envconfig:"FFMPEG"`
	UserAgent         string `json:"userAgent,omitempty" split_words:"true"`
	Referer           string `json:"referer,omitempty"`
	FetchLogPath      string `json:"fetchLogPath,omitempty" split_words:"true"`
	RcloneEnabled     bool   `json:"rcloneEnabled,omitempty" split_words:"true"`
	RcloneRemote      string `json:"rcloneRemote,omitempty" split_words:"true" validate:"required_if=RcloneEnabled true"`
	RclonePath        string `json:"rclonePath,omitempty" split_words:"true"`
	RcloneTransfers   int    `json:"rcloneTransfers,omitempty" split_words:"true" validate:"min=0"`
	DeleteAfterUpload bool   `json:"deleteAfterUpload,omitempty" split_words:"true"`
	GotifyURL         string `json:"gotifyUrl,omitempty" envconfig:"GOTIFY_URL" validate:"omitempty,url"`
	GotifyToken       string `json:"gotifyToken,omitempty" envconfig:"GOTIFY_TOKEN"`
}

// FetchTimeoutDuration returns the per-request timeout.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// Args holds CLI arguments parsed by go-arg.
type Args struct {
	Catalog       string `arg:"positional" help:"Catalog JSON file produced by the capture step."`
	ConfigPath    string `arg:"--config" help:"Explicit config.json path."`
	OutPath       string `arg:"-o" help:"Output root. Path will be made if it doesn't already exist."`
	Container     string `arg:"--container" help:"Output container: mp4, mkv or ts."`
	MaxAttempts   int    `arg:"-a,--attempts" default:"-1" help:"Fetch attempts per segment (1-10)."`
	Timeout       int    `arg:"--timeout" default:"-1" help:"Per-request timeout in seconds."`
	FfmpegNameStr string `arg:"--ffmpeg" help:"ffmpeg binary name or path."`
	KeepTemp      bool   `arg:"--keep-temp" help:"Keep downloaded segments after a successful merge."`
	ReuseSegments bool   `arg:"--reuse-segments" help:"Re-merge complete on-disk segment sets instead of refetching."`
	Status        bool   `arg:"--status" help:"Print resume state for the output root and exit."`
	Completion    string `arg:"--completion" help:"Print a shell completion script (bash, zsh, fish) and exit."`
}

// Description provides custom help text for go-arg.
func (Args) Description() string {
	return "Downloads every item of an HLS catalog into single playable files, resuming across runs."
}

// Session is the opaque authentication context handed over by the capture step.
type Session struct {
	Cookie  string            `json:"cookie,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// CatalogItem is one downloadable entry. Ordinal is the resume key.
type CatalogItem struct {
	Ordinal        int               `json:"ordinal" validate:"gt=0"`
	Title          string            `json:"title"`
	PlaylistURL    string            `json:"playlistUrl" validate:"required,url"`
	CapturedBodies map[string]string `json:"capturedBodies,omitempty"`
}

// Variant is one quality level listed by a master playlist.
type Variant struct {
	URL        string
	Bandwidth  int
	Resolution string
}

// ResolvedPlaylist is the media playlist chosen for an item.
// Segments[i] is segment i; downstream code identifies segments by index only.
type ResolvedPlaylist struct {
	EffectiveURL string
	Segments     []string
	Durations    []float64
}

// Manifest is the persisted, authoritative segment order for one item.
type Manifest struct {
	Ordinal      int       `json:"ordinal"`
	Title        string    `json:"title"`
	SegmentCount int       `json:"segmentCount"`
	Segments     []string  `json:"segments"`
	Durations    []float64 `json:"durations,omitempty"`
}

// Progress is the resume state of one output root.
type Progress struct {
	Completed []int `json:"completed"`
	Total     int   `json:"total"`
}

// IsDone reports whether ordinal has been fully downloaded and merged.
func (p Progress) IsDone(ordinal int) bool {
	return slices.Contains(p.Completed, ordinal)
}

// WithDone returns a copy of p with ordinal recorded and total replaced.
func (p Progress) WithDone(ordinal, total int) Progress {
	completed := slices.Clone(p.Completed)
	if !slices.Contains(completed, ordinal) {
		completed = append(completed, ordinal)
	}
	slices.Sort(completed)
	return Progress{Completed: completed, Total: total}
}

// BatchProgressState tracks progress across the items of one catalog run.
type BatchProgressState struct {
	CurrentItem  int
	TotalItems   int
	Complete     int
	Failed       int
	Skipped      int
	StartTime    time.Time
	CurrentTitle string
}
