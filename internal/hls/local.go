package hls

import (
	"fmt"
	"os"

	"github.com/grafov/m3u8"
)

// defaultSegmentDuration is used for segments whose #EXTINF was missing.
const defaultSegmentDuration = 10.0

// WriteLocalPlaylist writes a closed VOD media playlist listing segments in the given order.
// It is the input handed to the muxer, so entries are paths relative to the playlist file.
func WriteLocalPlaylist(path string, segments []string, durations []float64) error {
	if len(segments) == 0 {
		return fmt.Errorf("local playlist %s: no segments", path)
	}
	pl, err := m3u8.NewMediaPlaylist(0, uint(len(segments)))
	if err != nil {
		return fmt.Errorf("local playlist: %w", err)
	}
	pl.MediaType = m3u8.VOD
	for i, seg := range segments {
		duration := defaultSegmentDuration
		if i < len(durations) && durations[i] > 0 {
			duration = durations[i]
		}
		if err := pl.Append(seg, duration, ""); err != nil {
			return fmt.Errorf("local playlist: append segment %d: %w", i, err)
		}
	}
	pl.Close()

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, pl.Encode().Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write temp local playlist: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename local playlist: %w", err)
	}
	return nil
}
