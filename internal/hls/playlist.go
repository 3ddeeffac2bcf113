// Package hls parses HLS master and media playlists and picks the media playlist to download.
// Master playlists are decoded with grafov/m3u8; media playlists are walked line by line
// because segments are recognised by their file extension alone.
// Nothing in this package performs I/O on its own; bodies are either supplied by the caller
// or fetched through an injected function.
package hls

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/grafov/m3u8"

	"github.com/jmagar/hlsgrab/internal/model"
)

const (
	tagPrefix = "#"
	extinfTag = "#EXTINF:"
)

// Segment is one media segment reference with its advertised duration (0 if absent).
type Segment struct {
	URL      string
	Duration float64
}

// ParseMediaPlaylist returns the segment URLs of a media playlist in document order,
// using the default ".ts" segment extension.
func ParseMediaPlaylist(text, baseURL string) ([]string, error) {
	segs, err := ParseMediaSegments(text, baseURL, model.DefaultSegmentExt)
	if err != nil {
		return nil, err
	}
	return segmentURLs(segs), nil
}

// ParseMediaSegments walks a media playlist and returns every line whose path ends in ext,
// resolved against baseURL. Zero segments is not an error.
func ParseMediaSegments(text, baseURL, ext string) ([]Segment, error) {
	if err := checkPayload(text); err != nil {
		return nil, err
	}
	ext = normalizeExt(ext)

	var (
		segs     []Segment
		duration float64
	)
	for _, line := range splitLines(text) {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, tagPrefix) {
			if strings.HasPrefix(line, extinfTag) {
				duration = parseExtinf(line)
			}
			continue
		}
		if !hasSegmentExt(line, ext) {
			continue
		}
		segs = append(segs, Segment{URL: resolveRef(baseURL, line), Duration: duration})
		duration = 0
	}
	return segs, nil
}

// ParseVariants lists the stream variants of a master playlist by descending
// bandwidth. Variants with equal bandwidth keep document order. A missing or
// unparsable BANDWIDTH counts as 0. I-frame streams are skipped. Anything that
// does not decode as a master playlist has no variants.
func ParseVariants(masterText, masterURL string) []model.Variant {
	pl, listType, err := m3u8.DecodeFrom(strings.NewReader(compactLines(masterText)), false)
	if err != nil || listType != m3u8.MASTER {
		return nil
	}
	master, ok := pl.(*m3u8.MasterPlaylist)
	if !ok {
		return nil
	}
	var variants []model.Variant
	for _, v := range master.Variants {
		if v == nil || v.Iframe || strings.TrimSpace(v.URI) == "" {
			continue
		}
		variants = append(variants, model.Variant{
			URL:        resolveRef(masterURL, strings.TrimSpace(v.URI)),
			Bandwidth:  int(v.Bandwidth),
			Resolution: v.Resolution,
		})
	}
	slices.SortStableFunc(variants, func(a, b model.Variant) int {
		return b.Bandwidth - a.Bandwidth
	})
	return variants
}

// IsMediaPlaylist reports whether text lists at least one segment with extension ext.
func IsMediaPlaylist(text, ext string) bool {
	ext = normalizeExt(ext)
	for _, line := range splitLines(text) {
		if line == "" || strings.HasPrefix(line, tagPrefix) {
			continue
		}
		if hasSegmentExt(line, ext) {
			return true
		}
	}
	return false
}

func checkPayload(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: empty body", model.ErrMalformedPlaylist)
	}
	if strings.ContainsRune(text, 0) || !utf8.ValidString(text) {
		return fmt.Errorf("%w: body is not text", model.ErrMalformedPlaylist)
	}
	return nil
}

// compactLines drops blank lines, which the master decoder would otherwise take
// as an empty variant URI.
func compactLines(text string) string {
	return strings.Join(slices.DeleteFunc(splitLines(text), func(l string) bool { return l == "" }), "\n")
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		ext = model.DefaultSegmentExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// hasSegmentExt checks the path part only, so signed query strings do not hide the extension.
func hasSegmentExt(line, ext string) bool {
	return strings.HasSuffix(strings.ToLower(stripQuery(line)), ext)
}

func stripQuery(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i]
	}
	return ref
}

func resolveRef(base, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() || base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(u).String()
}

func parseExtinf(line string) float64 {
	value := strings.TrimPrefix(line, extinfTag)
	if i := strings.Index(value, ","); i >= 0 {
		value = value[:i]
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func segmentURLs(segs []Segment) []string {
	urls := make([]string, len(segs))
	for i, s := range segs {
		urls[i] = s.URL
	}
	return urls
}
