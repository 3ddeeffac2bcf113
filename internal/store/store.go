// Package store keeps the fetched segments of one item on disk together with the
// manifest that fixes their merge order.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/jmagar/hlsgrab/internal/model"
)

// Store is the temp directory of a single catalog item.
type Store struct {
	dir     string
	ordinal int
	ext     string
}

// Dir returns the temp directory path for ordinal under root.
func Dir(root string, ordinal int) string {
	return filepath.Join(root, model.TempDirName, strconv.Itoa(ordinal))
}

// Open creates <root>/.temp/<ordinal> if needed. Calling it again is harmless.
func Open(root string, ordinal int, ext string) (*Store, error) {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = model.DefaultSegmentExt
	}
	dir := Dir(root, ordinal)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &Store{dir: dir, ordinal: ordinal, ext: ext}, nil
}

// Dir returns the item's temp directory.
func (s *Store) Dir() string { return s.dir }

// BlobName returns the zero-padded filename of segment index.
func (s *Store) BlobName(index int) string {
	return fmt.Sprintf("%0*d.%s", model.SegmentPadWidth, index, s.ext)
}

// Put writes segment index, replacing any earlier copy.
func (s *Store) Put(index int, data []byte) (string, error) {
	path := filepath.Join(s.dir, s.BlobName(index))
	if err := writeAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write segment %d: %w", index, err)
	}
	return path, nil
}

// WriteManifest records the merge order for count segments.
func (s *Store) WriteManifest(item model.CatalogItem, count int, durations []float64) error {
	m := model.Manifest{
		Ordinal:      item.Ordinal,
		Title:        item.Title,
		SegmentCount: count,
		Segments:     make([]string, count),
	}
	for i := range count {
		m.Segments[i] = s.BlobName(i)
	}
	if len(durations) == count {
		m.Durations = slices.Clone(durations)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := writeAtomic(s.manifestPath(), data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest returns (nil, nil) when no manifest has been written.
func (s *Store) ReadManifest() (*model.Manifest, error) {
	data, err := os.ReadFile(s.manifestPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m model.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// ListSegmentsFallback lists blob names sorted by the number in their name.
// Only used when the manifest is missing.
func (s *Store) ListSegmentsFallback() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	type blob struct {
		name string
		n    int
	}
	var blobs []blob
	suffix := "." + s.ext
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, suffix))
		if err != nil {
			continue
		}
		blobs = append(blobs, blob{name: name, n: n})
	}
	slices.SortFunc(blobs, func(a, b blob) int { return a.n - b.n })

	names := make([]string, len(blobs))
	for i, b := range blobs {
		names[i] = b.name
	}
	return names, nil
}

// OrderedPaths returns the blob paths in merge order: manifest first, listing otherwise.
func (s *Store) OrderedPaths() ([]string, error) {
	m, err := s.ReadManifest()
	if err != nil {
		return nil, err
	}
	var names []string
	if m != nil {
		names = m.Segments
	} else {
		names, err = s.ListSegmentsFallback()
		if err != nil {
			return nil, err
		}
	}
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(s.dir, n)
	}
	return paths, nil
}

// Complete reports whether a non-empty manifest exists and every blob it names is on disk.
func (s *Store) Complete() bool {
	m, err := s.ReadManifest()
	if err != nil || m == nil || len(m.Segments) == 0 || len(m.Segments) != m.SegmentCount {
		return false
	}
	for _, name := range m.Segments {
		info, err := os.Stat(filepath.Join(s.dir, name))
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}

// Close removes the blobs, manifest and local playlist when cleanup is set,
// then the directory itself if nothing else is left in it.
func (s *Store) Close(cleanup bool) error {
	if !cleanup {
		return nil
	}
	names, err := s.ListSegmentsFallback()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if m, err := s.ReadManifest(); err == nil && m != nil {
		names = append(names, m.Segments...)
	}
	names = append(names, model.ManifestFileName, model.LocalPlaylist)

	var errs []error
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	entries, err := os.ReadDir(s.dir)
	if err == nil && len(entries) == 0 {
		if err := os.Remove(s.dir); err != nil {
			return err
		}
		// Drop .temp too once the last item is gone.
		_ = os.Remove(filepath.Dir(s.dir))
	}
	return nil
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.dir, model.ManifestFileName)
}

func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
