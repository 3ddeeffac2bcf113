package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagar/hlsgrab/internal/model"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := Open(root, 7, "ts")
	require.NoError(t, err)
	return s, root
}

func TestOpen_IsIdempotent(t *testing.T) {
	s, root := openStore(t)
	assert.Equal(t, filepath.Join(root, ".temp", "7"), s.Dir())

	again, err := Open(root, 7, ".ts")
	require.NoError(t, err)
	assert.Equal(t, s.Dir(), again.Dir())
	assert.Equal(t, "00003.ts", again.BlobName(3))
}

func TestPut_OverwritesExistingBlob(t *testing.T) {
	s, _ := openStore(t)
	_, err := s.Put(0, []byte("first"))
	require.NoError(t, err)
	path, err := s.Put(0, []byte("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.NoFileExists(t, path+".tmp")
}

func TestManifest_WriteAndRead(t *testing.T) {
	s, _ := openStore(t)
	m, err := s.ReadManifest()
	require.NoError(t, err)
	assert.Nil(t, m, "absent manifest reads as nil without error")

	item := model.CatalogItem{Ordinal: 7, Title: "Intro"}
	require.NoError(t, s.WriteManifest(item, 3, []float64{4, 4, 2.5}))

	m, err = s.ReadManifest()
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 7, m.Ordinal)
	assert.Equal(t, "Intro", m.Title)
	assert.Equal(t, 3, m.SegmentCount)
	assert.Equal(t, []string{"00000.ts", "00001.ts", "00002.ts"}, m.Segments)
	assert.Equal(t, []float64{4, 4, 2.5}, m.Durations)
}

func TestOrderedPaths_ManifestTakesPrecedence(t *testing.T) {
	s, _ := openStore(t)
	for _, name := range []string{"a.ts", "b.ts"} {
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), name), []byte(name), 0644))
	}
	data, err := json.Marshal(model.Manifest{Ordinal: 7, SegmentCount: 2, Segments: []string{"b.ts", "a.ts"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), model.ManifestFileName), data, 0644))

	paths, err := s.OrderedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(s.Dir(), "b.ts"),
		filepath.Join(s.Dir(), "a.ts"),
	}, paths)
}

func TestOrderedPaths_FallbackSortsNumerically(t *testing.T) {
	s, _ := openStore(t)
	for _, name := range []string{"00002.ts", "00010.ts", "00001.ts", "notes.txt", "x.ts"} {
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), name), nil, 0644))
	}

	names, err := s.ListSegmentsFallback()
	require.NoError(t, err)
	assert.Equal(t, []string{"00001.ts", "00002.ts", "00010.ts"}, names)

	// Width is irrelevant to ordering.
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "9.ts"), nil, 0644))
	names, err = s.ListSegmentsFallback()
	require.NoError(t, err)
	assert.Equal(t, []string{"00001.ts", "00002.ts", "9.ts", "00010.ts"}, names)
}

func TestComplete(t *testing.T) {
	s, _ := openStore(t)
	assert.False(t, s.Complete(), "no manifest")

	item := model.CatalogItem{Ordinal: 7, Title: "t"}
	require.NoError(t, s.WriteManifest(item, 2, nil))
	_, err := s.Put(0, []byte("a"))
	require.NoError(t, err)
	assert.False(t, s.Complete(), "blob 1 missing")

	_, err = s.Put(1, []byte("b"))
	require.NoError(t, err)
	assert.True(t, s.Complete())
}

func TestClose(t *testing.T) {
	t.Run("keep", func(t *testing.T) {
		s, _ := openStore(t)
		_, err := s.Put(0, []byte("a"))
		require.NoError(t, err)
		require.NoError(t, s.Close(false))
		assert.FileExists(t, filepath.Join(s.Dir(), "00000.ts"))
	})

	t.Run("cleanup removes directory", func(t *testing.T) {
		s, root := openStore(t)
		require.NoError(t, s.WriteManifest(model.CatalogItem{Ordinal: 7}, 2, nil))
		for i := range 2 {
			_, err := s.Put(i, []byte("x"))
			require.NoError(t, err)
		}
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), model.LocalPlaylist), []byte("#EXTM3U"), 0644))

		require.NoError(t, s.Close(true))
		assert.NoDirExists(t, s.Dir())
		assert.NoDirExists(t, filepath.Join(root, model.TempDirName))
	})

	t.Run("cleanup leaves foreign files", func(t *testing.T) {
		s, _ := openStore(t)
		_, err := s.Put(0, []byte("x"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "keep.me"), nil, 0644))

		require.NoError(t, s.Close(true))
		assert.NoFileExists(t, filepath.Join(s.Dir(), "00000.ts"))
		assert.FileExists(t, filepath.Join(s.Dir(), "keep.me"))
	})
}
