package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagar/hlsgrab/internal/model"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_SortsByOrdinal(t *testing.T) {
	path := writeCatalog(t, `{
		"course": "Go Basics",
		"session": {"cookie": "sid=abc", "headers": {"Authorization": "Bearer x"}},
		"items": [
			{"ordinal": 3, "title": "Three", "playlistUrl": "https://cdn.example.com/3/master.m3u8"},
			{"ordinal": 1, "title": "One", "playlistUrl": "https://cdn.example.com/1/master.m3u8",
			 "capturedBodies": {"https://cdn.example.com/1/master.m3u8": "#EXTM3U\nseg.ts\n"}},
			{"ordinal": 2, "title": "Two", "playlistUrl": "https://cdn.example.com/2/master.m3u8"}
		]
	}`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Go Basics", c.Course)
	assert.True(t, c.HasSession())
	require.Len(t, c.Items, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{c.Items[0].Ordinal, c.Items[1].Ordinal, c.Items[2].Ordinal})
	assert.Contains(t, c.Items[0].CapturedBodies, "https://cdn.example.com/1/master.m3u8")
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no items", `{"items": []}`},
		{"zero ordinal", `{"items": [{"ordinal": 0, "playlistUrl": "https://a.example/x.m3u8"}]}`},
		{"missing url", `{"items": [{"ordinal": 1}]}`},
		{"relative url", `{"items": [{"ordinal": 1, "playlistUrl": "x.m3u8"}]}`},
		{"duplicate ordinal", `{"items": [
			{"ordinal": 1, "playlistUrl": "https://a.example/1.m3u8"},
			{"ordinal": 1, "playlistUrl": "https://a.example/2.m3u8"}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"items": [`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCatalog)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestHasSession(t *testing.T) {
	assert.False(t, (&Catalog{}).HasSession())
	assert.False(t, (&Catalog{Session: &model.Session{}}).HasSession())
	assert.True(t, (&Catalog{Session: &model.Session{Cookie: "a=b"}}).HasSession())
}

func TestRemaining(t *testing.T) {
	items := []model.CatalogItem{{Ordinal: 1}, {Ordinal: 2}, {Ordinal: 3}}
	got := Remaining(items, model.Progress{Completed: []int{2}, Total: 3})
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Ordinal)
	assert.Equal(t, 3, got[1].Ordinal)

	assert.Empty(t, Remaining(items, model.Progress{Completed: []int{1, 2, 3}}))
}
