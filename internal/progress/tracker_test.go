package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagar/hlsgrab/internal/model"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	p, err := New(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Empty(t, p.Completed)
	assert.Zero(t, p.Total)
}

func TestLoad_CorruptFileIsEmptyWithWarning(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, model.ProgressFileName), []byte("{not json"), 0644))

	p, err := New(root).Load()
	assert.ErrorIs(t, err, model.ErrProgressStateCorrupt)
	assert.Empty(t, p.Completed)
}

func TestMarkDone_PersistsAndReturnsNewState(t *testing.T) {
	tr := New(t.TempDir())

	p, err := tr.MarkDone(3, 5)
	require.NoError(t, err)
	assert.True(t, p.IsDone(3))
	assert.Equal(t, 5, p.Total)

	_, err = tr.MarkDone(1, 6)
	require.NoError(t, err)
	p, err = tr.MarkDone(3, 6)
	require.NoError(t, err)

	data, err := os.ReadFile(tr.Path())
	require.NoError(t, err)
	var onDisk model.Progress
	require.NoError(t, json.Unmarshal(data, &onDisk), "state file is JSON")
	assert.Equal(t, []int{1, 3}, onDisk.Completed)
	assert.Equal(t, 6, onDisk.Total)
	assert.Equal(t, 6, p.Total)
	assert.NoFileExists(t, tr.Path()+".tmp")
}

func TestMarkDone_RecoversFromCorruptState(t *testing.T) {
	tr := New(t.TempDir())
	require.NoError(t, os.WriteFile(tr.Path(), []byte("garbage"), 0644))

	p, err := tr.MarkDone(2, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, p.Completed)

	_, err = tr.Load()
	assert.NoError(t, err, "state is valid again after MarkDone")
}
