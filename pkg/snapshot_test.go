package pkg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("snap.JSON"))
	assert.Equal(t, FormatBinary, FormatFromPath(BinaryOutName))
	assert.Equal(t, FormatBinary, FormatFromPath("noext"))

	f, err := ParseFormat("bin")
	require.NoError(t, err)
	assert.Equal(t, FormatBinary, f)
	f, err = ParseFormat("Json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestSnapshotJSONFile(t *testing.T) {
	snapshot := pipelineSnapshot()
	snapshot.TakenAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	snapshot.Hostname = "box"

	path := filepath.Join(t.TempDir(), "snap.json")
	written, err := snapshot.DumpFile(path, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pipe"`)

	loaded, err := LoadFile(path, FormatJSON)
	require.NoError(t, err)
	assert.True(t, snapshot.TakenAt.Equal(loaded.TakenAt))
	assert.Equal(t, "box", loaded.Hostname)
	assert.Equal(t, snapshot.Processes, loaded.Processes)
}

func TestSnapshotBinaryFile(t *testing.T) {
	snapshot := pipelineSnapshot()
	path := filepath.Join(t.TempDir(), BinaryOutName)

	_, err := snapshot.DumpFile(path, FormatBinary, WithHeader())
	require.NoError(t, err)

	loaded, err := LoadFile(path, FormatBinary)
	require.NoError(t, err)
	assert.False(t, loaded.TakenAt.IsZero())
	require.Len(t, loaded.Processes, 3)
	// the binary layout does not carry command names
	for i, p := range loaded.Processes {
		want := snapshot.Processes[i]
		assert.Equal(t, want.Pid, p.Pid)
		assert.Equal(t, want.Inode, p.Inode)
		assert.Empty(t, p.Command)
		assert.Equal(t, want.Descriptors, p.Descriptors)
	}
}

func TestLoadFileTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0644))

	_, err := LoadFile(path, FormatBinary)
	var truncated *TruncatedStreamError
	assert.ErrorAs(t, err, &truncated)
}
