package pkg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// two shells connected by a pipe, one of them also holding a socket and a
// file whose status could not be read
func pipelineSnapshot() *Snapshot {
	snapshot := NewSnapshot()
	snapshot.Processes = []*Process{
		{
			Pid: 10, Inode: 100, Command: "sh",
			Descriptors: []*Descriptor{
				{Fd: 1, Kind: KindPipe, Inode: 500, Target: "pipe:[500]"},
				{Fd: 3, Kind: KindSocket, Inode: 600, Target: "socket:[600]"},
				{Fd: 4, Kind: KindFile, Inode: 100, Target: "/gone"},
				{Fd: 5, Kind: KindUnresolved, Inode: 100},
			},
		},
		{
			Pid: 11, Inode: 110, Command: "grep",
			Descriptors: []*Descriptor{
				{Fd: 0, Kind: KindPipe, Inode: 500, Target: "pipe:[500]"},
				{Fd: 2, Kind: KindFile, Inode: 42, Target: "/dev/pts/0"},
			},
		},
		{
			Pid: 12, Inode: 120, Command: "cat",
			Descriptors: []*Descriptor{
				{Fd: 0, Kind: KindFile, Inode: 42, Target: "/dev/pts/0"},
				{Fd: 1, Kind: KindFile, Inode: 42, Target: "/dev/pts/0"},
			},
		},
	}
	return snapshot
}

func TestTopoSharedResources(t *testing.T) {
	topo := NewTopo(pipelineSnapshot().Processes)

	shared := topo.SharedResources()
	assert.Equal(t, []ResourceKey{
		{Kind: KindFile, Inode: 42},
		{Kind: KindPipe, Inode: 500},
	}, shared.Slice())

	assert.Equal(t, []uint64{10, 11}, topo.Holders(ResourceKey{Kind: KindPipe, Inode: 500}))
	assert.Equal(t, []uint64{11, 12}, topo.Holders(ResourceKey{Kind: KindFile, Inode: 42}))
	assert.Equal(t, []uint64{10}, topo.Holders(ResourceKey{Kind: KindSocket, Inode: 600}))
	assert.Nil(t, topo.Holders(ResourceKey{Kind: KindFile, Inode: 100}))
}

func TestTopoNodes(t *testing.T) {
	topo := NewTopo(pipelineSnapshot().Processes)
	// three processes, pipe, socket and tty; the duplicate process is ignored
	topo.AddProcess(&Process{Pid: 10})
	assert.Equal(t, 6, topo.Graph().Nodes().Len())
	assert.Equal(t, 5, topo.Graph().Edges().Len())
}

func TestDotRender(t *testing.T) {
	topo := NewTopo(pipelineSnapshot().Processes)
	r := NewDotRender()
	defer r.Close()

	var buf bytes.Buffer
	require.NoError(t, r.Render(topo, &buf))
	out := buf.String()
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "p10")
	assert.Contains(t, out, "pipe500")
	assert.Contains(t, out, "red")
}

func TestResourceSetJSON(t *testing.T) {
	set := NewResourceSet()
	set.Add(ResourceKey{Kind: KindSocket, Inode: 3})
	set.Add(ResourceKey{Kind: KindPipe, Inode: 9})
	assert.False(t, set.Add(ResourceKey{Kind: KindPipe, Inode: 9}))

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"kind":"pipe","inode":9},{"kind":"socket","inode":3}]`, string(data))

	var got ResourceSet
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2, got.Len())
	assert.True(t, got.Contains(ResourceKey{Kind: KindSocket, Inode: 3}))
}
