//go:build linux

package pkg

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const testProcessInode = 777

// fdDir builds a directory of symlinks shaped like /proc/<pid>/fd.
func fdDir(t *testing.T, targets map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "fd")
	require.NoError(t, os.Mkdir(dir, 0755))
	for name, target := range targets {
		require.NoError(t, os.Symlink(target, filepath.Join(dir, name)))
	}
	return dir
}

func TestResolveDescriptorSocketAndPipe(t *testing.T) {
	dir := fdDir(t, map[string]string{
		"3": "socket:[12345]",
		"4": "pipe:[67890]",
	})

	d := ResolveDescriptor(testProcessInode, "3", dir, 0)
	assert.Equal(t, &Descriptor{Fd: 3, Kind: KindSocket, Inode: 12345, Target: "socket:[12345]"}, d)

	d = ResolveDescriptor(testProcessInode, "4", dir, 0)
	assert.Equal(t, &Descriptor{Fd: 4, Kind: KindPipe, Inode: 67890, Target: "pipe:[67890]"}, d)
}

func TestResolveDescriptorRegularFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "data.log")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	sub := t.TempDir()

	dir := fdDir(t, map[string]string{
		"0": "/dev/null",
		"5": file,
		"6": sub,
		"7": "/this/path/does/not/exist",
	})

	d := ResolveDescriptor(testProcessInode, "5", dir, 0)
	assert.Equal(t, KindFile, d.Kind)
	assert.Equal(t, file, d.Target)
	assert.Equal(t, inodeOf(t, file), d.Inode)

	d = ResolveDescriptor(testProcessInode, "0", dir, 0)
	assert.Equal(t, KindFile, d.Kind)
	assert.Equal(t, inodeOf(t, "/dev/null"), d.Inode)

	d = ResolveDescriptor(testProcessInode, "6", dir, 0)
	assert.Equal(t, inodeOf(t, sub), d.Inode)

	// dangling target falls back to the process inode
	d = ResolveDescriptor(testProcessInode, "7", dir, 0)
	assert.Equal(t, KindFile, d.Kind)
	assert.Equal(t, uint64(testProcessInode), d.Inode)
	assert.Equal(t, "/this/path/does/not/exist", d.Target)
}

func TestResolveDescriptorFifoFallsBack(t *testing.T) {
	fifo := filepath.Join(t.TempDir(), "fifo")
	require.NoError(t, unix.Mkfifo(fifo, 0600))
	dir := fdDir(t, map[string]string{"9": fifo})

	d := ResolveDescriptor(testProcessInode, "9", dir, 0)
	assert.Equal(t, KindFile, d.Kind)
	assert.Equal(t, uint64(testProcessInode), d.Inode)
}

func TestResolveDescriptorVanished(t *testing.T) {
	dir := fdDir(t, nil)

	d := ResolveDescriptor(testProcessInode, "11", dir, 0)
	assert.Equal(t, &Descriptor{Fd: 11, Kind: KindUnresolved, Inode: testProcessInode}, d)
}

// The read buffer bounds the target. A bracket that is cut off by the bound
// parses whatever digits made it into the buffer; nothing past it is read.
func TestResolveDescriptorTruncatedTarget(t *testing.T) {
	dir := fdDir(t, map[string]string{
		"3": "socket:[123456789]",
		"4": "pipe:[5]",
	})

	d := ResolveDescriptor(testProcessInode, "3", dir, 12)
	assert.True(t, d.Truncated)
	assert.Equal(t, "socket:[1234", d.Target)
	assert.Equal(t, KindSocket, d.Kind)
	assert.Equal(t, uint64(1234), d.Inode)

	d = ResolveDescriptor(testProcessInode, "3", dir, len(socketToken))
	assert.True(t, d.Truncated)
	assert.Equal(t, KindSocket, d.Kind)
	assert.Equal(t, uint64(testProcessInode), d.Inode)

	d = ResolveDescriptor(testProcessInode, "4", dir, 64)
	assert.False(t, d.Truncated)
	assert.Equal(t, uint64(5), d.Inode)
}

// An open file that has been unlinked still reads as a path, with the
// kernel's " (deleted)" suffix. That path names nothing, so the process inode
// is kept.
func TestResolveDescriptorDeletedTarget(t *testing.T) {
	if _, err := os.Stat("/proc/self/fd"); err != nil {
		t.Skip("no /proc")
	}
	file := filepath.Join(t.TempDir(), "gone")
	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, os.Remove(file))

	d := ResolveDescriptor(testProcessInode, strconv.Itoa(int(f.Fd())), "/proc/self/fd", 0)
	assert.Equal(t, KindFile, d.Kind)
	assert.True(t, strings.HasSuffix(d.Target, " (deleted)"), d.Target)
	assert.Equal(t, uint64(testProcessInode), d.Inode)
}

func TestResolveDescriptorTruncatedFileTarget(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a-rather-long-file-name.log")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	dir := fdDir(t, map[string]string{"3": file})

	d := ResolveDescriptor(testProcessInode, "3", dir, len(file))
	assert.True(t, d.Truncated)
	assert.Equal(t, KindFile, d.Kind)
	assert.Equal(t, uint64(testProcessInode), d.Inode)

	d = ResolveDescriptor(testProcessInode, "3", dir, len(file)+1)
	assert.False(t, d.Truncated)
	assert.Equal(t, inodeOf(t, file), d.Inode)
}
