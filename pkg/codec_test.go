package pkg

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProcesses() []*Process {
	return []*Process{
		{
			Pid:   1234,
			Inode: 99,
			Descriptors: []*Descriptor{
				{Fd: 0, Kind: KindFile, Inode: 5, Target: "/dev/null"},
				{Fd: 3, Kind: KindSocket, Inode: 12345, Target: "socket:[12345]"},
				{Fd: 4, Kind: KindPipe, Inode: 67890, Target: "pipe:[67890]"},
			},
		},
		{Pid: 1, Inode: 2, Descriptors: []*Descriptor{}},
		{
			Pid:   77,
			Inode: 700,
			Descriptors: []*Descriptor{
				{Fd: 9, Kind: KindUnresolved, Inode: 700},
			},
		},
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, header := range []bool{false, true} {
		var opts []EncodeOption
		if header {
			opts = append(opts, WithHeader())
		}
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, sampleProcesses(), opts...))

		got, err := Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, sampleProcesses(), got, "header=%v", header)
	}
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	assert.Zero(t, buf.Len())

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEncodeLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []*Process{{
		Pid:   7,
		Inode: 8,
		Descriptors: []*Descriptor{
			{Fd: 3, Inode: 12345, Target: "socket:[12345]"},
		},
	}}))

	b := buf.Bytes()
	require.Len(t, b, 6*8+len("socket:[12345]"))
	word := func(i int) uint64 { return binary.NativeEndian.Uint64(b[i*8:]) }
	assert.Equal(t, uint64(7), word(0))
	assert.Equal(t, uint64(8), word(1))
	assert.Equal(t, uint64(1), word(2))
	assert.Equal(t, uint64(3), word(3))
	assert.Equal(t, uint64(12345), word(4))
	assert.Equal(t, uint64(14), word(5))
	assert.Equal(t, "socket:[12345]", string(b[48:]))
}

func TestDecodeTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleProcesses()))
	full := buf.Bytes()

	// every prefix that does not end on a process boundary must fail whole
	boundaries := map[int]bool{0: true, len(full): true}
	first := 3*8 + 3*3*8 + len("/dev/null") + len("socket:[12345]") + len("pipe:[67890]")
	boundaries[first] = true
	boundaries[first+3*8] = true

	for n := 0; n < len(full); n++ {
		got, err := Decode(bytes.NewReader(full[:n]))
		if boundaries[n] {
			assert.NoError(t, err, "prefix %d", n)
			continue
		}
		var truncated *TruncatedStreamError
		if assert.ErrorAs(t, err, &truncated, "prefix %d", n) {
			assert.Equal(t, int64(n), truncated.Offset)
		}
		assert.Nil(t, got, "prefix %d", n)
	}
}

func TestDecodeHugeNameLength(t *testing.T) {
	var buf bytes.Buffer
	var word [8]byte
	for _, v := range []uint64{1, 2, 1, 3, 4, 1 << 40} {
		binary.NativeEndian.PutUint64(word[:], v)
		buf.Write(word[:])
	}
	buf.WriteString("abc")

	got, err := Decode(&buf)
	var truncated *TruncatedStreamError
	require.ErrorAs(t, err, &truncated)
	assert.Equal(t, "name bytes", truncated.Field)
	assert.Nil(t, got)
}

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestDecodeReadError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleProcesses()))
	boom := errors.New("boom")

	_, err := Decode(&failingReader{data: buf.Bytes()[:20], err: boom})
	assert.ErrorIs(t, err, boom)
	var truncated *TruncatedStreamError
	assert.False(t, errors.As(err, &truncated))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestEncodeWriteError(t *testing.T) {
	err := Encode(failingWriter{}, sampleProcesses())
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}
