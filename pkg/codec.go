package pkg

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Binary layout of the composite table, in native byte order and without
// padding, one record per process:
//
//	pid | process inode | descriptor count            (uint64 each)
//	  fd | inode | name length | name bytes           (per descriptor)
//
// Name bytes are written as-is without a terminator. The stream has no
// header unless the writer opts into WithHeader, and it is only portable
// between machines of the same byte order.

var binaryMagic = []byte("FDTOPO\x00\x01")

// names up to this length are read into a buffer sized up front; longer
// claims are copied incrementally so a corrupt length cannot force a huge
// allocation before the stream runs out
const maxPreallocName = 64 << 10

type encodeOptions struct {
	header bool
}

type EncodeOption func(*encodeOptions)

// WithHeader prefixes the stream with a magic/version tag. Decode accepts
// both forms.
func WithHeader() EncodeOption {
	return func(o *encodeOptions) {
		o.header = true
	}
}

func Encode(w io.Writer, processes []*Process, opts ...EncodeOption) error {
	o := &encodeOptions{}
	for _, opt := range opts {
		opt(o)
	}

	bw := bufio.NewWriter(w)
	var word [8]byte
	put := func(v uint64) {
		binary.NativeEndian.PutUint64(word[:], v)
		_, _ = bw.Write(word[:])
	}

	if o.header {
		_, _ = bw.Write(binaryMagic)
	}
	for _, p := range processes {
		put(p.Pid)
		put(p.Inode)
		put(uint64(len(p.Descriptors)))
		for _, d := range p.Descriptors {
			put(d.Fd)
			put(d.Inode)
			put(uint64(len(d.Target)))
			_, _ = bw.WriteString(d.Target)
		}
	}
	// bufio keeps the first write error and reports it here
	return errors.Wrap(bw.Flush(), "write composite stream")
}

// Decode reads processes until the end of r. A stream that ends anywhere but
// on a record boundary yields a *TruncatedStreamError and no processes.
func Decode(r io.Reader) ([]*Process, error) {
	d := &decoder{r: bufio.NewReader(r)}
	if err := d.skipHeader(); err != nil {
		return nil, err
	}

	processes := []*Process{}
	for {
		p, err := d.process()
		if err == io.EOF {
			return processes, nil
		}
		if err != nil {
			return nil, err
		}
		processes = append(processes, p)
	}
}

type decoder struct {
	r    *bufio.Reader
	off  int64
	word [8]byte
}

func (d *decoder) skipHeader() error {
	head, err := d.r.Peek(len(binaryMagic))
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "read composite stream")
	}
	if bytes.Equal(head, binaryMagic) {
		n, _ := d.r.Discard(len(binaryMagic))
		d.off += int64(n)
	}
	return nil
}

// process returns io.EOF only when the stream ends cleanly before a record.
func (d *decoder) process() (*Process, error) {
	n, err := io.ReadFull(d.r, d.word[:])
	d.off += int64(n)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, d.fail("pid", err)
	}

	p := &Process{Pid: binary.NativeEndian.Uint64(d.word[:])}
	if p.Inode, err = d.word64("process inode"); err != nil {
		return nil, err
	}
	count, err := d.word64("descriptor count")
	if err != nil {
		return nil, err
	}

	p.Descriptors = []*Descriptor{}
	for i := uint64(0); i < count; i++ {
		desc := &Descriptor{}
		if desc.Fd, err = d.word64("fd"); err != nil {
			return nil, err
		}
		if desc.Inode, err = d.word64("inode"); err != nil {
			return nil, err
		}
		size, err := d.word64("name length")
		if err != nil {
			return nil, err
		}
		if desc.Target, err = d.name(size); err != nil {
			return nil, err
		}
		desc.Kind = decodedKind(desc.Target)
		p.Descriptors = append(p.Descriptors, desc)
	}
	return p, nil
}

func (d *decoder) word64(field string) (uint64, error) {
	n, err := io.ReadFull(d.r, d.word[:])
	d.off += int64(n)
	if err != nil {
		return 0, d.fail(field, err)
	}
	return binary.NativeEndian.Uint64(d.word[:]), nil
}

func (d *decoder) name(size uint64) (string, error) {
	if size <= maxPreallocName {
		buf := make([]byte, size)
		n, err := io.ReadFull(d.r, buf)
		d.off += int64(n)
		if err != nil {
			return "", d.fail("name bytes", err)
		}
		return string(buf), nil
	}
	if size > math.MaxInt64 {
		return "", &TruncatedStreamError{Offset: d.off, Field: "name bytes"}
	}

	var sb strings.Builder
	n, err := io.CopyN(&sb, d.r, int64(size))
	d.off += n
	if err != nil {
		return "", d.fail("name bytes", err)
	}
	return sb.String(), nil
}

func (d *decoder) fail(field string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &TruncatedStreamError{Offset: d.off, Field: field}
	}
	return errors.Wrapf(err, "read %s", field)
}

func decodedKind(target string) TargetKind {
	if target == "" {
		return KindUnresolved
	}
	kind, _, _ := ClassifyTarget(target)
	return kind
}
