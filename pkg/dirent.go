package pkg

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// DirentBufferSize bounds a single getdents read. Directories larger than this
// are read in several calls; each call is a best-effort snapshot.
const DirentBufferSize = 8 << 10

// linux_dirent64: d_ino u64, d_off s64, d_reclen u16, d_type u8, d_name.
const direntHeaderSize = 19

var errMalformedDirent = errors.New("malformed dirent record")

type Dirent struct {
	Name   string
	Inode  uint64
	RecLen uint16
	Type   uint8
}

// DirReader is a lazy, non-restartable sequence of directory entries.
// Entries "." and ".." are yielded like any other; callers filter.
type DirReader struct {
	path  string
	read  func(buf []byte) (int, error)
	close func() error

	buf   []byte
	pos   int
	n     int
	entry Dirent
	err   error
	done  bool
}

func newDirReader(path string, read func([]byte) (int, error), close func() error) *DirReader {
	return &DirReader{
		path:  path,
		read:  read,
		close: close,
		buf:   make([]byte, DirentBufferSize),
	}
}

func (r *DirReader) Path() string {
	return r.path
}

// Next advances to the next entry. It returns false at the end of the
// directory or on error; check Err afterwards.
func (r *DirReader) Next() bool {
	if r.err != nil || r.done {
		return false
	}
	for {
		if r.pos >= r.n {
			n, err := r.read(r.buf)
			if err != nil {
				r.err = &EnumerationError{Path: r.path, Err: err}
				return false
			}
			if n <= 0 {
				r.done = true
				return false
			}
			r.pos, r.n = 0, n
		}

		ent, err := parseDirent(r.buf[r.pos:r.n])
		if err != nil {
			r.err = &EnumerationError{Path: r.path, Err: err}
			return false
		}
		r.pos += int(ent.RecLen)
		if ent.Inode == 0 {
			// slot of a removed entry
			continue
		}
		r.entry = ent
		return true
	}
}

func (r *DirReader) Entry() Dirent {
	return r.entry
}

func (r *DirReader) Err() error {
	return r.err
}

func (r *DirReader) Close() error {
	if r.close == nil {
		return nil
	}
	c := r.close
	r.close = nil
	return c()
}

func parseDirent(rec []byte) (Dirent, error) {
	if len(rec) < direntHeaderSize {
		return Dirent{}, errMalformedDirent
	}
	reclen := binary.NativeEndian.Uint16(rec[16:18])
	if int(reclen) < direntHeaderSize || int(reclen) > len(rec) {
		return Dirent{}, errMalformedDirent
	}
	name := rec[direntHeaderSize:reclen]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return Dirent{
		Name:   string(name),
		Inode:  binary.NativeEndian.Uint64(rec[0:8]),
		RecLen: reclen,
		Type:   rec[18],
	}, nil
}

// isNumber reports whether name is a non-empty run of decimal digits.
func isNumber(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}
