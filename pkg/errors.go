package pkg

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedPlatform = errors.New("descriptor scanning is only supported on linux")
	ErrProcessTimeout      = errors.New("process walk timed out")
)

// EnumerationError is returned when reading a directory fails outright.
type EnumerationError struct {
	Path string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate %s: %v", e.Path, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// UnreadableProcessError marks a process whose descriptor directory could not
// be opened, usually because it exited after discovery.
type UnreadableProcessError struct {
	Pid uint64
	Err error
}

func (e *UnreadableProcessError) Error() string {
	return fmt.Sprintf("process %d unreadable: %v", e.Pid, e.Err)
}

func (e *UnreadableProcessError) Unwrap() error { return e.Err }

// TruncatedStreamError is returned by Decode when the stream ends inside a record.
type TruncatedStreamError struct {
	Offset int64
	Field  string
}

func (e *TruncatedStreamError) Error() string {
	return fmt.Sprintf("truncated composite stream at offset %d reading %s", e.Offset, e.Field)
}
