//go:build linux

package pkg

import (
	"golang.org/x/sys/unix"
)

// OpenDir opens path and returns a reader over its raw getdents64 records.
// The caller must Close it.
func OpenDir(path string) (*DirReader, error) {
	fd, err := openDirFd(path)
	if err != nil {
		return nil, &EnumerationError{Path: path, Err: err}
	}
	return dirReaderFromFd(path, fd), nil
}

func openDirFd(path string) (int, error) {
	for {
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
		if err == unix.EINTR {
			continue
		}
		return fd, err
	}
}

func dirReaderFromFd(path string, fd int) *DirReader {
	read := func(buf []byte) (int, error) {
		for {
			n, err := unix.Getdents(fd, buf)
			if err == unix.EINTR {
				continue
			}
			return n, err
		}
	}
	return newDirReader(path, read, func() error {
		return unix.Close(fd)
	})
}
