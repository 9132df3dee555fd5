//go:build linux

package pkg

import (
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// ResolveDescriptor reads the target of dirPath/name and resolves it to an
// inode. It never fails: anything that cannot be resolved keeps processInode.
//
// The target string is read first and decides everything: the kind, and for
// ordinary files the path that is stat'ed for the inode. A deleted target
// ("/x (deleted)") or a truncated one does not name the file and keeps
// processInode.
func ResolveDescriptor(processInode uint64, name, dirPath string, bufSize int) *Descriptor {
	if bufSize <= 0 {
		bufSize = DefaultTargetBufferSize
	}

	d := &Descriptor{
		Kind:  KindUnresolved,
		Inode: processInode,
	}
	if fd, err := strconv.ParseUint(name, 10, 64); err == nil {
		d.Fd = fd
	}

	path := filepath.Join(dirPath, name)
	log := logrus.WithField("path", path)

	buf := make([]byte, bufSize)
	n, err := unix.Readlink(path, buf)
	if err != nil {
		log.WithError(err).Debugln("descriptor target unreadable")
		return d
	}
	d.Target = string(buf[:n])
	if n == len(buf) {
		d.Truncated = true
		log.WithField("limit", bufSize).Debugln("descriptor target truncated")
	}

	kind, inode, ok := ClassifyTarget(d.Target)
	d.Kind = kind
	if kind != KindFile {
		if ok {
			d.Inode = inode
		} else {
			log.WithField("target", d.Target).Debugln("no inode in target, using process inode")
		}
		return d
	}

	if d.Truncated {
		return d
	}
	inode, err = statTargetInode(d.Target)
	if err != nil {
		log.WithError(err).Debugln("target status unavailable, using process inode")
		return d
	}
	d.Inode = inode
	return d
}

func statTargetInode(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFDIR, unix.S_IFREG, unix.S_IFCHR, unix.S_IFBLK, unix.S_IFLNK:
		return uint64(st.Ino), nil
	}
	return 0, errors.Errorf("unexpected target type %#o", st.Mode&unix.S_IFMT)
}
