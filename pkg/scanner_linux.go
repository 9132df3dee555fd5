//go:build linux

package pkg

import (
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// ScanProcesses lists the processes under opts.ProcRoot. Only entries whose
// name is all digits are considered, and unless AllUsers is set only those
// owned by opts.UID. A failure to read the root itself is fatal.
func ScanProcesses(opts ScanOptions) ([]*Process, error) {
	root := opts.ProcRoot
	if root == "" {
		root = DefaultProcRoot
	}
	ownerOf := opts.ownerOf
	if ownerOf == nil {
		ownerOf = entryOwner
	}

	fd, err := openDirFd(root)
	if err != nil {
		return nil, &EnumerationError{Path: root, Err: err}
	}
	dir := dirReaderFromFd(root, fd)
	defer dir.Close()

	processes := []*Process{}
	for dir.Next() {
		ent := dir.Entry()
		if !isNumber(ent.Name) {
			continue
		}
		pid, err := strconv.ParseUint(ent.Name, 10, 64)
		if err != nil {
			logrus.WithField("name", ent.Name).WithError(err).Debugln("skip unparsable pid")
			continue
		}
		if opts.FilterPid != 0 && pid != opts.FilterPid {
			continue
		}
		if !opts.AllUsers {
			uid, err := ownerOf(fd, ent.Name)
			if err != nil {
				logrus.WithField("pid", pid).WithError(err).Debugln("skip process without owner")
				continue
			}
			if uid != opts.UID {
				continue
			}
		}

		processes = append(processes, &Process{
			Pid:         pid,
			Inode:       ent.Inode,
			Descriptors: []*Descriptor{},
		})
		if opts.FilterPid != 0 {
			break
		}
	}
	if err := dir.Err(); err != nil {
		return nil, err
	}
	return processes, nil
}

func entryOwner(dirfd int, name string) (uint32, error) {
	var st unix.Stat_t
	if err := unix.Fstatat(dirfd, name, &st, unix.AT_SYMLINK_NOFOLLOW); err != nil {
		return 0, err
	}
	return st.Uid, nil
}
