//go:build linux

package pkg

import (
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
)

// AttachDescriptors walks <procRoot>/<pid>/fd and replaces p.Descriptors with
// the resolved entries. It only classifies failures: an unopenable directory
// is an *UnreadableProcessError and the caller decides whether that is fatal.
func AttachDescriptors(procRoot string, p *Process, bufSize int) error {
	descriptors, err := readDescriptors(procRoot, p, bufSize)
	if err != nil {
		return err
	}
	p.Descriptors = descriptors
	return nil
}

func readDescriptors(procRoot string, p *Process, bufSize int) ([]*Descriptor, error) {
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}
	dirPath := filepath.Join(procRoot, strconv.FormatUint(p.Pid, 10), "fd")
	dir, err := OpenDir(dirPath)
	if err != nil {
		return nil, &UnreadableProcessError{Pid: p.Pid, Err: err}
	}
	defer dir.Close()

	descriptors := []*Descriptor{}
	seen := map[string]struct{}{}
	for dir.Next() {
		ent := dir.Entry()
		if !isNumber(ent.Name) {
			continue
		}
		// a directory that changes between reads may repeat an entry
		if _, ok := seen[ent.Name]; ok {
			continue
		}
		seen[ent.Name] = struct{}{}
		descriptors = append(descriptors, ResolveDescriptor(p.Inode, ent.Name, dirPath, bufSize))
	}
	if err := dir.Err(); err != nil {
		logrus.WithField("pid", p.Pid).WithError(err).Debugln("process went away during descriptor walk")
		return []*Descriptor{}, nil
	}
	return descriptors, nil
}
