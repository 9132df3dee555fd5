//go:build linux

package pkg

import (
	"math"

	"github.com/prometheus/procfs"
	"github.com/sirupsen/logrus"
)

// lookupOpenFilesLimit returns the soft RLIMIT_NOFILE of pid as reported by
// <procRoot>/<pid>/limits.
func lookupOpenFilesLimit(procRoot string, pid uint64) (uint64, bool) {
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return 0, false
	}
	proc, err := fs.Proc(int(pid))
	if err != nil {
		return 0, false
	}
	limits, err := proc.Limits()
	if err != nil {
		logrus.WithField("pid", pid).WithError(err).Debugln("no limits")
		return 0, false
	}
	n := uint64(limits.OpenFiles)
	if n == 0 || n == math.MaxUint64 {
		// unlimited
		return 0, false
	}
	return n, true
}
