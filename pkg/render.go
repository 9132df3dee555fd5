package pkg

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

type View string

const (
	ViewPerProcess View = "per-process"
	ViewSystemWide View = "system-wide"
	ViewVnodes     View = "vnodes"
	ViewComposite  View = "composite"
)

// RenderTable prints one of the tabular projections of the composite table.
func RenderTable(w io.Writer, view View, processes []*Process) error {
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)

	u := strconv.FormatUint
	switch view {
	case ViewPerProcess:
		table.SetHeader([]string{"PID", "FD"})
		for _, p := range processes {
			for _, d := range p.Descriptors {
				table.Append([]string{u(p.Pid, 10), u(d.Fd, 10)})
			}
		}
	case ViewSystemWide:
		table.SetHeader([]string{"PID", "FD", "Filename"})
		for _, p := range processes {
			for _, d := range p.Descriptors {
				table.Append([]string{u(p.Pid, 10), u(d.Fd, 10), d.Target})
			}
		}
	case ViewVnodes:
		table.SetHeader([]string{"PID", "Inode"})
		for _, p := range processes {
			for _, d := range p.Descriptors {
				table.Append([]string{u(p.Pid, 10), u(d.Inode, 10)})
			}
		}
	case ViewComposite:
		table.SetHeader([]string{"#", "PID", "FD", "Filename", "Kind", "Inode"})
		row := 0
		for _, p := range processes {
			for _, d := range p.Descriptors {
				row++
				table.Append([]string{strconv.Itoa(row), u(p.Pid, 10), u(d.Fd, 10), d.Target, d.Kind.String(), u(d.Inode, 10)})
			}
		}
	default:
		return errors.Errorf("unknown view %q", view)
	}
	table.Render()
	return nil
}

// WriteCompositeText saves the composite table as text.
func WriteCompositeText(path string, processes []*Process) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create text output")
	}
	defer f.Close()
	if err := RenderTable(f, ViewComposite, processes); err != nil {
		return err
	}
	return errors.Wrap(f.Close(), "close text output")
}

// Offenders returns the processes holding more than threshold descriptors.
func Offenders(processes []*Process, threshold int) []*Process {
	var offenders []*Process
	for _, p := range processes {
		if p.Size() > threshold {
			offenders = append(offenders, p)
		}
	}
	return offenders
}

// RenderOffenders prints "pid (count)" per offender, or "pid (count/limit)"
// when limitOf knows the soft open-files limit.
func RenderOffenders(w io.Writer, offenders []*Process, limitOf func(pid uint64) (uint64, bool)) {
	fmt.Fprintln(w, "## Offending processes:")
	if len(offenders) == 0 {
		fmt.Fprintln(w, "None!")
		return
	}
	parts := make([]string, 0, len(offenders))
	for _, p := range offenders {
		if limitOf != nil {
			if limit, ok := limitOf(p.Pid); ok {
				parts = append(parts, fmt.Sprintf("%d (%d/%d)", p.Pid, p.Size(), limit))
				continue
			}
		}
		parts = append(parts, fmt.Sprintf("%d (%d)", p.Pid, p.Size()))
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
}

// OpenFilesLimits returns a limit lookup reading <procRoot>/<pid>/limits.
func OpenFilesLimits(procRoot string) func(pid uint64) (uint64, bool) {
	return func(pid uint64) (uint64, bool) {
		return lookupOpenFilesLimit(procRoot, pid)
	}
}
