package pkg

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"
)

// FillCommands sets Process.Command from the process name. Processes that
// exit in the meantime keep an empty command.
func FillCommands(ctx context.Context, processes []*Process) {
	fillCommands(ctx, processes, processName)
}

func fillCommands(ctx context.Context, processes []*Process, nameOf func(context.Context, int32) (string, error)) {
	for _, p := range processes {
		name, err := nameOf(ctx, int32(p.Pid))
		if err != nil {
			logrus.WithField("pid", p.Pid).WithError(err).Debugln("no command name")
			continue
		}
		p.Command = name
	}
}

func processName(ctx context.Context, pid int32) (string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", err
	}
	return p.NameWithContext(ctx)
}

func hostInfo(ctx context.Context) (hostname, kernel string) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		logrus.WithError(err).Debugln("host info unavailable")
		return "", ""
	}
	return info.Hostname, info.KernelVersion
}
