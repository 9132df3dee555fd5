package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/FFengIll/fdtopo/pkg"
)

var rootCmd = &cobra.Command{
	Use:           "fdtopo [pid]",
	Short:         "List open file descriptors per process and resolve what they point at",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			pid, err := parsePid(args[0])
			if err != nil {
				return err
			}
			config.Pid = pid
		}

		snapshot, err := pkg.TakeSnapshot(cmd.Context(), config)
		if err != nil {
			return err
		}
		return present(cmd.OutOrStdout(), config, snapshot, pkg.OpenFilesLimits(config.ProcRoot))
	},
}

var (
	configPath string
	verbose    bool
	flagConfig = pkg.NewConfig()
	noMetadata bool
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(reloadCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "yaml config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	flags.StringVar(&flagConfig.ProcRoot, "proc-root", pkg.DefaultProcRoot, "process root directory")
	flags.BoolVar(&flagConfig.AllUsers, "all-users", false, "include processes owned by other users")
	flags.BoolVar(&noMetadata, "no-metadata", false, "skip command names and host details")
	flags.IntVar(&flagConfig.TargetBufferSize, "buffer-size", pkg.DefaultTargetBufferSize, "max bytes read per descriptor target")
	flags.IntVar(&flagConfig.Workers, "workers", 1, "processes walked concurrently")
	flags.DurationVar(&flagConfig.ProcessTimeout, "timeout", 0, "per-process walk timeout (0 = none)")
	flags.BoolVar(&flagConfig.FailOnUnreadable, "strict", false, "fail when a process cannot be read")

	flags.BoolVar(&flagConfig.PerProcess, "per-process", false, "show the per-process table")
	flags.BoolVar(&flagConfig.SystemWide, "system-wide", false, "show the system-wide table")
	flags.BoolVar(&flagConfig.Vnodes, "vnodes", false, "show the vnodes table")
	flags.BoolVar(&flagConfig.Composite, "composite", false, "show the composite table (default when no table is chosen)")
	flags.IntVar(&flagConfig.Threshold, "threshold", pkg.NoThreshold, "report processes with more descriptors than this")

	flags.StringVar(&flagConfig.OutputTxt, "output-txt", "", "save the composite table as text")
	flags.Lookup("output-txt").NoOptDefVal = pkg.TxtOutName
	flags.StringVar(&flagConfig.OutputBinary, "output-binary", "", "save the composite table as binary")
	flags.Lookup("output-binary").NoOptDefVal = pkg.BinaryOutName
	flags.BoolVar(&flagConfig.VersionedBinary, "versioned", false, "prefix binary output with a format tag")
}

// loadConfig starts from the config file, if any, and applies the flags the
// user set explicitly on top.
func loadConfig(cmd *cobra.Command) (*pkg.Config, error) {
	config := pkg.NewConfig()
	if configPath != "" {
		loaded, err := pkg.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("proc-root", func() { config.ProcRoot = flagConfig.ProcRoot })
	set("all-users", func() { config.AllUsers = flagConfig.AllUsers })
	set("no-metadata", func() { config.Metadata = !noMetadata })
	set("buffer-size", func() { config.TargetBufferSize = flagConfig.TargetBufferSize })
	set("workers", func() { config.Workers = flagConfig.Workers })
	set("timeout", func() { config.ProcessTimeout = flagConfig.ProcessTimeout })
	set("strict", func() { config.FailOnUnreadable = flagConfig.FailOnUnreadable })
	set("per-process", func() { config.PerProcess = flagConfig.PerProcess })
	set("system-wide", func() { config.SystemWide = flagConfig.SystemWide })
	set("vnodes", func() { config.Vnodes = flagConfig.Vnodes })
	set("composite", func() { config.Composite = flagConfig.Composite })
	set("threshold", func() { config.Threshold = flagConfig.Threshold })
	set("output-txt", func() { config.OutputTxt = flagConfig.OutputTxt })
	set("output-binary", func() { config.OutputBinary = flagConfig.OutputBinary })
	set("versioned", func() { config.VersionedBinary = flagConfig.VersionedBinary })

	if err := config.Validate(); err != nil {
		return nil, err
	}
	logrus.WithField("config", fmt.Sprintf("%+v", *config)).Debugln("config loaded")
	return config, nil
}

func parsePid(arg string) (uint64, error) {
	pid, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || pid == 0 {
		return 0, errors.Errorf("invalid pid %q", arg)
	}
	return pid, nil
}

func present(w io.Writer, config *pkg.Config, snapshot *pkg.Snapshot, limitOf func(uint64) (uint64, bool)) error {
	views := []pkg.View{}
	if config.PerProcess {
		views = append(views, pkg.ViewPerProcess)
	}
	if config.SystemWide {
		views = append(views, pkg.ViewSystemWide)
	}
	if config.Vnodes {
		views = append(views, pkg.ViewVnodes)
	}
	if config.Composite || !config.AnyView() {
		views = append(views, pkg.ViewComposite)
	}
	for _, view := range views {
		if err := pkg.RenderTable(w, view, snapshot.Processes); err != nil {
			return err
		}
	}

	if config.OutputTxt != "" {
		if err := pkg.WriteCompositeText(config.OutputTxt, snapshot.Processes); err != nil {
			return err
		}
	}
	if config.OutputBinary != "" {
		var opts []pkg.EncodeOption
		if config.VersionedBinary {
			opts = append(opts, pkg.WithHeader())
		}
		if _, err := snapshot.DumpFile(config.OutputBinary, pkg.FormatBinary, opts...); err != nil {
			return err
		}
	}
	if config.Threshold != pkg.NoThreshold {
		pkg.RenderOffenders(w, pkg.Offenders(snapshot.Processes, config.Threshold), limitOf)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Errorln("fdtopo failed")
		stop()
		os.Exit(1)
	}
}
