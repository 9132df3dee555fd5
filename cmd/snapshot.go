package main

import (
	"github.com/spf13/cobra"

	"github.com/FFengIll/fdtopo/pkg"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [pid]",
	Short: "Walk processes and save the composite table without printing it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			if config.Pid, err = parsePid(args[0]); err != nil {
				return err
			}
		}
		return executeSnapshot(cmd, config)
	},
}

func executeSnapshot(cmd *cobra.Command, config *pkg.Config) error {
	format, err := outputFormat(snapshotFilepath, snapshotFormat)
	if err != nil {
		return err
	}
	snapshot, err := pkg.TakeSnapshot(cmd.Context(), config)
	if err != nil {
		return err
	}
	var opts []pkg.EncodeOption
	if config.VersionedBinary {
		opts = append(opts, pkg.WithHeader())
	}
	_, err = snapshot.DumpFile(snapshotFilepath, format, opts...)
	return err
}

// outputFormat honours an explicit --format and otherwise goes by extension.
func outputFormat(path, explicit string) (pkg.Format, error) {
	if explicit != "" {
		return pkg.ParseFormat(explicit)
	}
	return pkg.FormatFromPath(path), nil
}

var (
	snapshotFilepath = ""
	snapshotFormat   = ""
)

func init() {
	flags := snapshotCmd.Flags()
	flags.StringVarP(&snapshotFilepath, "output", "o", pkg.BinaryOutName, "snapshot file (empty for a timestamped name)")
	flags.StringVarP(&snapshotFormat, "format", "f", "", "binary or json (default: by file extension)")
}
