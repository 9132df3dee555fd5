package main

import (
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/FFengIll/fdtopo/pkg"
)

var reloadCmd = &cobra.Command{
	Use:   "reload <file> [pid|command ...]",
	Short: "Load a saved composite table and print its views",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		path := args[0]
		format, err := outputFormat(path, reloadFormat)
		if err != nil {
			return err
		}
		snapshot, err := pkg.LoadFile(path, format)
		if err != nil {
			return err
		}

		// remaining args: digits select a pid, anything else a command name
		option := pkg.NewFilterOption()
		for _, arg := range args[1:] {
			if pid, err := strconv.ParseUint(arg, 10, 64); err == nil {
				option.Pid = append(option.Pid, pid)
				continue
			}
			option.Cmd = append(option.Cmd, arg)
		}
		for _, name := range reloadKinds {
			kind, err := pkg.ParseTargetKind(name)
			if err != nil {
				return err
			}
			option.Kinds = append(option.Kinds, kind)
		}
		snapshot = pkg.FilterSnapshot(option, snapshot)

		// the saved processes may be gone, so limits are not looked up
		if err := present(cmd.OutOrStdout(), config, snapshot, nil); err != nil {
			return err
		}

		if reloadDot != "" {
			render := pkg.NewDotRender()
			defer render.Close()
			if err := render.Write(pkg.NewTopo(snapshot.Processes), reloadDot); err != nil {
				return err
			}
		}
		if reloadConvert != "" {
			target, err := outputFormat(reloadConvert, "")
			if err != nil {
				return err
			}
			if _, err := snapshot.DumpFile(reloadConvert, target); err != nil {
				return err
			}
		}
		logrus.WithField("processes", len(snapshot.Processes)).Debugln("reload done")
		return nil
	},
}

var (
	reloadFormat  = ""
	reloadDot     = ""
	reloadConvert = ""
	reloadKinds   []string
)

func init() {
	flags := reloadCmd.Flags()
	flags.StringVarP(&reloadFormat, "format", "f", "", "binary or json (default: by file extension)")
	flags.StringVar(&reloadDot, "dot", "", "write the process/resource graph as DOT to this file")
	flags.StringVar(&reloadConvert, "convert", "", "write the loaded table to this file (.json for json)")
	flags.StringSliceVar(&reloadKinds, "kind", nil, "keep only descriptors of these kinds (file, pipe, socket, unresolved)")
}
