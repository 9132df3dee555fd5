// Command fdread prints a composite table saved by fdtopo.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/FFengIll/fdtopo/pkg"
)

var rootCmd = &cobra.Command{
	Use:           "fdread [file]",
	Short:         "Print a saved composite table",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := pkg.BinaryOutName
		if len(args) == 1 {
			path = args[0]
		}
		format := pkg.FormatFromPath(path)
		if cachedFormat != "" {
			var err error
			if format, err = pkg.ParseFormat(cachedFormat); err != nil {
				return err
			}
		}

		snapshot, err := pkg.LoadFile(path, format)
		if err != nil {
			return err
		}
		return pkg.RenderTable(cmd.OutOrStdout(), pkg.ViewComposite, snapshot.Processes)
	},
}

var cachedFormat = ""

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cachedFormat, "format", "f", "", "binary or json (default: by file extension)")
}

func main() {
	logrus.SetLevel(logrus.WarnLevel)
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Errorln("fdread failed")
		os.Exit(1)
	}
}
