// Command autoapprove is the single binary that hosts both halves of
// the system (spec §5): `autoapprove run` is the worker process (C2-C10
// tick loop), and the bare command is the shell process (tray, hotkey,
// notifications), which spawns and supervises the worker as a child.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"autoapprove/internal/logging"
)

func main() {
	root := &cobra.Command{
		Use:   "autoapprove",
		Short: "Automates confirmation-button clicks in AI-assisted IDE windows",
		RunE:  runShellCommand,
	}

	root.AddCommand(newRunCommand())
	root.AddCommand(&cobra.Command{
		Use:   "config-path",
		Short: "Print the resolved configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(configPath())
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("autoapprove v1.0.0")
		},
	})

	if err := root.Execute(); err != nil {
		logging.Logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
