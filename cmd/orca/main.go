package main

import (
	"os"

	"github.com/go-go-golems/glazed/pkg/cmds/logging"
	"github.com/go-go-golems/orca/cmd/orca/cmds"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() (*cobra.Command, error) {
	root := &cobra.Command{
		Use:   "orca",
		Short: "orca drives GLOP driver jobs and streams their console",
		Long: "orca triggers a GLOP driver job on the ORCA backend and follows its event\n" +
			"stream, headless (drive) or in a terminal console (tui). serve runs a\n" +
			"simulated backend for local use.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.InitLoggerFromCobra(cmd)
		},
	}
	if err := logging.AddLoggingLayerToRootCommand(root, "orca"); err != nil {
		return nil, err
	}
	cmds.AddRootFlags(root)
	if err := cmds.AddCommands(root); err != nil {
		return nil, err
	}
	return root, nil
}

func main() {
	root, err := newRootCommand()
	cobra.CheckErr(err)
	// cobra already printed the error; the status tells how the job ended.
	if err := root.Execute(); err != nil {
		os.Exit(cmds.ExitCode(err))
	}
}
