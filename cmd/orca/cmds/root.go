package cmds

import (
	"errors"

	"github.com/go-go-golems/orca/pkg/console"
	"github.com/spf13/cobra"
)

// Exit statuses of a failed run. A job that ran to its error frame and a job
// whose stream was lost are told apart so scripts can retry only the latter.
const (
	ExitFailure   = 1
	ExitJobError  = 2
	ExitTransport = 3
	ExitStopped   = 4
)

func AddCommands(root *cobra.Command) error {
	root.AddCommand(newDriveCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newServeCmd())

	classifyCmd, err := newClassifyCmd()
	if err != nil {
		return err
	}
	root.AddCommand(classifyCmd)
	return nil
}

func ExitCode(err error) int {
	var jerr *console.JobError
	var terr *console.TransportError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &jerr):
		return ExitJobError
	case errors.As(err, &terr):
		return ExitTransport
	case errors.Is(err, console.ErrStopped):
		return ExitStopped
	default:
		return ExitFailure
	}
}
