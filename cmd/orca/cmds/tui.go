package cmds

import (
	"context"
	stderrors "errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/orca/pkg/console"
	"github.com/go-go-golems/orca/pkg/tui"
	"github.com/go-go-golems/orca/pkg/tui/models"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newTuiCmd() *cobra.Command {
	var altScreen bool
	var openTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive job console",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			tr, err := newTransport(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			bus, err := tui.NewInMemoryBus()
			if err != nil {
				return err
			}

			labels := opts.Config.Labels.WithDefaults()
			busSink := tui.NewBusSink(bus.Publisher, tui.ControlState{Enabled: true, Label: labels.Button})
			c, err := console.New(console.Options{
				Transport:   tr,
				Sink:        busSink,
				Control:     busSink,
				Classifier:  classifierFor(opts.Config),
				Labels:      labels,
				IdleTimeout: opts.IdleTimeout,
			})
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			tui.RegisterDomainToUITransformer(bus)
			tui.RegisterConsoleActionRunner(bus, c, tui.RunnerOptions{OpenTimeout: openTimeout})

			model := models.NewRootModel(models.Options{
				Params: opts.Config.EffectiveParams(),
				Labels: labels,
				Publish: func(req tui.ActionRequest) error {
					return tui.PublishAction(bus.Publisher, req)
				},
			})
			programOptions := []tea.ProgramOption{
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			}
			if altScreen {
				programOptions = append(programOptions, tea.WithAltScreen())
			}
			program := tea.NewProgram(model, programOptions...)
			tui.RegisterUIForwarder(bus, program)

			eg, egCtx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				err := bus.Run(egCtx)
				if stderrors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
			eg.Go(func() error {
				_, err := program.Run()
				cancel()
				if stderrors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})

			if err := eg.Wait(); err != nil {
				return errors.Wrap(err, "tui")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&altScreen, "alt-screen", true, "Use the terminal alternate screen buffer")
	cmd.Flags().DurationVar(&openTimeout, "open-timeout", 30*time.Second, "Timeout for opening the event stream")
	return cmd
}
