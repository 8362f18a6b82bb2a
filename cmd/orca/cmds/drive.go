package cmds

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-go-golems/orca/pkg/console"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/go-go-golems/orca/pkg/sink"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newDriveCmd() *cobra.Command {
	var product string
	var supplier string
	var extra []string
	var openTimeout time.Duration
	var timeout time.Duration
	var rawJSON bool

	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Trigger a GLOP driver job and print its console until it ends",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			tr, err := newTransport(opts)
			if err != nil {
				return err
			}

			params := opts.Config.DefaultTriggerParams()
			if cmd.Flags().Changed("product") {
				params = setParam(params, protocol.ParamProduct, product)
			}
			if cmd.Flags().Changed("supplier") {
				params = setParam(params, protocol.ParamSupplier, supplier)
			}
			for _, kv := range extra {
				name, value, ok := strings.Cut(kv, "=")
				if !ok {
					return errors.Errorf("--param %q: want name=value", kv)
				}
				params = setParam(params, name, value)
			}

			out := sink.NewWriterSink(cmd.OutOrStdout(), rawJSON)
			logSink := sink.NewLogSink(log.Logger)
			c, err := console.New(console.Options{
				Transport:   tr,
				Sink:        sink.Multi(out, logSink),
				Control:     logSink,
				Classifier:  classifierFor(opts.Config),
				Labels:      opts.Config.Labels,
				IdleTimeout: opts.IdleTimeout,
			})
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			openCtx, cancel := context.WithTimeout(ctx, openTimeout)
			err = c.Trigger(openCtx, params)
			cancel()
			if err != nil {
				return err
			}

			waitCtx := ctx
			if timeout > 0 {
				var cancelWait context.CancelFunc
				waitCtx, cancelWait = context.WithTimeout(ctx, timeout)
				defer cancelWait()
			}
			err = c.Wait(waitCtx)
			if waitCtx.Err() != nil {
				// Interrupted or timed out: abandon the stream so the status
				// line reflects it before exiting.
				c.Stop()
				return errors.Wrap(waitCtx.Err(), "drive")
			}
			return err
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "Product category (default from config, mnt)")
	cmd.Flags().StringVar(&supplier, "supplier", "", "Supplier selector (default from config, all)")
	cmd.Flags().StringArrayVar(&extra, "param", nil, "Extra trigger parameter name=value (repeatable, order kept)")
	cmd.Flags().DurationVar(&openTimeout, "open-timeout", 30*time.Second, "Timeout for opening the event stream")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up waiting for the job after this long (0 waits forever)")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Print console records as JSON lines")
	return cmd
}

// setParam replaces the value of name, or appends it when absent.
func setParam(params protocol.Params, name, value string) protocol.Params {
	out := append(protocol.Params{}, params...)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, protocol.Param{Name: name, Value: value})
}
