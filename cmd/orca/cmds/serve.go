package cmds

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-go-golems/orca/pkg/backend"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var addr string
	var delay time.Duration
	var failAfter int
	var dropAfter int
	var malformedAfter int
	var failMessage string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a simulated GLOP driver job server for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			sc := opts.Config.Serve
			if !cmd.Flags().Changed("addr") && sc.Addr != "" {
				addr = sc.Addr
			}
			if !cmd.Flags().Changed("delay") && sc.Delay != "" {
				if delay, err = sc.DelayDuration(); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("fail-after") && sc.FailAfter > 0 {
				failAfter = sc.FailAfter
			}
			if !cmd.Flags().Changed("drop-after") && sc.DropAfter > 0 {
				dropAfter = sc.DropAfter
			}
			if !cmd.Flags().Changed("malformed-after") && sc.MalformedAfter > 0 {
				malformedAfter = sc.MalformedAfter
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			handler := backend.New(backend.Options{
				Delay:          delay,
				FailAfter:      failAfter,
				FailMessage:    failMessage,
				DropAfter:      dropAfter,
				MalformedAfter: malformedAfter,
				Registry:       reg,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			eg, egCtx := errgroup.WithContext(ctx)
			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
				// Running jobs stop streaming on shutdown.
				BaseContext: func(net.Listener) context.Context { return egCtx },
			}
			eg.Go(func() error {
				log.Info().Str("addr", addr).Dur("delay", delay).Msg("serving simulated job server")
				err := srv.ListenAndServe()
				if stderrors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return errors.Wrap(err, "listen")
			})
			eg.Go(func() error {
				<-egCtx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return eg.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address")
	cmd.Flags().DurationVar(&delay, "delay", 300*time.Millisecond, "Delay between frames")
	cmd.Flags().IntVar(&failAfter, "fail-after", 0, "Send an error frame after this many frames (0 never)")
	cmd.Flags().StringVar(&failMessage, "fail-message", "", "Message of the injected error frame")
	cmd.Flags().IntVar(&dropAfter, "drop-after", 0, "Drop the stream after this many frames (0 never)")
	cmd.Flags().IntVar(&malformedAfter, "malformed-after", 0, "Send one unparseable frame after this many frames (0 never)")
	return cmd
}
