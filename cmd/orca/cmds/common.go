package cmds

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/config"
	"github.com/go-go-golems/orca/pkg/console"
	"github.com/go-go-golems/orca/pkg/transport/sse"
	"github.com/go-go-golems/orca/pkg/transport/ws"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultBaseURL = "http://localhost:8000"

type rootOptions struct {
	ConfigPath  string
	BaseURL     string
	Path        string
	Transport   string
	IdleTimeout time.Duration
	Config      *config.File
}

func AddRootFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", "", "Path to config file (defaults to .orca.yaml in the current directory)")
	root.PersistentFlags().String("base-url", "", "Job server base URL (default "+defaultBaseURL+")")
	root.PersistentFlags().String("transport", "", "Event stream transport: sse or ws (default sse)")
	root.PersistentFlags().Duration("idle-timeout", 0, "Treat a silent event stream as disconnected after this long (0 disables)")
}

// getRootOptions loads the config file and applies flag overrides. Flags win
// over the file only when set explicitly.
func getRootOptions(cmd *cobra.Command) (rootOptions, error) {
	flags := cmd.Root().PersistentFlags()

	cfgPath, err := flags.GetString("config")
	if err != nil {
		return rootOptions{}, err
	}
	var cfg *config.File
	if cfgPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return rootOptions{}, err
		}
		cfgPath = config.DefaultPath(cwd)
		cfg, err = config.LoadOptional(cfgPath)
		if err != nil {
			return rootOptions{}, err
		}
	} else {
		if cfgPath, err = filepath.Abs(cfgPath); err != nil {
			return rootOptions{}, err
		}
		if cfg, err = config.LoadFromFile(cfgPath); err != nil {
			return rootOptions{}, err
		}
	}

	opts := rootOptions{
		ConfigPath: cfgPath,
		BaseURL:    cfg.BaseURL,
		Path:       cfg.Path,
		Transport:  cfg.Transport,
		Config:     cfg,
	}
	if opts.IdleTimeout, err = cfg.IdleTimeoutDuration(); err != nil {
		return rootOptions{}, err
	}

	if err := overrideString(flags, "base-url", &opts.BaseURL); err != nil {
		return rootOptions{}, err
	}
	if err := overrideString(flags, "transport", &opts.Transport); err != nil {
		return rootOptions{}, err
	}
	if flags.Changed("idle-timeout") {
		if opts.IdleTimeout, err = flags.GetDuration("idle-timeout"); err != nil {
			return rootOptions{}, err
		}
		if opts.IdleTimeout < 0 {
			return rootOptions{}, errors.New("--idle-timeout must not be negative")
		}
	}

	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Transport == "" {
		opts.Transport = config.TransportSSE
	}
	return opts, nil
}

// overrideString replaces *dst with the flag value when the flag was set.
func overrideString(flags *pflag.FlagSet, name string, dst *string) error {
	if !flags.Changed(name) {
		return nil
	}
	v, err := flags.GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func newTransport(opts rootOptions) (console.Transport, error) {
	switch opts.Transport {
	case config.TransportSSE:
		return sse.New(sse.Options{BaseURL: opts.BaseURL, Path: opts.Path, Client: &http.Client{}})
	case config.TransportWS:
		path := opts.Path
		if path != "" {
			path += "/ws"
		}
		return ws.New(ws.Options{BaseURL: opts.BaseURL, Path: path})
	default:
		return nil, errors.Errorf("unknown transport %q (want sse or ws)", opts.Transport)
	}
}

func classifierFor(cfg *config.File) *classify.Classifier {
	return classify.New(classify.DefaultMarkers().Merge(cfg.Markers))
}
