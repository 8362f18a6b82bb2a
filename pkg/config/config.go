package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/jobstatus"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFilename = ".orca.yaml"

const (
	TransportSSE = "sse"
	TransportWS  = "ws"
)

type File struct {
	BaseURL   string `yaml:"base_url,omitempty"`
	Path      string `yaml:"path,omitempty"`
	Transport string `yaml:"transport,omitempty"` // "sse" | "ws"
	// IdleTimeout is a Go duration string; empty disables the timeout.
	IdleTimeout string           `yaml:"idle_timeout,omitempty"`
	Params      []Param          `yaml:"params,omitempty"`
	Labels      jobstatus.Labels `yaml:"labels,omitempty"`
	Markers     classify.Markers `yaml:"markers,omitempty"`
	Serve       Serve            `yaml:"serve,omitempty"`
}

// Param is one trigger parameter and the values a user can pick from.
type Param struct {
	Name    string   `yaml:"name"`
	Choices []string `yaml:"choices,omitempty"`
	Default string   `yaml:"default,omitempty"`
}

// Serve configures the simulated job server.
type Serve struct {
	Addr           string `yaml:"addr,omitempty"`
	Delay          string `yaml:"delay,omitempty"`
	FailAfter      int    `yaml:"fail_after,omitempty"`
	DropAfter      int    `yaml:"drop_after,omitempty"`
	MalformedAfter int    `yaml:"malformed_after,omitempty"`
}

func DefaultParams() []Param {
	return []Param{
		{Name: protocol.ParamProduct, Choices: []string{"mnt"}, Default: "mnt"},
		{Name: protocol.ParamSupplier, Choices: []string{
			"all", "AU OPTRONICS", "BOEVT", "TCL MOKA", "TCL TTE", "TPV",
			"GAO CHUANG", "KTC", "MO JIA",
		}, Default: "all"},
	}
}

func DefaultPath(dir string) string {
	return filepath.Join(dir, DefaultConfigFilename)
}

func LoadFromFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var cfg File
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return &cfg, nil
}

func LoadOptional(path string) (*File, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, errors.Wrap(err, "stat config")
	}
	return LoadFromFile(path)
}

func (f *File) Validate() error {
	switch f.Transport {
	case "", TransportSSE, TransportWS:
	default:
		return errors.Errorf("unknown transport %q", f.Transport)
	}
	if _, err := f.IdleTimeoutDuration(); err != nil {
		return err
	}
	if _, err := f.Serve.DelayDuration(); err != nil {
		return err
	}
	seen := map[string]bool{}
	for i, p := range f.Params {
		if p.Name == "" {
			return errors.Errorf("params[%d]: missing name", i)
		}
		if seen[p.Name] {
			return errors.Errorf("params[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

func (f *File) IdleTimeoutDuration() (time.Duration, error) {
	return parseDuration("idle_timeout", f.IdleTimeout)
}

func (s Serve) DelayDuration() (time.Duration, error) {
	return parseDuration("serve.delay", s.Delay)
}

// EffectiveParams returns the configured parameters, or the defaults when none
// are configured.
func (f *File) EffectiveParams() []Param {
	if len(f.Params) == 0 {
		return DefaultParams()
	}
	return f.Params
}

// DefaultTriggerParams builds trigger parameters from each param's default,
// falling back to its first choice.
func (f *File) DefaultTriggerParams() protocol.Params {
	var out protocol.Params
	for _, p := range f.EffectiveParams() {
		v := p.Default
		if v == "" && len(p.Choices) > 0 {
			v = p.Choices[0]
		}
		out = append(out, protocol.Param{Name: p.Name, Value: v})
	}
	return out
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", field)
	}
	if d < 0 {
		return 0, errors.Errorf("%s must not be negative", field)
	}
	return d, nil
}
