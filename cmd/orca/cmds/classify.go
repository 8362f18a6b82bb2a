package cmds

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-go-golems/glazed/pkg/cli"
	glazedcmds "github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ClassifyCommand runs log lines through the console classifier, which is
// handy for checking marker configuration against captured driver output.
type ClassifyCommand struct {
	*glazedcmds.CommandDescription
	classifier func() (*classify.Classifier, error)
}

var _ glazedcmds.WriterCommand = (*ClassifyCommand)(nil)

type classifySettings struct {
	Input  string `glazed.parameter:"input"`
	Format string `glazed.parameter:"format"`
}

func NewClassifyCommand(classifier func() (*classify.Classifier, error)) (*ClassifyCommand, error) {
	return &ClassifyCommand{
		CommandDescription: glazedcmds.NewCommandDescription(
			"classify",
			glazedcmds.WithShort("Classify log lines (stdin or --input) the way the console does"),
			glazedcmds.WithFlags(
				parameters.NewParameterDefinition(
					"input",
					parameters.ParameterTypeString,
					parameters.WithHelp("Input file path (default: stdin)"),
					parameters.WithDefault(""),
				),
				parameters.NewParameterDefinition(
					"format",
					parameters.ParameterTypeChoice,
					parameters.WithHelp("Output format"),
					parameters.WithChoices("pretty", "ndjson"),
					parameters.WithDefault("pretty"),
				),
			),
		),
		classifier: classifier,
	}, nil
}

func (c *ClassifyCommand) RunIntoWriter(ctx context.Context, parsedLayers *layers.ParsedLayers, w io.Writer) error {
	s := &classifySettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "parse flags")
	}
	cl, err := c.classifier()
	if err != nil {
		return err
	}

	r := io.Reader(os.Stdin)
	if s.Input != "" {
		f, err := os.Open(s.Input)
		if err != nil {
			return errors.Wrap(err, "open input")
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	return classifyLines(ctx, cl, r, w, s.Format)
}

func classifyLines(ctx context.Context, cl *classify.Classifier, r io.Reader, w io.Writer, format string) error {
	enc := json.NewEncoder(w)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		category := cl.Classify(line)
		if format == "ndjson" {
			if err := enc.Encode(map[string]string{"category": string(category), "message": line}); err != nil {
				return errors.Wrap(err, "write output")
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%-9s %s\n", category, line); err != nil {
			return errors.Wrap(err, "write output")
		}
	}
	return errors.Wrap(sc.Err(), "read input")
}

func newClassifyCmd() (*cobra.Command, error) {
	var root *cobra.Command
	c, err := NewClassifyCommand(func() (*classify.Classifier, error) {
		opts, err := getRootOptions(root)
		if err != nil {
			return nil, err
		}
		return classifierFor(opts.Config), nil
	})
	if err != nil {
		return nil, err
	}

	cmd, err := cli.BuildCobraCommand(c, cli.WithParserConfig(cli.CobraParserConfig{AppName: "orca"}))
	if err != nil {
		return nil, err
	}
	root = cmd
	return cmd, nil
}
