package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bjaus/model"
	"github.com/bjaus/model/internal/logging"
)

// errInvalid is returned after a problem document has been written, so main
// exits non-zero without printing the error again.
var errInvalid = errors.New("input is invalid")

// options holds the flags shared by every command.
type options struct {
	logLevel  string
	logFormat string
	maxDepth  int
	schema    string
	root      string

	logger *slog.Logger
}

// newOptions returns options with a discarding logger, replaced once the
// log flags are parsed.
func newOptions() *options {
	return &options{logger: logging.NewNop()}
}

func newRootCmd() *cobra.Command {
	opts := newOptions()

	cmd := &cobra.Command{
		Use:           "model",
		Short:         "Validate and shape documents against declarative schemas",
		Long:          `model compiles schema definition documents (YAML or JSON) and uses them to validate, coerce, and project input documents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logging.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			format, err := logging.ParseFormat(opts.logFormat)
			if err != nil {
				return err
			}
			opts.logger = logging.NewWriter(cmd.ErrOrStderr(), level, format)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", envOr("MODEL_LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", envOr("MODEL_LOG_FORMAT", "text"), "log format (text, json)")
	flags.IntVar(&opts.maxDepth, "max-depth", model.DefaultMaxDepth, "maximum nesting depth of input documents")
	flags.StringVarP(&opts.schema, "schema", "s", "", "schema definition file (YAML or JSON)")
	flags.StringVar(&opts.root, "root", "", "definition to use as the root instead of the document's root")

	cmd.AddCommand(
		newValidateCmd(opts),
		newProjectCmd(opts),
		newJSONSchemaCmd(opts),
	)
	return cmd
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// loadSchema compiles the --schema document, re-rooted at --root if given.
func (o *options) loadSchema() (*model.Schema, error) {
	if o.schema == "" {
		return nil, errors.New("--schema is required")
	}
	s, err := model.LoadDefinition(o.schema, model.WithMaxDepth(o.maxDepth))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	o.logger.Debug("schema compiled", "path", o.schema, "definitions", len(s.DefinitionNames()))

	if o.root == "" {
		return s, nil
	}
	root, ok := s.Definition(o.root)
	if !ok {
		return nil, fmt.Errorf("compile schema: no definition named %q", o.root)
	}
	defs := make(map[string]*model.Node)
	for _, name := range s.DefinitionNames() {
		defs[name], _ = s.Definition(name)
	}
	return model.Compile(root, model.WithDefinitions(defs), model.WithMaxDepth(o.maxDepth))
}

// readInput decodes the document named by path, or stdin for "-". The codec
// is chosen by format, then by the file extension, then JSON.
func readInput(cmd *cobra.Command, path, format string) (any, error) {
	codec, err := pickCodec(format, path)
	if err != nil {
		return nil, err
	}

	var r io.Reader = cmd.InOrStdin()
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		defer f.Close()
		r = f
	}

	raw, err := codec.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return raw, nil
}

func pickCodec(format, path string) (model.Codec, error) {
	if format != "" {
		c, ok := model.CodecFor(format)
		if !ok {
			return nil, fmt.Errorf("unknown format %q", format)
		}
		return c, nil
	}
	if c, ok := model.CodecFor(path); ok && path != "-" {
		return c, nil
	}
	return model.JSON(), nil
}

// writeProblem writes the problem document for a validation failure and
// returns errInvalid. Other errors pass through.
func writeProblem(cmd *cobra.Command, log *slog.Logger, err error) error {
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	log.Info("validation failed", "errors", len(ve.Errors))
	if werr := model.JSON().Encode(cmd.OutOrStdout(), ve.Problem()); werr != nil {
		return werr
	}
	return errInvalid
}
