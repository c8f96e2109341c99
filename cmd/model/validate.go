package main

import (
	"github.com/spf13/cobra"

	"github.com/bjaus/model"
)

// ioFlags are the input/output flags of validate and project.
type ioFlags struct {
	input       string
	inputFormat string
	output      string
	loc         []string
}

func (f *ioFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "-", "input document, or - for stdin")
	cmd.Flags().StringVar(&f.inputFormat, "input-format", "", "input format (json, yaml); defaults to the file extension")
	cmd.Flags().StringVarP(&f.output, "output", "o", "json", "output format (json, yaml)")
	cmd.Flags().StringSliceVar(&f.loc, "loc", nil, "location prefix for reported errors, e.g. --loc body")
}

func (f *ioFlags) prefix() []any {
	out := make([]any, len(f.loc))
	for i, l := range f.loc {
		out[i] = l
	}
	return out
}

func newValidateCmd(opts *options) *cobra.Command {
	var inout ioFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a document and print the coerced value",
		Long:  `Validates the input document against the schema. On success the coerced value is printed; otherwise an RFC 9457 problem document listing every error is printed and the command exits 1.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, v, err := validateInput(cmd, opts, &inout)
			if err != nil {
				return err
			}
			return writeValue(cmd, inout.output, v)
		},
	}
	inout.register(cmd)
	return cmd
}

func validateInput(cmd *cobra.Command, opts *options, inout *ioFlags) (*model.Schema, any, error) {
	s, err := opts.loadSchema()
	if err != nil {
		return nil, nil, err
	}
	raw, err := readInput(cmd, inout.input, inout.inputFormat)
	if err != nil {
		return nil, nil, err
	}
	v, err := s.Validate(raw, inout.prefix()...)
	if err != nil {
		return nil, nil, writeProblem(cmd, opts.logger, err)
	}
	opts.logger.Debug("input valid", "input", inout.input)
	return s, v, nil
}

func writeValue(cmd *cobra.Command, format string, v any) error {
	codec, err := pickCodec(format, "")
	if err != nil {
		return err
	}
	return codec.Encode(cmd.OutOrStdout(), model.Encode(v))
}
