package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cobra"

	"github.com/bjaus/model"
)

func newJSONSchemaCmd(opts *options) *cobra.Command {
	var (
		check  bool
		asYAML bool
		input  string
	)

	cmd := &cobra.Command{
		Use:   "jsonschema",
		Short: "Export the schema as JSON Schema (draft 2020-12)",
		Long: `Exports the compiled schema as a JSON Schema document describing its canonical wire form.
With --check the document is compiled by an independent JSON Schema implementation, and
with --input the coerced value of that document is also checked against it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.loadSchema()
			if err != nil {
				return err
			}
			doc, err := json.Marshal(s.JSONSchema())
			if err != nil {
				return fmt.Errorf("export json schema: %w", err)
			}

			if check || input != "" {
				compiled, err := compileJSONSchema(doc)
				if err != nil {
					return fmt.Errorf("check json schema: %w", err)
				}
				opts.logger.Debug("json schema compiled", "bytes", len(doc))
				if input != "" {
					if err := checkInput(cmd, opts, s, compiled, input); err != nil {
						return err
					}
				}
			}

			out := s.JSONSchema()
			if asYAML {
				return model.YAML().Encode(cmd.OutOrStdout(), out)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "compile the exported document with a JSON Schema validator")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the document as YAML")
	cmd.Flags().StringVarP(&input, "input", "i", "", "validate this document and check its coerced value against the export")
	return cmd
}

// compileJSONSchema builds a validator from an exported document.
func compileJSONSchema(doc []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(doc)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func checkInput(cmd *cobra.Command, opts *options, s *model.Schema, compiled *jsonschema.Schema, input string) error {
	raw, err := readInput(cmd, input, "")
	if err != nil {
		return err
	}
	v, err := s.Validate(raw)
	if err != nil {
		return writeProblem(cmd, opts.logger, err)
	}

	// The validator wants plain decoded JSON, not the ordered model types.
	data, err := json.Marshal(model.Encode(v))
	if err != nil {
		return err
	}
	var plain any
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	if err := compiled.Validate(plain); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("coerced value does not match json schema: %s", strings.Join(causes(ve), "; "))
		}
		return err
	}
	opts.logger.Info("coerced value matches json schema", "input", input)
	return nil
}

func causes(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		return []string{fmt.Sprintf("%s: %s", ve.InstanceLocation, ve.Message)}
	}
	var out []string
	for _, c := range ve.Causes {
		out = append(out, causes(c)...)
	}
	return out
}
