package main

import (
	"github.com/spf13/cobra"

	"github.com/bjaus/model"
)

func newProjectCmd(opts *options) *cobra.Command {
	var (
		inout           ioFlags
		include         []string
		exclude         []string
		excludeUnset    bool
		excludeDefaults bool
		excludeNone     bool
	)

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Validate a document, then keep only the selected fields",
		Long:  `Validates the input document, then filters the coerced value with dotted field paths. --include and --exclude cannot be combined.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var popts []model.ProjectOption
			if cmd.Flags().Changed("include") {
				popts = append(popts, model.Include(include...))
			}
			if cmd.Flags().Changed("exclude") {
				popts = append(popts, model.Exclude(exclude...))
			}
			if excludeUnset {
				popts = append(popts, model.ExcludeUnset())
			}
			if excludeDefaults {
				popts = append(popts, model.ExcludeDefaults())
			}
			if excludeNone {
				popts = append(popts, model.ExcludeNone())
			}

			s, v, err := validateInput(cmd, opts, &inout)
			if err != nil {
				return err
			}
			out, err := s.Project(v, popts...)
			if err != nil {
				return err
			}
			return writeValue(cmd, inout.output, out)
		},
	}
	inout.register(cmd)
	cmd.Flags().StringSliceVar(&include, "include", nil, "field paths to keep (comma separated)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "field paths to drop (comma separated)")
	cmd.Flags().BoolVar(&excludeUnset, "exclude-unset", false, "drop fields that were filled from defaults")
	cmd.Flags().BoolVar(&excludeDefaults, "exclude-defaults", false, "drop fields equal to their default")
	cmd.Flags().BoolVar(&excludeNone, "exclude-none", false, "drop null fields")
	return cmd
}
