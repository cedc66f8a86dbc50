package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noamichael/fitsgroup/internal/concat"
	"github.com/noamichael/fitsgroup/internal/config"
)

func newConcatCmd(opts *rootOptions) *cobra.Command {
	var (
		configPath string
		output     string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "concat [INPUT1 INPUT2 INPUT3]",
		Short: "Concatenate three FITS files",
		Long: `Write OUTPUT with the primary HDU of INPUT1 followed by the extension
HDUs of INPUT1, INPUT2 and INPUT3 in order.

Paths come from the arguments, then --config, then the built-in defaults.
An existing output is never replaced unless --overwrite is given.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 3 {
				return fmt.Errorf("expected 0 or 3 input files, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			if len(args) == 3 {
				cfg.Input1, cfg.Input2, cfg.Input3 = args[0], args[1], args[2]
			}
			if cmd.Flags().Changed("output") {
				cfg.Output = output
			}
			if cmd.Flags().Changed("overwrite") {
				cfg.Overwrite = overwrite
			}

			result, err := concat.Concatenate(cmd.Context(), cfg, opts.logger)
			if err != nil {
				return err
			}

			for i, src := range result.Sources {
				opts.logger.Debug("output HDU", "index", i, "source", src.Path, "source_index", src.Index, "name", src.Name)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d HDUs to %s\n", result.HDUs(), result.Output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML file with input1, input2, input3, output and overwrite")
	cmd.Flags().StringVarP(&output, "output", "o", config.DefaultOutput, "Output FITS file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the output file if it exists")

	return cmd
}
