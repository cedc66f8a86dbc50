package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noamichael/fitsgroup/fits"
	"github.com/noamichael/fitsgroup/internal/concat"
)

func newInfoCmd() *cobra.Command {
	var headers bool

	cmd := &cobra.Command{
		Use:   "info FILE...",
		Short: "List the HDUs of FITS files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			for _, path := range args {
				if headers {
					if err := printHeaders(cmd, path); err != nil {
						return err
					}
					continue
				}

				summaries, err := concat.Describe(path)
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(out, "%s: %d HDUs\n", path, len(summaries))
				for _, s := range summaries {
					_, _ = fmt.Fprintln(out, s)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&headers, "headers", false, "Print the raw header cards instead of a summary")

	return cmd
}

func printHeaders(cmd *cobra.Command, path string) error {
	f, err := fits.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprint(cmd.OutOrStdout(), f.HeadersRaw())
	return err
}
