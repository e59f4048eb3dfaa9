package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

type sampleOptions struct {
	Kind string
	Out  string
}

func newSampleCmd() *cobra.Command {
	var opts sampleOptions

	cmd := &cobra.Command{
		Use:   "sample --kind <kind> [--out file.xlsx]",
		Short: "Write a local sample workbook for manual testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := parseKind(opts.Kind)
			if err != nil {
				return err
			}
			out := opts.Out
			if out == "" {
				out = fmt.Sprintf("%s-sample.xlsx", kind)
			}

			data, rows, err := buildSample(kind)
			if err != nil {
				return err
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sample file created: %s (%d rows)\n", out, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "entity kind")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output path (default <kind>-sample.xlsx)")

	return cmd
}
