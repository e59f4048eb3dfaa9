package main

import (
	"fmt"
	"os"
	"path/filepath"

	"estate-admin/internal/importer"

	"github.com/spf13/cobra"
)

type templateOptions struct {
	Kind   string
	Format string
	Out    string
}

func newTemplateCmd(global *globalOptions) *cobra.Command {
	var opts templateOptions

	cmd := &cobra.Command{
		Use:   "template --kind <kind> --format json|excel [--out dir]",
		Short: "Download an import template from the backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := parseKind(opts.Kind)
			if err != nil {
				return err
			}
			_, backend, _, err := global.setup()
			if err != nil {
				return err
			}

			gen := importer.NewTemplateGenerator(backend)
			var file *importer.TemplateFile
			switch opts.Format {
			case "json":
				file, err = gen.JSON(cmd.Context(), kind)
			case "excel":
				file, err = gen.Excel(cmd.Context(), kind)
			default:
				return fmt.Errorf("--format must be json or excel, got %q", opts.Format)
			}
			if err != nil {
				return err
			}

			if err := os.MkdirAll(opts.Out, 0o755); err != nil {
				return err
			}
			path := filepath.Join(opts.Out, file.Name)
			if err := os.WriteFile(path, file.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "entity kind")
	cmd.Flags().StringVar(&opts.Format, "format", "json", "json or excel")
	cmd.Flags().StringVar(&opts.Out, "out", ".", "output directory")

	return cmd
}
