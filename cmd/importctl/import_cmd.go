package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"estate-admin/internal/importer"

	"github.com/spf13/cobra"
)

type importOptions struct {
	Kind string
	File string
	Yes  bool
}

func newImportCmd(global *globalOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import --kind <kind> --file <path> [--yes]",
		Short: "Decode a file, preview it and upload it as one batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := parseKind(opts.Kind)
			if err != nil {
				return err
			}
			if strings.TrimSpace(opts.File) == "" {
				return errors.New("--file is required")
			}

			cfg, backend, logger, err := global.setup()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(opts.File)
			if err != nil {
				return err
			}

			orch := importer.NewOrchestrator(importer.Config{
				Kind:     kind,
				Importer: backend,
				Decode: importer.DecodeOptions{
					MaxRows:    cfg.ImportMaxRows,
					Normalizer: importer.NewNormalizer(importer.ParseCoercionPolicy(cfg.ImportCoercionPolicy), logger),
				},
				MaxFileBytes:        int64(cfg.UploadMaxSize),
				UploadTimeout:       cfg.ImportUploadTimeout,
				LargeBatchThreshold: cfg.ImportLargeBatch,
				Logger:              logger,
			})
			if err := orch.Load(opts.File, data); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printPreview(out, orch.Snapshot()); err != nil {
				return err
			}

			if !opts.Yes && !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Upload %d %s records?", len(orch.Records()), kind)) {
				orch.Cancel()
				fmt.Fprintln(out, "Aborted.")
				return nil
			}

			_, err = orch.Submit(cmd.Context())
			printReport(out, orch.Snapshot())
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "entity kind to import")
	cmd.Flags().StringVar(&opts.File, "file", "", ".json, .xlsx or .xls file")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func printPreview(w io.Writer, snap importer.Snapshot) error {
	fmt.Fprintln(w, snap.Summary())
	for _, n := range snap.Notices {
		fmt.Fprintf(w, "note: %s\n", n)
	}
	if len(snap.Preview) == 0 {
		return nil
	}
	fmt.Fprintf(w, "First %d records:\n", len(snap.Preview))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap.Preview)
}

func printReport(w io.Writer, snap importer.Snapshot) {
	fmt.Fprintln(w, snap.Summary())
	for _, n := range snap.Notices {
		fmt.Fprintf(w, "note: %s\n", n)
	}
	rep := snap.Report
	if rep == nil {
		return
	}
	if rep.Toast != "" {
		fmt.Fprintln(w, rep.Toast)
	} else if rep.Message != "" {
		fmt.Fprintf(w, "error: %s\n", rep.Message)
	}
	fmt.Fprintf(w, "total=%d imported=%d skipped=%d failed=%d\n",
		rep.Summary.Total, rep.Summary.Imported, rep.Summary.Skipped, rep.Summary.Failed)
	for _, e := range rep.Errors {
		fmt.Fprintf(w, "  record %d %s: %s\n", e.Index, e.Identifier, strings.Join(e.Errors, "; "))
	}
	if more := rep.MoreErrorsText(); more != "" {
		fmt.Fprintf(w, "  %s\n", more)
	}
	for _, s := range rep.Skipped {
		fmt.Fprintf(w, "  skipped %d: %s\n", s.Index, s.Reason)
	}
	for _, iw := range rep.ImageWarnings {
		fmt.Fprintf(w, "  image %d %s: %s\n", iw.Index, iw.URL, iw.Message)
	}
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
