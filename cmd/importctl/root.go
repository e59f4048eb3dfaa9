package main

import (
	"fmt"
	"os"

	"estate-admin/internal/client"
	"estate-admin/internal/config"
	"estate-admin/internal/importer"
	"estate-admin/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	BackendURL string
	Token      string
	Verbose    bool
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:           "importctl",
		Short:         "Bulk import tool for the real-estate admin backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.BackendURL, "backend", "", "backend base URL (default BACKEND_URL)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "bearer token (default BACKEND_TOKEN)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log coercion fallbacks")

	cmd.AddCommand(newImportCmd(&opts))
	cmd.AddCommand(newTemplateCmd(&opts))
	cmd.AddCommand(newSampleCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// setup resolves config from the environment with flag overrides.
func (o *globalOptions) setup() (*config.Config, *client.Backend, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if o.BackendURL != "" {
		cfg.BackendURL = o.BackendURL
	}
	if o.Token != "" {
		cfg.BackendToken = o.Token
	}

	logger := utils.NewConsoleLogger(os.Stderr, o.Verbose)
	backend := client.NewBackend(client.Options{
		BaseURL:         cfg.BackendURL,
		Token:           cfg.BackendToken,
		TemplateTimeout: cfg.TemplateTimeout,
		Logger:          logger,
	})
	return cfg, backend, logger, nil
}

func parseKind(s string) (importer.EntityKind, error) {
	if s == "" {
		return "", fmt.Errorf("--kind is required (one of %v)", importer.EntityKinds)
	}
	return importer.ParseEntityKind(s)
}
