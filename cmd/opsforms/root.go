package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-opsforms/internal/config"
	"github.com/goliatone/go-opsforms/pkg/fieldset"
)

// app carries what every command needs after PersistentPreRunE.
type app struct {
	envFile string
	verbose bool

	cfg    config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "opsforms",
		Short: "Render and preview ops console forms",
		Long: `opsforms renders the field lists of the ops console (payments, budgets,
invoices, hubs) as HTML or as interactive terminal prompts, and serves
them as live forms backed by the reference-data endpoints.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(newRenderCmd(a), newServeCmd(a), newListCmd(a))
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// loader reads documents from the configured forms directory, falling back
// to the embedded forms.
func (a *app) loader() *fieldset.Loader {
	opts := []fieldset.LoaderOption{
		fieldset.WithHTTPFallback(15 * time.Second),
		fieldset.WithLoaderLogger(a.logger),
	}
	if dir := strings.TrimSpace(a.cfg.FormsDir); dir != "" {
		opts = append(opts, fieldset.WithFileSystem(os.DirFS(dir)))
	}
	return fieldset.NewLoader(opts...)
}

// source picks where a document comes from: --file, --url, or a form name.
func source(name, file, rawURL string) (fieldset.Source, error) {
	switch {
	case strings.TrimSpace(file) != "":
		return fieldset.SourceFromFile(file), nil
	case strings.TrimSpace(rawURL) != "":
		if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
			return nil, fmt.Errorf("--url must be an http(s) URL")
		}
		return fieldset.SourceFromURL(rawURL), nil
	case strings.TrimSpace(name) != "":
		return fieldset.SourceFromFS(strings.TrimSpace(name) + ".yaml"), nil
	}
	return nil, fmt.Errorf("a form name, --file or --url is required")
}

func (a *app) load(ctx context.Context, name, file, rawURL string) (*fieldset.Document, error) {
	src, err := source(name, file, rawURL)
	if err != nil {
		return nil, err
	}
	return a.loader().Load(ctx, src)
}
