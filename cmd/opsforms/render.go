package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-opsforms/components/refdata"
	"github.com/goliatone/go-opsforms/internal/preview"
	"github.com/goliatone/go-opsforms/pkg/fieldpath"
	"github.com/goliatone/go-opsforms/pkg/fieldset"
	"github.com/goliatone/go-opsforms/pkg/form"
	"github.com/goliatone/go-opsforms/pkg/render"
	"github.com/goliatone/go-opsforms/pkg/renderers/tui"
	"github.com/goliatone/go-opsforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-opsforms/pkg/state"
	"github.com/goliatone/go-opsforms/pkg/validation"
	"github.com/goliatone/go-opsforms/pkg/widgets"
)

type renderFlags struct {
	file      string
	url       string
	renderer  string
	output    string
	format    string
	assetsURL string
	record    string
	baseURL   string
	action    string
	timeout   time.Duration
}

func newRenderCmd(a *app) *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render [form]",
		Short: "Render a form as HTML or prompt for it in the terminal",
		Example: `  opsforms render payment
  opsforms render budget --record '{"season":"2026A","plan":{"tonnage":40}}'
  opsforms render --file ./forms/hub.yaml --renderer tui --format pretty`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return a.render(cmd.Context(), name, flags, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flags.file, "file", "", "Path to a field-list document (YAML or JSON)")
	cmd.Flags().StringVar(&flags.url, "url", "", "URL of a field-list document")
	cmd.Flags().StringVar(&flags.renderer, "renderer", "vanilla", "Renderer to use (vanilla, tui)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write output to this file instead of stdout")
	cmd.Flags().StringVar(&flags.format, "format", string(tui.OutputFormatJSON), "TUI output format (json, form, pretty)")
	cmd.Flags().StringVar(&flags.assetsURL, "assets-url", "", "URL prefix for the HTML renderer assets")
	cmd.Flags().StringVar(&flags.record, "record", "", "Saved record to patch into the form (JSON, or @file)")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "Base URL for option endpoints not served in process")
	cmd.Flags().StringVar(&flags.action, "action", "", "Form action URL (defaults to /forms/<name>)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "Timeout for loading documents and options")
	return cmd
}

func (a *app) render(ctx context.Context, name string, flags *renderFlags, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	doc, err := a.loadWithTimeout(ctx, name, flags)
	if err != nil {
		return err
	}
	if name == "" {
		name = doc.Name
	}

	refs, err := refdata.New(refdata.WithLogger(a.logger))
	if err != nil {
		return err
	}
	baseURL := firstNonEmpty(flags.baseURL, a.cfg.RefdataBaseURL)
	var binderOpts []fieldset.BinderOption
	if baseURL != "" {
		binderOpts = append(binderOpts, fieldset.WithBaseURL(baseURL))
	}
	fields, err := preview.Bind(doc, refs, binderOpts...)
	if err != nil {
		return err
	}

	factory := form.New(form.WithLogger(a.logger))
	initial := factory.InitialValues(fields)
	if strings.TrimSpace(flags.record) != "" {
		record, err := readRecord(flags.record)
		if err != nil {
			return err
		}
		initial = factory.Patch(fields)(record)
	}

	var schema validation.Schema
	newRecord, typed := preview.DefaultRecords()[name]
	if typed {
		schema = validation.FromStruct(newRecord())
	}

	registry, err := a.renderers(flags, newRecord)
	if err != nil {
		return err
	}
	renderer, err := registry.Get(flags.renderer)
	if err != nil {
		return fmt.Errorf("renderer %q: %w (available: %s)", flags.renderer, err, strings.Join(registry.List(), ", "))
	}

	locals := widgets.NewLocals()
	defer locals.Close()
	grid, err := factory.Build(fields, state.New(state.WithInitialValues(initial)), schema, form.Props{
		Ctx:          ctx,
		Locals:       locals,
		AwaitOptions: true,
	})
	if err != nil {
		return err
	}

	action := flags.action
	if action == "" && name != "" {
		action = "/forms/" + name
	}
	out, err := renderer.Render(ctx, grid, render.RenderOptions{
		Action:      action,
		Title:       doc.Title,
		SubmitLabel: doc.SubmitLabel,
	})
	if err != nil {
		return err
	}

	a.logger.WithField("form", name).WithField("renderer", renderer.Name()).Debug("form rendered")
	return writeOutput(flags.output, out, stdout)
}

func (a *app) loadWithTimeout(ctx context.Context, name string, flags *renderFlags) (*fieldset.Document, error) {
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}
	return a.load(ctx, name, flags.file, flags.url)
}

// renderers registers the HTML renderer and the terminal renderer. The
// terminal renderer validates answers against the form's record type when
// one is known.
func (a *app) renderers(flags *renderFlags, newRecord preview.RecordFactory) (*render.Registry, error) {
	registry := render.NewRegistry()

	htmlOpts := []vanilla.Option{vanilla.WithLogger(a.logger)}
	if assets := firstNonEmpty(flags.assetsURL, a.cfg.AssetsPath); assets != "" {
		htmlOpts = append(htmlOpts, vanilla.WithAssetsURL(assets))
	}
	html, err := vanilla.New(htmlOpts...)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(html); err != nil {
		return nil, err
	}

	format, err := parseOutputFormat(flags.format)
	if err != nil {
		return nil, err
	}
	tuiOpts := []tui.Option{
		tui.WithMessages(os.Stderr),
		tui.WithOutputFormat(format),
		tui.WithLogger(a.logger),
	}
	if newRecord != nil {
		tuiOpts = append(tuiOpts, tui.WithSubmitTransformer(validateAnswers(validation.NewStructValidator(), newRecord)))
	}
	terminal, err := tui.New(tuiOpts...)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(terminal); err != nil {
		return nil, err
	}
	return registry, nil
}

// validateAnswers rejects answers that fail the record's constraints,
// listing every failing path.
func validateAnswers(v *validation.StructValidator, newRecord preview.RecordFactory) tui.SubmitTransformer {
	return func(values map[string]any) (map[string]any, error) {
		tree, err := v.Values(values, newRecord())
		if err != nil {
			return nil, err
		}
		issues := flattenIssues(tree)
		if len(issues) == 0 {
			return values, nil
		}
		return nil, fmt.Errorf("invalid answers: %s", strings.Join(issues, "; "))
	}
}

func flattenIssues(tree map[string]any) []string {
	flat := fieldpath.Flatten(tree)
	out := make([]string, 0, len(flat))
	for path, message := range flat {
		out = append(out, fmt.Sprintf("%s %v", path, message))
	}
	sort.Strings(out)
	return out
}

func parseOutputFormat(raw string) (tui.OutputFormat, error) {
	switch format := tui.OutputFormat(strings.ToLower(strings.TrimSpace(raw))); format {
	case "", tui.OutputFormatJSON:
		return tui.OutputFormatJSON, nil
	case tui.OutputFormatFormURLEncoded, tui.OutputFormatPrettyText:
		return format, nil
	}
	return "", fmt.Errorf("unknown output format %q (use json, form or pretty)", raw)
}

func readRecord(raw string) (map[string]any, error) {
	data := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		var err error
		data, err = os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
	}
	record := make(map[string]any)
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return record, nil
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" {
		if _, err := stdout.Write(data); err != nil {
			return err
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			_, err := io.WriteString(stdout, "\n")
			return err
		}
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
