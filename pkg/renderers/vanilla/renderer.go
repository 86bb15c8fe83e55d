package vanilla

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-opsforms/pkg/form"
	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/render"
	rendertemplate "github.com/goliatone/go-opsforms/pkg/render/template"
	"github.com/goliatone/go-opsforms/pkg/renderers/vanilla/components"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	components       *components.Registry
	policy           *bluemonday.Policy
	classes          ChromeClasses
	assetsURL        string
	logger           logrus.FieldLogger
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponents replaces the per-kind component registry.
func WithComponents(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.components = registry
		}
	}
}

// WithPolicy replaces the sanitizer applied to labels and help text.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithChromeClasses overrides the chrome CSS classes.
func WithChromeClasses(classes ChromeClasses) Option {
	return func(cfg *config) {
		cfg.classes = classes
	}
}

// WithAssetsURL links the embedded stylesheet and scripts from prefix, where
// the caller serves AssetsFS(). Empty renders the form without asset tags.
func WithAssetsURL(prefix string) Option {
	return func(cfg *config) {
		cfg.assetsURL = strings.TrimRight(strings.TrimSpace(prefix), "/")
	}
}

// WithLogger sets the logger used for render diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Renderer renders a grid as a plain HTML form.
type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	components *components.Registry
	policy     *bluemonday.Policy
	classes    ChromeClasses
	assetsURL  string
	logger     logrus.FieldLogger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.policy == nil {
		cfg.policy = DefaultPolicy()
	}
	if cfg.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		cfg.logger = logger
	}
	if cfg.components == nil {
		script := ""
		if cfg.assetsURL != "" {
			script = cfg.assetsURL + "/" + SearchScriptName
		}
		cfg.components = components.Default(script)
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := rendertemplate.New(
			rendertemplate.WithFS(cfg.templateFS),
			rendertemplate.WithExtension(".tpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:  renderer,
		components: cfg.components,
		policy:     cfg.policy,
		classes:    cfg.classes.withDefaults(),
		assetsURL:  cfg.assetsURL,
		logger:     cfg.logger,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render writes the grid as a <form>. Hidden slots are emitted with the
// hidden attribute so their values still post.
func (r *Renderer) Render(ctx context.Context, grid form.Grid, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	flat := &flattener{
		registry: r.components,
		data:     components.ComponentData{Template: r.templates},
		policy:   r.policy,
	}
	if err := flat.walk(grid.Slots); err != nil {
		return nil, err
	}

	var stylesheets []string
	if r.assetsURL != "" {
		stylesheets = append(stylesheets, r.assetsURL+"/"+StylesheetName)
	}
	extraStyles, scripts := r.components.Assets(flat.kinds)
	stylesheets = append(stylesheets, extraStyles...)

	columns := grid.Columns
	if columns <= 0 {
		columns = model.GridColumns
	}
	method, override := options.ResolvedMethod()

	result, err := r.templates.RenderTemplate("form", map[string]any{
		"classes":         r.classes,
		"action":          strings.TrimSpace(options.Action),
		"method":          method,
		"method_override": override,
		"multipart":       flat.multipart,
		"title":           strings.TrimSpace(options.Title),
		"hidden_fields":   render.SortedHiddenFields(options.Hidden),
		"form_errors":     options.FormErrors,
		"columns":         columns,
		"items":           flat.items,
		"submit_label":    options.SubmitText(),
		"stylesheets":     stylesheets,
		"scripts":         scripts,
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	r.logger.WithFields(logrus.Fields{
		"fields":    len(flat.kinds),
		"multipart": flat.multipart,
	}).Debug("vanilla form rendered")
	return []byte(result), nil
}
