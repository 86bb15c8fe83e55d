// Package preview serves the field lists as live HTML forms: GET renders a
// form (patched with the last saved record), POST applies the submission
// through the widgets, validates it against the form's record type and
// re-renders with errors or stores the record. Reference data and metrics
// are mounted alongside.
package preview

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-opsforms/components/refdata"
	"github.com/goliatone/go-opsforms/pkg/fieldpath"
	"github.com/goliatone/go-opsforms/pkg/fieldset"
	"github.com/goliatone/go-opsforms/pkg/form"
	"github.com/goliatone/go-opsforms/pkg/model"
	"github.com/goliatone/go-opsforms/pkg/render"
	rendertemplate "github.com/goliatone/go-opsforms/pkg/render/template"
	"github.com/goliatone/go-opsforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-opsforms/pkg/state"
	"github.com/goliatone/go-opsforms/pkg/validation"
	"github.com/goliatone/go-opsforms/pkg/widgets"
)

//go:embed templates/*.tpl
var pageTemplates embed.FS

// maxMemory bounds multipart parsing before spilling to disk.
const maxMemory = 32 << 20

// DefaultMaxBodyBytes bounds a submitted request body.
const DefaultMaxBodyBytes = 64 << 20

const invalidValueMessage = "is not a valid value"

type Option func(*Server)

// WithForms serves the documents in files instead of the embedded forms.
func WithForms(files fs.FS) Option {
	return func(s *Server) {
		if files != nil {
			s.forms = files
		}
	}
}

// WithRefdata replaces the reference-data component.
func WithRefdata(refs *refdata.Component) Option {
	return func(s *Server) {
		if refs != nil {
			s.refs = refs
		}
	}
}

// WithRenderer replaces the HTML renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithRecords replaces the record types used to validate submissions.
func WithRecords(records map[string]RecordFactory) Option {
	return func(s *Server) {
		if records != nil {
			s.records = records
		}
	}
}

// WithRegistry registers metrics on reg and serves it at /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithAssetsPath sets the route serving the renderer assets.
func WithAssetsPath(path string) Option {
	return func(s *Server) {
		if path = strings.TrimRight(strings.TrimSpace(path), "/"); path != "" {
			s.assetsPath = path
		}
	}
}

// WithMaxBodyBytes caps submitted request bodies; larger ones get a 413.
func WithMaxBodyBytes(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.maxBody = limit
		}
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server renders and accepts the field-list forms.
type Server struct {
	forms      fs.FS
	loader     *fieldset.Loader
	refs       *refdata.Component
	factory    *form.Factory
	renderer   render.Renderer
	pages      rendertemplate.TemplateRenderer
	validator  *validation.StructValidator
	records    map[string]RecordFactory
	registry   *prometheus.Registry
	assetsPath string
	maxBody    int64
	logger     logrus.FieldLogger

	mu    sync.RWMutex
	saved map[string]map[string]any
}

// New builds a Server. Without options it serves the embedded forms with the
// embedded reference catalogs.
func New(opts ...Option) (*Server, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Server{
		forms:      fieldset.Forms(),
		records:    DefaultRecords(),
		assetsPath: "/assets",
		maxBody:    DefaultMaxBodyBytes,
		logger:     discard,
		saved:      make(map[string]map[string]any),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if s.refs == nil {
		metrics, err := refdata.NewMetrics(s.registry)
		if err != nil {
			return nil, fmt.Errorf("preview: register metrics: %w", err)
		}
		refs, err := refdata.New(refdata.WithMetrics(metrics), refdata.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("preview: reference data: %w", err)
		}
		s.refs = refs
	}
	if s.renderer == nil {
		renderer, err := vanilla.New(vanilla.WithAssetsURL(s.assetsPath), vanilla.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("preview: renderer: %w", err)
		}
		s.renderer = renderer
	}

	templates, err := fs.Sub(pageTemplates, "templates")
	if err != nil {
		return nil, err
	}
	pages, err := rendertemplate.New(
		rendertemplate.WithFS(templates),
		rendertemplate.WithExtension(".tpl"),
	)
	if err != nil {
		return nil, fmt.Errorf("preview: page templates: %w", err)
	}
	s.pages = pages

	s.loader = fieldset.NewLoader(fieldset.WithFileSystem(s.forms), fieldset.WithLoaderLogger(s.logger))
	s.factory = form.New(form.WithLogger(s.logger))
	s.validator = validation.NewStructValidator()
	return s, nil
}

// Routes returns the server's handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Get("/forms/{name}", s.handleForm)
	r.Post("/forms/{name}", s.handleSubmit)
	r.Handle(s.assetsPath+"/*", http.StripPrefix(s.assetsPath+"/", http.FileServer(http.FS(vanilla.AssetsFS()))))
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	if _, err := s.refs.RegisterRoutes(r, ""); err != nil {
		s.logger.WithError(err).Error("refdata routes not registered")
	}
	return r
}

// Saved returns the last stored record of a form.
func (s *Server) Saved(name string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.saved[name]
	if !ok {
		return nil, false
	}
	return fieldpath.CloneMap(record), true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, http.StatusOK, map[string]any{
		"title": "Forms",
		"forms": fieldset.Names(s.forms),
	})
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	doc, fields, err := s.prepare(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	values := s.factory.InitialValues(fields)
	if record, ok := s.Saved(name); ok {
		values = s.factory.Patch(fields)(record)
	}
	notice := ""
	if r.URL.Query().Get("saved") != "" {
		notice = "Saved."
	}
	s.writeForm(w, r, http.StatusOK, name, doc, fields, state.New(state.WithInitialValues(values)), notice)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	doc, fields, err := s.prepare(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	files, err := parseBody(r)
	if err != nil {
		http.Error(w, err.Error(), bodyErrorStatus(err))
		return
	}

	st := state.New(state.WithInitialValues(s.factory.InitialValues(fields)))
	locals := widgets.NewLocals()
	defer locals.Close()
	grid, err := s.factory.Build(fields, st, s.schema(name), form.Props{Ctx: r.Context(), Locals: locals})
	if err != nil {
		s.writeError(w, err)
		return
	}
	rejected, err := render.ApplySubmission(grid, r.PostForm, files)
	if err != nil {
		http.Error(w, err.Error(), bodyErrorStatus(err))
		return
	}

	payload := make(map[string][]string)
	for _, path := range rejected {
		payload[path] = append(payload[path], invalidValueMessage)
	}
	if newRecord, ok := s.records[name]; ok {
		tree, err := s.validator.Values(st.Values(), newRecord())
		if err != nil {
			payload["form"] = append(payload["form"], "The submission could not be read.")
			s.logger.WithError(err).WithField("form", name).Warn("submission decode failed")
		}
		for path, message := range fieldpath.Flatten(tree) {
			if _, exists := payload[path]; !exists {
				payload[path] = []string{fmt.Sprint(message)}
			}
		}
	}

	if len(payload) > 0 {
		st.ApplyErrors(state.MapErrorPayload(fields, payload))
		s.writeForm(w, r, http.StatusUnprocessableEntity, name, doc, fields, st, "")
		return
	}

	s.mu.Lock()
	s.saved[name] = st.Values()
	s.mu.Unlock()
	s.logger.WithField("form", name).Info("record saved")
	http.Redirect(w, r, "/forms/"+name+"?saved=1", http.StatusSeeOther)
}

func (s *Server) prepare(ctx context.Context, name string) (*fieldset.Document, []model.FieldConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "/\\.") {
		return nil, nil, fs.ErrNotExist
	}
	doc, err := s.loader.Load(ctx, fieldset.SourceFromFS(name+".yaml"))
	if err != nil {
		return nil, nil, err
	}
	fields, err := Bind(doc, s.refs)
	if err != nil {
		return nil, nil, err
	}
	return doc, fields, nil
}

func (s *Server) schema(name string) validation.Schema {
	newRecord, ok := s.records[name]
	if !ok {
		return nil
	}
	return validation.FromStruct(newRecord())
}

func (s *Server) writeForm(w http.ResponseWriter, r *http.Request, status int, name string, doc *fieldset.Document, fields []model.FieldConfig, st *state.Form, notice string) {
	locals := widgets.NewLocals()
	defer locals.Close()

	grid, err := s.factory.Build(fields, st, s.schema(name), form.Props{
		Ctx:          r.Context(),
		Locals:       locals,
		AwaitOptions: true,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	body, err := s.renderer.Render(r.Context(), grid, render.RenderOptions{
		Action:      "/forms/" + name,
		Title:       doc.Title,
		SubmitLabel: doc.SubmitLabel,
		FormErrors:  st.FormErrors(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writePage(w, status, map[string]any{
		"title":   firstNonEmpty(doc.Title, name),
		"forms":   fieldset.Names(s.forms),
		"current": name,
		"notice":  notice,
		"body":    string(body),
	})
}

func (s *Server) writePage(w http.ResponseWriter, status int, data map[string]any) {
	page, err := s.pages.RenderTemplate("page", data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, page)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		code = http.StatusNotFound
	case errors.Is(err, fieldset.ErrUnknownSource), errors.Is(err, fieldset.ErrEmptyDocument):
		code = http.StatusUnprocessableEntity
	}
	if code == http.StatusInternalServerError {
		s.logger.WithError(err).Error("preview request failed")
	}
	http.Error(w, http.StatusText(code), code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"elapsed":    time.Since(started),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request handled")
	})
}

func parseBody(r *http.Request) (map[string][]*multipart.FileHeader, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, fmt.Errorf("preview: parse multipart form: %w", err)
		}
		if r.MultipartForm != nil {
			return r.MultipartForm.File, nil
		}
		return nil, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("preview: parse form: %w", err)
	}
	return nil, nil
}

func bodyErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, render.ErrUploadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
