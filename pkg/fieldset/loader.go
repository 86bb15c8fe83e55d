package fieldset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// maxDocumentBytes caps remote documents.
const maxDocumentBytes = 4 << 20

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem sets the fs.FS used by SourceFromFS sources.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTPClient enables URL sources with the given client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		if client != nil {
			l.http = client
		}
	}
}

// WithHTTPFallback enables URL sources with a default client and timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		if l.http == nil {
			l.http = &http.Client{Timeout: timeout}
		}
	}
}

// WithLoaderLogger sets the loader's logger.
func WithLoaderLogger(logger logrus.FieldLogger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader reads documents from disk, an fs.FS, or HTTP. URL sources are
// disabled unless an HTTP client is configured.
type Loader struct {
	fs     fs.FS
	http   *http.Client
	logger logrus.FieldLogger
}

// NewLoader constructs a Loader. The embedded forms are the default fs.FS.
func NewLoader(options ...LoaderOption) *Loader {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	l := &Loader{fs: Forms(), logger: logger}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load reads and parses the document behind src.
func (l *Loader) Load(ctx context.Context, src Source) (*Document, error) {
	if src == nil {
		return nil, errors.New("fieldset: source is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = os.ReadFile(src.Location())
	case SourceKindFS:
		if l.fs == nil {
			return nil, errors.New("fieldset: filesystem is not configured")
		}
		data, err = fs.ReadFile(l.fs, src.Location())
	case SourceKindURL:
		data, err = l.fetch(ctx, src.Location())
	default:
		return nil, fmt.Errorf("fieldset: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return nil, fmt.Errorf("fieldset: read %s: %w", src.Location(), err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	l.logger.WithFields(logrus.Fields{
		"source": src.Location(),
		"kind":   src.Kind(),
		"form":   doc.Name,
	}).Debug("field list loaded")
	return doc, nil
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	if l.http == nil {
		return nil, errors.New("URL sources need an HTTP client")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/yaml, application/json")
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
}
