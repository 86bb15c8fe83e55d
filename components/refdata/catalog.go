package refdata

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-opsforms/pkg/model"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Catalog is a named list of reference options.
type Catalog struct {
	Name    string
	Options []model.Option
}

var (
	defaultOnce     sync.Once
	defaultCatalogs []Catalog
	defaultErr      error
)

// DefaultCatalogs returns the embedded catalogs sorted by name. Each call
// returns a fresh copy.
func DefaultCatalogs() ([]Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalogs, defaultErr = loadDir(dataFS, "data")
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	return cloneCatalogs(defaultCatalogs), nil
}

func loadDir(files fs.FS, dir string) ([]Catalog, error) {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("refdata: read %s: %w", dir, err)
	}
	catalogs := make([]Catalog, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		f, err := files.Open(path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		catalog, err := LoadCatalog(strings.TrimSuffix(entry.Name(), ".yaml"), f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, catalog)
	}
	sort.Slice(catalogs, func(i, j int) bool { return catalogs[i].Name < catalogs[j].Name })
	return catalogs, nil
}

// LoadCatalog reads a YAML list of {value, label} entries. Entries without a
// value are skipped, duplicate values keep the first entry, and the result
// is sorted by label.
func LoadCatalog(name string, r io.Reader) (Catalog, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Catalog{}, fmt.Errorf("refdata: catalog name is required")
	}
	if r == nil {
		return Catalog{}, fmt.Errorf("refdata: missing reader")
	}

	var raw []model.Option
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return Catalog{}, fmt.Errorf("refdata: decode %s: %w", name, err)
	}

	seen := make(map[string]struct{}, len(raw))
	options := make([]model.Option, 0, len(raw))
	for _, option := range raw {
		key := strings.TrimSpace(fmt.Sprint(option.Value))
		if option.Value == nil || key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if strings.TrimSpace(option.Label) == "" {
			option.Label = key
		}
		options = append(options, option)
	}
	sort.SliceStable(options, func(i, j int) bool {
		return strings.ToLower(options[i].Label) < strings.ToLower(options[j].Label)
	})
	return Catalog{Name: name, Options: options}, nil
}

func cloneCatalogs(catalogs []Catalog) []Catalog {
	if catalogs == nil {
		return nil
	}
	out := make([]Catalog, len(catalogs))
	for i, catalog := range catalogs {
		out[i] = Catalog{Name: catalog.Name, Options: append([]model.Option(nil), catalog.Options...)}
	}
	return out
}
