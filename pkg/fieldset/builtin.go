package fieldset

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed forms/*.yaml
var embeddedForms embed.FS

// Forms exposes the embedded field lists rooted at the forms directory.
func Forms() fs.FS {
	sub, err := fs.Sub(embeddedForms, "forms")
	if err != nil {
		return embeddedForms
	}
	return sub
}

// BuiltinNames lists the embedded form names, sorted.
func BuiltinNames() []string {
	return Names(Forms())
}

// Names lists the .yaml documents at the root of files without their
// extension, sorted.
func Names(files fs.FS) []string {
	if files == nil {
		return nil
	}
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Builtin loads one of the embedded forms by name.
func Builtin(name string) (*Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("fieldset: form name is required")
	}
	return NewLoader().Load(context.Background(), SourceFromFS(name+".yaml"))
}
