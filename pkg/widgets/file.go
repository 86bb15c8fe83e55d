package widgets

import (
	"encoding/base64"
	"strings"
	"sync"
)

// File is one selected upload. Data stays local; only the metadata reaches
// form values when marshalled.
type File struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Data []byte `json:"-"`
}

// IsImage reports whether the file has an image/* media type.
func (f File) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(f.Type)), "image/")
}

// FileInput keeps the selected files of a file field and the preview of the
// first image among them.
type FileInput struct {
	mu       sync.Mutex
	multiple bool
	files    []File
	preview  string
}

// NewFileInput builds an empty input. Without multiple only the first
// selected file is kept.
func NewFileInput(multiple bool) *FileInput {
	return &FileInput{multiple: multiple}
}

// Select replaces the selection and returns the list to write at the field
// path.
func (in *FileInput) Select(files ...File) []File {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.multiple && len(files) > 1 {
		files = files[:1]
	}
	in.files = append([]File(nil), files...)
	in.preview = ""
	for _, file := range in.files {
		if file.IsImage() && len(file.Data) > 0 {
			in.preview = DataURL(file)
			break
		}
	}
	return append([]File(nil), in.files...)
}

// Clear empties the selection.
func (in *FileInput) Clear() {
	in.mu.Lock()
	in.files = nil
	in.preview = ""
	in.mu.Unlock()
}

// Files returns a copy of the selection.
func (in *FileInput) Files() []File {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]File(nil), in.files...)
}

// Preview returns the data URL of the first image, or "".
func (in *FileInput) Preview() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.preview
}

// DataURL encodes file as a base64 data URL.
func DataURL(file File) string {
	mediaType := strings.TrimSpace(file.Type)
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(file.Data)
}

func toFiles(value any) []File {
	switch typed := value.(type) {
	case nil:
		return nil
	case File:
		return []File{typed}
	case []File:
		return typed
	case []any:
		out := make([]File, 0, len(typed))
		for _, entry := range typed {
			switch file := entry.(type) {
			case File:
				out = append(out, file)
			case map[string]any:
				out = append(out, fileFromMap(file))
			}
		}
		return out
	case map[string]any:
		return []File{fileFromMap(typed)}
	}
	return nil
}

func fileFromMap(raw map[string]any) File {
	file := File{}
	file.Name, _ = raw["name"].(string)
	file.Type, _ = raw["type"].(string)
	if size, ok := toFloat(raw["size"]); ok {
		file.Size = int64(size)
	}
	return file
}
