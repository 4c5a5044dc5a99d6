package docload

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Loader extracts plain text from one file format.
type Loader interface {
	Load(path string) (string, error)
}

// loaderMapping maps supported file extensions to their loaders.
var loaderMapping = map[string]Loader{
	".pdf":  pdfLoader{},
	".docx": docxLoader{},
	".txt":  txtLoader{},
}

// AllowedExtensions returns the supported extensions, sorted for stable
// error messages.
func AllowedExtensions() []string {
	exts := make([]string, 0, len(loaderMapping))
	for ext := range loaderMapping {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supported reports whether the file name has a loadable extension.
func Supported(fileName string) bool {
	_, ok := loaderMapping[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// UnsupportedTypeMessage is the 400-level message for rejected uploads.
func UnsupportedTypeMessage() string {
	return "Unsupported file type. Allowed types: " + strings.Join(AllowedExtensions(), ", ")
}

// Load extracts the text content of the file at path, dispatching on its
// extension.
func Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := loaderMapping[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file type: %s, allowed types: %s", ext, strings.Join(AllowedExtensions(), ", "))
	}
	return loader.Load(path)
}
