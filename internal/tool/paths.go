package tool

import (
	"fmt"
	"path/filepath"
	"strings"
)

// resolvePath joins a model-supplied relative path onto the project root and
// rejects anything that resolves outside it. Tool inputs come straight from
// the model, so "../" sequences must never reach files beyond rootDir.
func resolvePath(rootDir, path string) (string, error) {
	full := filepath.Join(rootDir, path)
	rel, err := filepath.Rel(rootDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the project root", path)
	}
	return full, nil
}
