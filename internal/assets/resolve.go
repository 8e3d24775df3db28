package assets

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// PathResolutionError reports a file path that cannot be expressed
// relative to the assets directory.
type PathResolutionError struct {
	Path     string
	DataPath string
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("cannot create relative path for %q: not under %q", e.Path, e.DataPath)
}

// Resolver maps absolute file paths to "Assets/..." relative asset paths.
type Resolver struct {
	dataPath string
}

// NewResolver creates a resolver rooted at the project's assets directory.
func NewResolver(assetsDir string) (*Resolver, error) {
	abs, err := filepath.Abs(assetsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve assets dir: %w", err)
	}
	return &Resolver{dataPath: strings.TrimSuffix(toSlash(abs), "/")}, nil
}

// DataPath returns the normalized assets directory.
func (r *Resolver) DataPath() string {
	return r.dataPath
}

// Resolve returns the asset-relative path for file.
func (r *Resolver) Resolve(file string) (string, error) {
	file = toSlash(file)
	if len(file) <= len(r.dataPath) || !strings.HasPrefix(file, r.dataPath+"/") {
		return "", &PathResolutionError{Path: file, DataPath: r.dataPath}
	}
	return "Assets" + file[len(r.dataPath):], nil
}

// Abs is the inverse of Resolve.
func (r *Resolver) Abs(rel string) string {
	rel = toSlash(rel)
	rel = strings.TrimPrefix(strings.TrimPrefix(rel, "Assets"), "/")
	return filepath.FromSlash(path.Join(r.dataPath, rel))
}

// toSlash replaces backslashes regardless of the host separator, so
// Windows-style paths from config files normalize on every platform.
func toSlash(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), "\\", "/")
}
