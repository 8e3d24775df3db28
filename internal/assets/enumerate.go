package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Enumerate returns the absolute paths of every regular file under root
// whose extension matches ext (case-insensitive). Order is the WalkDir
// order. A missing root is an error: the input location is never created.
func Enumerate(root, ext string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", root, err)
	}
	ext = strings.ToLower(ext)

	files := make([]string, 0, 64)
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.ToLower(filepath.Ext(d.Name())) != ext {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", root, err)
	}
	return files, nil
}

// EnsureDir creates the output directory if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
