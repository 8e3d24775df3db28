package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// GUIDIndex maps asset GUIDs, as recorded in .meta sidecar files, to the
// absolute path of the asset each meta file describes.
type GUIDIndex struct {
	mu    sync.RWMutex
	paths map[string]string
}

// BuildGUIDIndex scans dir recursively for .meta files. Meta files that
// cannot be read or carry no guid are ignored.
func BuildGUIDIndex(dir string) (*GUIDIndex, error) {
	idx := &GUIDIndex{paths: make(map[string]string)}
	if err := idx.Reload(dir); err != nil {
		return nil, err
	}
	return idx, nil
}

// Reload rescans dir and replaces the index contents. On error the
// previous contents are kept.
func (idx *GUIDIndex) Reload(dir string) error {
	fresh := &GUIDIndex{paths: make(map[string]string)}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".meta") {
			return nil
		}
		guid, ok := readMetaGUID(path)
		if !ok {
			return nil
		}
		fresh.Add(guid, strings.TrimSuffix(path, filepath.Ext(path)))
		return nil
	})
	if err != nil {
		return fmt.Errorf("index meta files: %w", err)
	}

	idx.mu.Lock()
	idx.paths = fresh.paths
	idx.mu.Unlock()
	return nil
}

// Lookup returns the asset path recorded for guid.
func (idx *GUIDIndex) Lookup(guid string) (string, bool) {
	if idx == nil {
		return "", false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.paths[guid]
	return p, ok
}

// Add records a mapping; used when assets are created after indexing.
func (idx *GUIDIndex) Add(guid, path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.paths[guid] = path
}

// Len returns the number of indexed GUIDs.
func (idx *GUIDIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.paths)
}

func readMetaGUID(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	var meta struct {
		GUID string `yaml:"guid"`
	}
	if err := yaml.Unmarshal(sanitize(data), &meta); err != nil {
		return "", false
	}
	return meta.GUID, meta.GUID != ""
}
