package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Database loads material assets by their asset-relative path.
type Database struct {
	resolver *Resolver
}

// NewDatabase creates a database over the given resolver's assets dir.
func NewDatabase(r *Resolver) *Database {
	return &Database{resolver: r}
}

// Resolve delegates to the underlying resolver.
func (db *Database) Resolve(file string) (string, error) {
	return db.resolver.Resolve(file)
}

// Load reads the material at rel. A missing file, an unparseable file or a
// file with no Material document yields (nil, nil): the caller treats it as
// "nothing to load". Other I/O errors are returned.
func (db *Database) Load(rel string) (*Material, error) {
	path := db.resolver.Abs(rel)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", rel, err)
	}
	defer f.Close()

	m, err := ParseMaterial(f)
	if err != nil {
		return nil, nil
	}
	m.ID = rel
	m.Path = path
	if m.Name == "" {
		m.Name = stem(path)
	}
	return m, nil
}
