package assets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reports batches of changed asset files under a directory tree.
// Changes are collected until the tree has been quiet for the debounce
// interval and then delivered as one sorted batch.
type Watcher struct {
	watcher  *fsnotify.Watcher
	ext      string
	debounce time.Duration
	batches  chan []string
	errs     chan error
}

// NewWatcher watches root and every directory below it for files ending
// in ext.
func NewWatcher(root, ext string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	watcher := &Watcher{
		watcher:  w,
		ext:      strings.ToLower(ext),
		debounce: debounce,
		batches:  make(chan []string),
		errs:     make(chan error, 1),
	}
	if err := watcher.addTree(root); err != nil {
		_ = w.Close()
		return nil, err
	}
	return watcher, nil
}

// Batches receives sorted, de-duplicated lists of changed files. It is
// closed when Run returns.
func (w *Watcher) Batches() <-chan []string {
	return w.batches
}

// Errors receives watcher errors. Errors are dropped while one is unread.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Run delivers batches until ctx is cancelled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.batches)
	defer w.watcher.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.report(err)
					}
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			clear(pending)

			select {
			case w.batches <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) matches(path string) bool {
	return w.ext == "" || strings.ToLower(filepath.Ext(path)) == w.ext
}

func (w *Watcher) report(err error) {
	select {
	case w.errs <- err:
	default:
	}
}
