package preview

import (
	"context"
	"image"
	"sync"

	"github.com/JPM1118/matthumb/internal/assets"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	defaultSize      = 256
	defaultWorkers   = 4
	defaultCacheSize = 256
)

// Options configures a Generator. Zero values fall back to defaults.
type Options struct {
	Size      int
	Workers   int
	CacheSize int
	Logger    zerolog.Logger
}

// Generator renders material previews in the background. Preview never
// blocks: the first call for a material starts a render job and returns
// nil, later calls return the image once the job has finished.
type Generator struct {
	opts    Options
	locator TextureLocator
	sem     *semaphore.Weighted
	cache   *lru.Cache[string, image.Image]
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[string]struct{}
	failed  map[string]error
}

// NewGenerator creates a generator that resolves main textures through loc.
// loc may be nil, in which case every preview is a color swatch.
func NewGenerator(loc TextureLocator, opts Options) (*Generator, error) {
	if opts.Size <= 0 {
		opts.Size = defaultSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, image.Image](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Generator{
		opts:    opts,
		locator: loc,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		cache:   cache,
		log:     opts.Logger.With().Str("component", "preview").Logger(),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]struct{}),
		failed:  make(map[string]error),
	}, nil
}

// Preview returns the rendered preview for m, or nil if it is not ready.
// A material whose render failed keeps returning nil and is not retried.
func (g *Generator) Preview(m *assets.Material) image.Image {
	g.mu.Lock()
	defer g.mu.Unlock()

	if img, ok := g.cache.Get(m.ID); ok {
		return img
	}
	if _, ok := g.pending[m.ID]; ok {
		return nil
	}
	if _, ok := g.failed[m.ID]; ok {
		return nil
	}
	if g.ctx.Err() != nil {
		return nil
	}

	g.pending[m.ID] = struct{}{}
	g.wg.Add(1)
	go g.render(m)
	return nil
}

// IsLoading reports whether a render job for m is queued or running.
func (g *Generator) IsLoading(m *assets.Material) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[m.ID]
	return ok
}

// Err returns the render error recorded for m, if any.
func (g *Generator) Err(m *assets.Material) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failed[m.ID]
}

// Forget drops cached state for id so the next Preview renders again.
func (g *Generator) Forget(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache.Remove(id)
	delete(g.failed, id)
}

// Close cancels queued jobs and waits for running ones.
func (g *Generator) Close() {
	g.cancel()
	g.wg.Wait()
}

func (g *Generator) render(m *assets.Material) {
	defer g.wg.Done()

	if err := g.sem.Acquire(g.ctx, 1); err != nil {
		g.finish(m.ID, nil, err)
		return
	}
	img, err := Render(m, g.locator, g.opts.Size)
	g.sem.Release(1)

	if err != nil {
		g.log.Debug().Err(err).Str("material", m.ID).Msg("preview render failed")
	}
	g.finish(m.ID, img, err)
}

func (g *Generator) finish(id string, img image.Image, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, id)
	if err != nil {
		g.failed[id] = err
		return
	}
	g.cache.Add(id, img)
}
