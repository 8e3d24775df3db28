package testutil

import (
	"fmt"
	"image"
	"image/color"
	"path"
	"strings"
	"sync"

	"github.com/JPM1118/matthumb/internal/assets"
)

// FakeAssets implements drain.Assets over an in-memory set of materials
// keyed by absolute path. Paths outside Root fail to resolve; paths with
// no material load as nil.
type FakeAssets struct {
	mu        sync.Mutex
	Root      string
	Materials map[string]*assets.Material
	LoadErr   error
	LoadCalls int
}

// NewFakeAssets creates a FakeAssets rooted at root.
func NewFakeAssets(root string) *FakeAssets {
	return &FakeAssets{Root: strings.TrimSuffix(root, "/"), Materials: make(map[string]*assets.Material)}
}

// Add registers a material named name at <Root>/<file> and returns its path.
func (f *FakeAssets) Add(file, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	abs := f.Root + "/" + file
	f.Materials["Assets/"+file] = &assets.Material{ID: "Assets/" + file, Path: abs, Name: name}
	return abs
}

// Missing returns a path under Root that has no material.
func (f *FakeAssets) Missing(file string) string {
	return f.Root + "/" + file
}

func (f *FakeAssets) Resolve(file string) (string, error) {
	if !strings.HasPrefix(file, f.Root+"/") {
		return "", &assets.PathResolutionError{Path: file, DataPath: f.Root}
	}
	return "Assets" + file[len(f.Root):], nil
}

func (f *FakeAssets) Load(rel string) (*assets.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoadCalls++
	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	return f.Materials[rel], nil
}

// Behavior scripts how FakePreviews answers for one material.
type Behavior struct {
	// ReadyAfter is the number of polls that return nil before the preview
	// becomes available. Negative means never.
	ReadyAfter int
	// Loading is what IsLoading reports while the preview is not ready.
	Loading bool
	Color   color.RGBA
	Size    int
}

// FakePreviews implements drain.Previews with scripted behaviors.
// Materials without a behavior are ready on the first poll.
type FakePreviews struct {
	mu        sync.Mutex
	Behaviors map[string]Behavior
	polls     map[string]int
}

// NewFakePreviews creates an empty FakePreviews.
func NewFakePreviews() *FakePreviews {
	return &FakePreviews{Behaviors: make(map[string]Behavior), polls: make(map[string]int)}
}

// Set scripts the behavior for material id.
func (p *FakePreviews) Set(id string, b Behavior) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Behaviors[id] = b
}

func (p *FakePreviews) Preview(m *assets.Material) image.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.Behaviors[m.ID]
	if !ok {
		b = Behavior{Color: color.RGBA{R: 200, G: 100, B: 50, A: 255}}
	}
	n := p.polls[m.ID]
	p.polls[m.ID] = n + 1
	if b.ReadyAfter < 0 || n < b.ReadyAfter {
		return nil
	}
	size := b.Size
	if size <= 0 {
		size = 32
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = b.Color.R, b.Color.G, b.Color.B, b.Color.A
	}
	return img
}

func (p *FakePreviews) IsLoading(m *assets.Material) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.Behaviors[m.ID]
	return ok && b.Loading
}

// Polls returns how many times Preview was called for id.
func (p *FakePreviews) Polls(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls[id]
}

// MemorySink implements drain.Sink by keeping images in memory under the
// same file names a thumbnail.Writer would use.
type MemorySink struct {
	mu     sync.Mutex
	Prefix string
	Files  map[string]image.Image
	Writes int
	Err    error
}

// NewMemorySink creates a sink using the given file-name prefix.
func NewMemorySink(prefix string) *MemorySink {
	return &MemorySink{Prefix: prefix, Files: make(map[string]image.Image)}
}

func (s *MemorySink) Write(name string, img image.Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	if s.Err != nil {
		return "", s.Err
	}
	file := path.Join("/out", fmt.Sprintf("%s%s.png", s.Prefix, name))
	s.Files[file] = img
	return file, nil
}

// Len returns the number of distinct files written.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Files)
}
