package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ObjectRef is a serialized reference to another asset.
type ObjectRef struct {
	FileID int64  `yaml:"fileID"`
	GUID   string `yaml:"guid"`
	Type   int    `yaml:"type"`
}

// IsZero reports whether the reference points nowhere.
func (r ObjectRef) IsZero() bool {
	return r.FileID == 0 && r.GUID == ""
}

// Vec2 is a serialized two-component vector.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Color is a linear RGBA color with components in [0,1].
type Color struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
	A float64 `yaml:"a"`
}

// White is the color used when a material declares no base color.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// TextureSlot is one entry of a material's texture environment.
type TextureSlot struct {
	Texture ObjectRef `yaml:"m_Texture"`
	Scale   Vec2      `yaml:"m_Scale"`
	Offset  Vec2      `yaml:"m_Offset"`
}

// Material is the parsed form of a material asset.
type Material struct {
	// ID is the asset-relative path ("Assets/...").
	ID       string
	Path     string
	Name     string
	Shader   ObjectRef
	Textures map[string]TextureSlot
	Floats   map[string]float64
	Colors   map[string]Color
}

// BaseColor returns _Color (or _BaseColor), defaulting to white.
func (m *Material) BaseColor() Color {
	for _, key := range []string{"_Color", "_BaseColor"} {
		if c, ok := m.Colors[key]; ok {
			return c
		}
	}
	return White
}

// MainTexture returns the _MainTex (or _BaseMap) slot when it references a texture.
func (m *Material) MainTexture() (TextureSlot, bool) {
	for _, key := range []string{"_MainTex", "_BaseMap"} {
		if slot, ok := m.Textures[key]; ok && !slot.Texture.IsZero() {
			return slot, true
		}
	}
	return TextureSlot{}, false
}

type materialDoc struct {
	Material *struct {
		Name            string    `yaml:"m_Name"`
		Shader          ObjectRef `yaml:"m_Shader"`
		SavedProperties struct {
			TexEnvs []map[string]yaml.Node `yaml:"m_TexEnvs"`
			Floats  []map[string]yaml.Node `yaml:"m_Floats"`
			Colors  []map[string]yaml.Node `yaml:"m_Colors"`
		} `yaml:"m_SavedProperties"`
	} `yaml:"Material"`
}

// errNoMaterial marks a file that parses but holds no Material document.
var errNoMaterial = errors.New("no material document")

// ParseMaterial decodes a serialized material. Files written by the editor
// carry %TAG directives and class tags on document markers; those are
// stripped before decoding since they carry no material data.
func ParseMaterial(r io.Reader) (*Material, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(sanitize(data)))
	for {
		var doc materialDoc
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errNoMaterial
			}
			return nil, fmt.Errorf("parse material: %w", err)
		}
		if doc.Material == nil {
			continue
		}
		return buildMaterial(&doc)
	}
}

func buildMaterial(doc *materialDoc) (*Material, error) {
	src := doc.Material
	m := &Material{
		Name:     src.Name,
		Shader:   src.Shader,
		Textures: make(map[string]TextureSlot),
		Floats:   make(map[string]float64),
		Colors:   make(map[string]Color),
	}

	for _, e := range properties(src.SavedProperties.TexEnvs) {
		var slot TextureSlot
		if err := e.value.Decode(&slot); err != nil {
			return nil, fmt.Errorf("texture %s: %w", e.name, err)
		}
		m.Textures[e.name] = slot
	}
	for _, e := range properties(src.SavedProperties.Floats) {
		var f float64
		if err := e.value.Decode(&f); err != nil {
			return nil, fmt.Errorf("float %s: %w", e.name, err)
		}
		m.Floats[e.name] = f
	}
	for _, e := range properties(src.SavedProperties.Colors) {
		var c Color
		if err := e.value.Decode(&c); err != nil {
			return nil, fmt.Errorf("color %s: %w", e.name, err)
		}
		m.Colors[e.name] = c
	}
	return m, nil
}

type property struct {
	name  string
	value *yaml.Node
}

// properties flattens both serialized property layouts: the current
// single-key maps ("- _Color: {...}") and the older first/second pairs
// ("- first: {name: _Color}\n  second: {...}").
func properties(list []map[string]yaml.Node) []property {
	out := make([]property, 0, len(list))
	for _, entry := range list {
		first, hasFirst := entry["first"]
		second, hasSecond := entry["second"]
		if hasFirst && hasSecond {
			var key struct {
				Name string `yaml:"name"`
			}
			if err := first.Decode(&key); err != nil || key.Name == "" {
				continue
			}
			out = append(out, property{name: key.Name, value: &second})
			continue
		}
		for name, value := range entry {
			v := value
			out = append(out, property{name: name, value: &v})
		}
	}
	return out
}

func sanitize(data []byte) []byte {
	lines := bytes.Split(data, []byte("\n"))
	out := make([][]byte, 0, len(lines))
	for _, line := range lines {
		line = bytes.TrimSuffix(line, []byte("\r"))
		switch {
		case bytes.HasPrefix(line, []byte("%")):
			continue
		case bytes.HasPrefix(line, []byte("--- ")):
			line = []byte("---")
		}
		out = append(out, line)
	}
	return bytes.Join(out, []byte("\n"))
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
