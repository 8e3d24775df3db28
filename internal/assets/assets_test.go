package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brushMat = `%YAML 1.1
%TAG !u! tag:unity3d.com,2011:
--- !u!21 &2100000
Material:
  serializedVersion: 6
  m_ObjectHideFlags: 0
  m_Name: InkBrush
  m_Shader: {fileID: 4800000, guid: 5a1c0f9e2b4d4c6e8f0a1b2c3d4e5f60, type: 3}
  m_ShaderKeywords:
  m_SavedProperties:
    serializedVersion: 3
    m_TexEnvs:
    - _BumpMap:
        m_Texture: {fileID: 0}
        m_Scale: {x: 1, y: 1}
        m_Offset: {x: 0, y: 0}
    - _MainTex:
        m_Texture: {fileID: 2800000, guid: 0123456789abcdef0123456789abcdef, type: 3}
        m_Scale: {x: 2, y: 1}
        m_Offset: {x: 0, y: 0.5}
    m_Floats:
    - _Cutoff: 0.25
    m_Colors:
    - _Color: {r: 1, g: 0.5, b: 0, a: 1}
`

const legacyMat = `%YAML 1.1
%TAG !u! tag:unity3d.com,2011:
--- !u!21 &2100000
Material:
  m_Name: OldBrush
  m_SavedProperties:
    serializedVersion: 2
    m_TexEnvs: []
    m_Floats:
    - first:
        name: _Glossiness
      second: 0.5
    m_Colors:
    - first:
        name: _Color
      second: {r: 0, g: 0, b: 1, a: 1}
`

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestEnumerate_FiltersByExtensionRecursively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mat"), brushMat)
	writeFile(t, filepath.Join(root, "sub", "b.MAT"), brushMat)
	writeFile(t, filepath.Join(root, "sub", "deeper", "c.mat"), brushMat)
	writeFile(t, filepath.Join(root, "sub", "c.mat.meta"), "guid: x\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "x")

	files, err := Enumerate(root, ".mat")
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f), "path %q should be absolute", f)
		assert.Equal(t, ".mat", strings.ToLower(filepath.Ext(f)))
	}

	again, err := Enumerate(root, ".mat")
	require.NoError(t, err)
	assert.Equal(t, files, again, "order should be deterministic within one platform")
}

func TestEnumerate_MissingRoot(t *testing.T) {
	_, err := Enumerate(filepath.Join(t.TempDir(), "missing"), ".mat")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestEnsureDir_CreatesNested(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "previews")
	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	require.NoError(t, EnsureDir(dir), "existing dir should not error")
}

func TestResolver_Resolve(t *testing.T) {
	r, err := NewResolver("/proj/Assets")
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"nested", "/proj/Assets/Resources/Brushes/Ink.mat", "Assets/Resources/Brushes/Ink.mat", false},
		{"backslashes", `\proj\Assets\Brushes\Ink.mat`, "Assets/Brushes/Ink.mat", false},
		{"shorter than data path", "/proj", "", true},
		{"equal to data path", "/proj/Assets", "", true},
		{"sibling prefix", "/proj/AssetsOld/Ink.mat", "", true},
		{"outside", "/elsewhere/Ink.mat", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.in)
			if tt.wantErr {
				var pre *PathResolutionError
				require.ErrorAs(t, err, &pre)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_AbsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, err := NewResolver(dir)
	require.NoError(t, err)

	file := filepath.Join(dir, "Brushes", "Ink.mat")
	rel, err := r.Resolve(file)
	require.NoError(t, err)
	assert.Equal(t, file, r.Abs(rel))
}

func TestParseMaterial(t *testing.T) {
	m, err := ParseMaterial(strings.NewReader(brushMat))
	require.NoError(t, err)

	assert.Equal(t, "InkBrush", m.Name)
	assert.Equal(t, "5a1c0f9e2b4d4c6e8f0a1b2c3d4e5f60", m.Shader.GUID)
	assert.InDelta(t, 0.25, m.Floats["_Cutoff"], 1e-9)
	assert.Equal(t, Color{R: 1, G: 0.5, B: 0, A: 1}, m.BaseColor())

	slot, ok := m.MainTexture()
	require.True(t, ok)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", slot.Texture.GUID)
	assert.Equal(t, Vec2{X: 2, Y: 1}, slot.Scale)
	assert.True(t, m.Textures["_BumpMap"].Texture.IsZero())
}

func TestParseMaterial_LegacyLayout(t *testing.T) {
	m, err := ParseMaterial(strings.NewReader(legacyMat))
	require.NoError(t, err)

	assert.Equal(t, "OldBrush", m.Name)
	assert.InDelta(t, 0.5, m.Floats["_Glossiness"], 1e-9)
	assert.Equal(t, Color{B: 1, A: 1}, m.BaseColor())
	_, ok := m.MainTexture()
	assert.False(t, ok)
}

func TestParseMaterial_NoMaterialDocument(t *testing.T) {
	_, err := ParseMaterial(strings.NewReader("--- !u!114 &1\nMonoBehaviour:\n  m_Name: x\n"))
	assert.ErrorIs(t, err, errNoMaterial)
}

func TestParseMaterial_DefaultsToWhite(t *testing.T) {
	m, err := ParseMaterial(strings.NewReader("Material:\n  m_Name: Plain\n"))
	require.NoError(t, err)
	assert.Equal(t, White, m.BaseColor())
}

func TestDatabase_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Brushes", "Ink.mat"), brushMat)
	writeFile(t, filepath.Join(dir, "Brushes", "Unnamed.mat"), "Material:\n  m_Shader: {fileID: 46}\n")
	writeFile(t, filepath.Join(dir, "Brushes", "Garbage.mat"), "{{{{ not yaml")

	r, err := NewResolver(dir)
	require.NoError(t, err)
	db := NewDatabase(r)

	m, err := db.Load("Assets/Brushes/Ink.mat")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "InkBrush", m.Name)
	assert.Equal(t, "Assets/Brushes/Ink.mat", m.ID)
	assert.Equal(t, filepath.Join(dir, "Brushes", "Ink.mat"), m.Path)

	m, err = db.Load("Assets/Brushes/Unnamed.mat")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Unnamed", m.Name, "name should fall back to the file stem")

	for _, rel := range []string{"Assets/Brushes/Missing.mat", "Assets/Brushes/Garbage.mat"} {
		m, err = db.Load(rel)
		assert.NoError(t, err, rel)
		assert.Nil(t, m, rel)
	}
}

func TestBuildGUIDIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Textures", "ink.png.meta"),
		"fileFormatVersion: 2\nguid: 0123456789abcdef0123456789abcdef\nTextureImporter:\n  mipmaps: {}\n")
	writeFile(t, filepath.Join(dir, "Textures", "broken.png.meta"), "fileFormatVersion: 2\n")

	idx, err := BuildGUIDIndex(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())

	p, ok := idx.Lookup("0123456789abcdef0123456789abcdef")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "Textures", "ink.png"), p)

	_, ok = idx.Lookup("missing")
	assert.False(t, ok)

	var nilIdx *GUIDIndex
	_, ok = nilIdx.Lookup("anything")
	assert.False(t, ok)
}

func TestGUIDIndex_Reload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Textures", "ink.png.meta"), "guid: aaaa\n")

	idx, err := BuildGUIDIndex(dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "Textures", "ink.png.meta")))
	writeFile(t, filepath.Join(dir, "Textures", "pencil.png.meta"), "guid: bbbb\n")
	require.NoError(t, idx.Reload(dir))

	_, ok := idx.Lookup("aaaa")
	assert.False(t, ok, "removed meta should drop out of the index")
	p, ok := idx.Lookup("bbbb")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "Textures", "pencil.png"), p)

	assert.Error(t, idx.Reload(filepath.Join(dir, "missing")))
	_, ok = idx.Lookup("bbbb")
	assert.True(t, ok, "failed reload should keep the previous contents")
}
