package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// ErrInvalidName is returned for material names that cannot be used as a
// file name inside the output directory.
var ErrInvalidName = errors.New("invalid thumbnail name")

// ValidateName rejects empty names, names containing a path separator and
// names containing "..".
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Resize scales src into a new w x h image. The source is sampled
// bilinearly; the target is a plain pixel grid written once per pixel.
func Resize(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Encode returns img as PNG bytes. Go's encoder writes no ancillary
// chunks, so equal pixels always give equal bytes.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName returns the thumbnail file name for a material name.
func FileName(prefix, name string) string {
	return prefix + name + ".png"
}

// Writer writes fixed-size thumbnails into one directory.
type Writer struct {
	Dir    string
	Prefix string
	Size   int
}

// Write resizes img, encodes it and writes <Dir>/<Prefix><name>.png,
// replacing any earlier file of the same name. It returns the path written.
// Names that would resolve outside Dir are rejected with ErrInvalidName.
func (w Writer) Write(name string, img image.Image) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	data, err := Encode(Resize(img, w.Size, w.Size))
	if err != nil {
		return "", err
	}
	path := filepath.Join(w.Dir, FileName(w.Prefix, name))
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thumb-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
