// Package imageio reads source images and writes generated layers and plans.
//
// Decoding supports PNG, JPEG and GIF from the standard library plus BMP,
// TIFF and WebP from golang.org/x/image.
package imageio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/stack"
)

// NamedImage is a layer ready to be written.
type NamedImage struct {
	Name  string
	Image image.Image
}

// MaxDimension is the largest width or height Decode accepts.
const MaxDimension = 8192

// Decode reads an image in any registered format and reports the format
// name. Images wider or taller than MaxDimension are rejected.
func Decode(r io.Reader) (image.Image, string, error) {
	return DecodeLimit(r, MaxDimension)
}

// DecodeLimit is like Decode with a caller-chosen dimension bound. The
// header is checked before any pixel data is decoded.
func DecodeLimit(r io.Reader, maxDim int) (image.Image, string, error) {
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode image")
	}
	if cfg.Width > maxDim || cfg.Height > maxDim {
		return nil, "", errors.New(errors.ErrCodeImageTooLarge,
			"image is %dx%d, limit is %dx%d", cfg.Width, cfg.Height, maxDim, maxDim)
	}
	m, format, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode image")
	}
	return m, format, nil
}

// Open decodes the image file at path.
func Open(path string) (image.Image, string, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, "", err
	}
	defer f.Close()
	return Decode(f)
}

// WriteLayers writes one PNG per layer into dir, named "{name}.png", and
// returns the written paths in layer order. Layers sharing a name get a
// numeric suffix so none is overwritten.
func WriteLayers(dir string, layers []NamedImage) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	seen := make(map[string]int, len(layers))
	paths := make([]string, 0, len(layers))
	for _, l := range layers {
		if err := errors.ValidateLayerName(l.Name); err != nil {
			return paths, err
		}
		base := l.Name
		if n := seen[l.Name]; n > 0 {
			base = fmt.Sprintf("%s-%d", l.Name, n)
		}
		seen[l.Name]++

		path := filepath.Join(dir, base+".png")
		if err := writePNG(path, l.Image); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writePNG(path string, m image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, m); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Plan is the JSON form of a layer plan.
type Plan struct {
	Source stack.Handle    `json:"source"`
	Ops    []stack.LayerOp `json:"ops"`
}

// WritePlan encodes a plan as indented JSON.
func WritePlan(w io.Writer, source stack.Handle, ops []stack.LayerOp) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if ops == nil {
		ops = []stack.LayerOp{}
	}
	return enc.Encode(Plan{Source: source, Ops: ops})
}

// ReadPlan decodes a plan written by WritePlan.
func ReadPlan(r io.Reader) (Plan, error) {
	var p Plan
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return p, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode plan")
	}
	return p, nil
}
