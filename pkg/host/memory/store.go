// Package memory implements host.Store over in-process images.
//
// Layers hold real pixels (*image.NRGBA) and are scaled with
// github.com/disintegration/imaging, so the store can back the CLI, the
// HTTP API and end-to-end tests without an external editor.
package memory

import (
	"context"
	"image"
	"slices"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/host"
	"github.com/matzehuels/iconstack/pkg/stack"
)

var filters = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"box":        imaging.Box,
	"linear":     imaging.Linear,
	"catmullrom": imaging.CatmullRom,
	"lanczos":    imaging.Lanczos,
}

// DefaultInterpolation is used when Scale receives an empty name.
const DefaultInterpolation = "lanczos"

type layer struct {
	name  string
	pix   *image.NRGBA
	image host.ImageID // empty while detached
}

type img struct {
	name   string
	layers []stack.Handle // top first
}

// LayerInfo describes one layer of an image.
type LayerInfo struct {
	Handle stack.Handle
	Name   string
	Width  int
	Height int
}

// Store is an in-memory host.Store. It is safe for concurrent use, but a
// plan must still be applied sequentially to get the intended order.
type Store struct {
	mu     sync.Mutex
	images map[host.ImageID]*img
	layers map[stack.Handle]*layer
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		images: make(map[host.ImageID]*img),
		layers: make(map[stack.Handle]*layer),
	}
}

// AddImage creates an empty image.
func (s *Store) AddImage(name string) host.ImageID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := host.ImageID(uuid.NewString())
	s.images[id] = &img{name: name}
	return id
}

// AddLayer copies src into a new layer at the bottom of image.
func (s *Store) AddLayer(id host.ImageID, name string, src image.Image) (stack.Handle, error) {
	if err := errors.ValidateLayerName(name); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	im, ok := s.images[id]
	if !ok {
		return "", errors.New(errors.ErrCodeImageNotFound, "image %s", id)
	}
	h := stack.Handle(uuid.NewString())
	s.layers[h] = &layer{name: name, pix: imaging.Clone(src), image: id}
	im.layers = append(im.layers, h)
	return h, nil
}

// Layers lists the layers of image from top to bottom.
func (s *Store) Layers(id host.ImageID) ([]LayerInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	im, ok := s.images[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeImageNotFound, "image %s", id)
	}
	out := make([]LayerInfo, len(im.layers))
	for i, h := range im.layers {
		l := s.layers[h]
		b := l.pix.Bounds()
		out[i] = LayerInfo{Handle: h, Name: l.name, Width: b.Dx(), Height: b.Dy()}
	}
	return out, nil
}

// Drawable returns the drawable view of a layer, for use as a source
// candidate.
func (s *Store) Drawable(h stack.Handle) (host.Drawable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.lookup(h)
	if err != nil {
		return host.Drawable{}, err
	}
	return host.Drawable{Handle: h, Name: l.name, Kind: host.KindLayer}, nil
}

// Pixels returns a copy of the layer's pixels.
func (s *Store) Pixels(h stack.Handle) (*image.NRGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.lookup(h)
	if err != nil {
		return nil, err
	}
	return imaging.Clone(l.pix), nil
}

// Duplicate implements host.Store. The copy is detached until inserted.
func (s *Store) Duplicate(ctx context.Context, h stack.Handle) (stack.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.lookup(h)
	if err != nil {
		return "", err
	}
	dup := stack.Handle(uuid.NewString())
	s.layers[dup] = &layer{name: l.name + " copy", pix: imaging.Clone(l.pix)}
	return dup, nil
}

// Rename implements host.Store. Names are not required to be unique.
func (s *Store) Rename(ctx context.Context, h stack.Handle, name string) error {
	if err := errors.ValidateLayerName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.lookup(h)
	if err != nil {
		return err
	}
	l.name = name
	return nil
}

// Insert implements host.Store. A position p <= 0 inserts at index -p from
// the top and a positive p at index p; both are clamped to the stack size.
func (s *Store) Insert(ctx context.Context, id host.ImageID, h stack.Handle, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	im, ok := s.images[id]
	if !ok {
		return errors.New(errors.ErrCodeImageNotFound, "image %s", id)
	}
	l, err := s.lookup(h)
	if err != nil {
		return err
	}
	if l.image != "" {
		return errors.New(errors.ErrCodeInvalidInput, "layer %q is already part of an image", l.name)
	}

	idx := position
	if idx < 0 {
		idx = -idx
	}
	idx = min(idx, len(im.layers))
	im.layers = slices.Insert(im.layers, idx, h)
	l.image = id
	return nil
}

// Scale implements host.Store.
func (s *Store) Scale(ctx context.Context, h stack.Handle, width, height int, interpolation string) error {
	if width < 1 || height < 1 {
		return errors.New(errors.ErrCodeInvalidSize, "cannot scale to %dx%d", width, height)
	}
	if interpolation == "" {
		interpolation = DefaultInterpolation
	}
	filter, ok := filters[interpolation]
	if !ok {
		return errors.New(errors.ErrCodeUnsupported, "interpolation %q", interpolation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.lookup(h)
	if err != nil {
		return err
	}
	l.pix = imaging.Resize(l.pix, width, height, filter)
	return nil
}

func (s *Store) lookup(h stack.Handle) (*layer, error) {
	l, ok := s.layers[h]
	if !ok {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "layer %s", h)
	}
	return l, nil
}

var _ host.Store = (*Store)(nil)
