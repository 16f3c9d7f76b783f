package memory

import (
	"context"
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/host"
	"github.com/matzehuels/iconstack/pkg/stack"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, c)
		}
	}
	return m
}

func newImage(t *testing.T) (*Store, host.ImageID, stack.Handle) {
	t.Helper()
	s := NewStore()
	id := s.AddImage("icon")
	base, err := s.AddLayer(id, "Base", solid(600, 600, color.NRGBA{R: 200, A: 255}))
	if err != nil {
		t.Fatalf("AddLayer() error: %v", err)
	}
	return s, id, base
}

func names(infos []LayerInfo) []string {
	out := make([]string, len(infos))
	for i, l := range infos {
		out[i] = l.Name
	}
	return out
}

func TestApplyScenario(t *testing.T) {
	s, id, base := newImage(t)
	sel := []stack.Selection{{Enabled: true, Size: 256}, {Enabled: false, Size: 128}, {Enabled: true, Size: 64}, {Enabled: true, Size: 32}}

	created, err := host.Apply(context.Background(), s, id, stack.Generate(base, sel), host.ApplyOptions{})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("created %d layers, want 3", len(created))
	}

	layers, err := s.Layers(id)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"256x256", "64x64", "32x32", "Base"}
	if got := names(layers); !slices.Equal(got, want) {
		t.Errorf("stack = %v, want %v", got, want)
	}
	for _, l := range layers[:3] {
		if l.Width != l.Height || stack.LayerName(l.Width) != l.Name {
			t.Errorf("layer %s has bounds %dx%d", l.Name, l.Width, l.Height)
		}
	}
	if layers[3].Width != 600 {
		t.Errorf("source resized to %d, want untouched 600", layers[3].Width)
	}
}

func TestApplyKeepsLayersAboveExistingStack(t *testing.T) {
	s, id, base := newImage(t)
	if _, err := s.AddLayer(id, "Background", solid(10, 10, color.NRGBA{A: 255})); err != nil {
		t.Fatal(err)
	}

	_, err := host.Apply(context.Background(), s, id, stack.Generate(base, stack.DefaultSelections(4, 5)), host.ApplyOptions{Interpolation: "nearest"})
	if err != nil {
		t.Fatal(err)
	}

	layers, _ := s.Layers(id)
	want := []string{"256x256", "128x128", "64x64", "32x32", "Base", "Background"}
	if got := names(layers); !slices.Equal(got, want) {
		t.Errorf("stack = %v, want %v", got, want)
	}
}

func TestScalePreservesColor(t *testing.T) {
	s, id, base := newImage(t)
	ops := stack.Generate(base, []stack.Selection{{Enabled: true, Size: 16}})
	created, err := host.Apply(context.Background(), s, id, ops, host.ApplyOptions{Interpolation: "box"})
	if err != nil {
		t.Fatal(err)
	}

	pix, err := s.Pixels(created[0])
	if err != nil {
		t.Fatal(err)
	}
	if b := pix.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Fatalf("bounds = %v, want 16x16", b)
	}
	if c := pix.NRGBAAt(8, 8); c.R != 200 || c.A != 255 {
		t.Errorf("pixel = %+v, want solid red", c)
	}
}

func TestDuplicateNamesAreAllowed(t *testing.T) {
	s, id, base := newImage(t)
	sel := []stack.Selection{{Enabled: true, Size: 64}, {Enabled: true, Size: 64}}

	if _, err := host.Apply(context.Background(), s, id, stack.Generate(base, sel), host.ApplyOptions{}); err != nil {
		t.Fatal(err)
	}
	layers, _ := s.Layers(id)
	if got := names(layers); !slices.Equal(got, []string{"64x64", "64x64", "Base"}) {
		t.Errorf("stack = %v", got)
	}
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	s, id, base := newImage(t)

	if _, err := s.Duplicate(ctx, "missing"); !errors.Is(err, errors.ErrCodeLayerNotFound) {
		t.Errorf("Duplicate(missing) = %v, want LAYER_NOT_FOUND", err)
	}
	if err := s.Insert(ctx, "nope", base, 0); !errors.Is(err, errors.ErrCodeImageNotFound) {
		t.Errorf("Insert(bad image) = %v, want IMAGE_NOT_FOUND", err)
	}
	if err := s.Insert(ctx, id, base, 0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Insert(attached) = %v, want INVALID_INPUT", err)
	}
	if err := s.Scale(ctx, base, 0, 10, ""); !errors.Is(err, errors.ErrCodeInvalidSize) {
		t.Errorf("Scale(0) = %v, want INVALID_SIZE", err)
	}
	if err := s.Scale(ctx, base, 10, 10, "sinc"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Scale(sinc) = %v, want UNSUPPORTED", err)
	}
	if err := s.Rename(ctx, base, ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Rename(empty) = %v, want INVALID_INPUT", err)
	}
	if _, err := s.Layers("nope"); !errors.Is(err, errors.ErrCodeImageNotFound) {
		t.Errorf("Layers(nope) = %v, want IMAGE_NOT_FOUND", err)
	}
}

func TestDrawable(t *testing.T) {
	s, _, base := newImage(t)
	d, err := s.Drawable(base)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "Base" || d.Kind != host.KindLayer || d.Handle != base {
		t.Errorf("Drawable() = %+v", d)
	}
	if _, err := host.SelectSource([]host.Drawable{d}); err != nil {
		t.Errorf("SelectSource(store layer) = %v", err)
	}
}

func TestInsertPositions(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := s.AddImage("i")
	for _, n := range []string{"a", "b"} {
		if _, err := s.AddLayer(id, n, solid(1, 1, color.NRGBA{})); err != nil {
			t.Fatal(err)
		}
	}

	insert := func(name string, pos int) {
		t.Helper()
		src, _ := s.Layers(id)
		h, err := s.Duplicate(ctx, src[0].Handle)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Rename(ctx, h, name); err != nil {
			t.Fatal(err)
		}
		if err := s.Insert(ctx, id, h, pos); err != nil {
			t.Fatal(err)
		}
	}

	insert("top", 0)
	insert("second", -1)
	insert("positive", 1)
	insert("clamped", -99)

	layers, _ := s.Layers(id)
	want := []string{"top", "positive", "second", "a", "b", "clamped"}
	if got := names(layers); !slices.Equal(got, want) {
		t.Errorf("stack = %v, want %v", got, want)
	}
}
