package ico

import (
	"bytes"
	"image"
	"testing"

	"github.com/matzehuels/iconstack/pkg/errors"
)

func square(n int) image.Image {
	return image.NewNRGBA(image.Rect(0, 0, n, n))
}

func TestEncodeReadDirectory(t *testing.T) {
	var buf bytes.Buffer
	sizes := []int{512, 256, 64, 16}
	images := make([]image.Image, len(sizes))
	for i, s := range sizes {
		images[i] = square(s)
	}

	if err := Encode(&buf, images); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	data := buf.Bytes()
	if data[0] != 0 || data[1] != 0 || data[2] != 1 || data[4] != 4 {
		t.Errorf("bad header: % x", data[:6])
	}
	// 256 and 512 both use the zero byte.
	if data[6] != 0 || data[6+16] != 0 || data[6+32] != 64 {
		t.Errorf("bad width bytes: %d %d %d", data[6], data[22], data[38])
	}

	entries, err := ReadDirectory(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadDirectory() error: %v", err)
	}
	if len(entries) != len(sizes) {
		t.Fatalf("got %d entries, want %d", len(entries), len(sizes))
	}
	for i, e := range entries {
		if e.Width != sizes[i] || e.Height != sizes[i] {
			t.Errorf("entry %d = %dx%d, want %d", i, e.Width, e.Height, sizes[i])
		}
		if e.Bytes == 0 {
			t.Errorf("entry %d has no payload", i)
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		images []image.Image
	}{
		{"empty", nil},
		{"not square", []image.Image{image.NewNRGBA(image.Rect(0, 0, 32, 16))}},
		{"zero size", []image.Image{square(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Encode(&bytes.Buffer{}, tt.images)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Encode() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestReadDirectoryRejectsOtherFiles(t *testing.T) {
	_, err := ReadDirectory(bytes.NewReader([]byte{0x89, 'P', 'N', 'G', 0, 0, 0, 0}))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ReadDirectory(png) error = %v, want INVALID_FORMAT", err)
	}

	_, err = ReadDirectory(bytes.NewReader([]byte{0, 0}))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ReadDirectory(short) error = %v, want INVALID_FORMAT", err)
	}
}
