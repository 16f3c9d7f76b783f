// Package ico writes and inspects Windows icon (.ico) containers.
//
// Entries are stored PNG-compressed, which every Windows release since
// Vista and all browsers accept. Sizes of 256 and above are written with a
// zero width/height byte as the format requires; the real dimensions live
// in the PNG header.
package ico

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"io"

	"github.com/matzehuels/iconstack/pkg/errors"
)

const (
	headerSize = 6
	entrySize  = 16
	typeIcon   = 1
)

type header struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

type dirEntry struct {
	Width      uint8
	Height     uint8
	Colors     uint8
	Reserved   uint8
	Planes     uint16
	BitCount   uint16
	BytesInRes uint32
	Offset     uint32
}

// Entry describes one image stored in an icon.
type Entry struct {
	Width  int
	Height int
	Bytes  int
}

// Encode writes images as one icon, in the given order. Every image must
// be square and non-empty.
func Encode(w io.Writer, images []image.Image) error {
	if len(images) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "icon needs at least one image")
	}
	if len(images) > 0xFFFF {
		return errors.New(errors.ErrCodeInvalidInput, "too many images (%d)", len(images))
	}

	payloads := make([][]byte, len(images))
	sizes := make([]int, len(images))
	for i, m := range images {
		b := m.Bounds()
		if b.Dx() != b.Dy() || b.Dx() == 0 {
			return errors.New(errors.ErrCodeInvalidInput, "image %d is %dx%d, icons need square images", i, b.Dx(), b.Dy())
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, m); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode image %d", i)
		}
		payloads[i] = buf.Bytes()
		sizes[i] = b.Dx()
	}

	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, header{Type: typeIcon, Count: uint16(len(images))})

	offset := uint32(headerSize + entrySize*len(images))
	for i, p := range payloads {
		d := dimByte(sizes[i])
		_ = binary.Write(&out, binary.LittleEndian, dirEntry{
			Width:      d,
			Height:     d,
			Planes:     1,
			BitCount:   32,
			BytesInRes: uint32(len(p)),
			Offset:     offset,
		})
		offset += uint32(len(p))
	}
	for _, p := range payloads {
		out.Write(p)
	}

	_, err := w.Write(out.Bytes())
	return err
}

// ReadDirectory parses the icon header and returns its entries. PNG
// entries report their real dimensions; others fall back to the
// directory bytes.
func ReadDirectory(r io.ReaderAt) ([]Entry, error) {
	var h header
	if err := binary.Read(io.NewSectionReader(r, 0, headerSize), binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read icon header")
	}
	if h.Reserved != 0 || h.Type != typeIcon {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "not an icon file")
	}

	entries := make([]Entry, h.Count)
	for i := range entries {
		var d dirEntry
		sr := io.NewSectionReader(r, int64(headerSize+entrySize*i), entrySize)
		if err := binary.Read(sr, binary.LittleEndian, &d); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read entry %d", i)
		}
		e := Entry{Width: dimInt(d.Width), Height: dimInt(d.Height), Bytes: int(d.BytesInRes)}
		if cfg, err := png.DecodeConfig(io.NewSectionReader(r, int64(d.Offset), int64(d.BytesInRes))); err == nil {
			e.Width, e.Height = cfg.Width, cfg.Height
		}
		entries[i] = e
	}
	return entries, nil
}

func dimByte(n int) uint8 {
	if n >= 256 {
		return 0
	}
	return uint8(n)
}

func dimInt(b uint8) int {
	if b == 0 {
		return 256
	}
	return int(b)
}
