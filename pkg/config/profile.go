package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/stack"
)

// Profile is a saved set of slot selections, used to run without the
// interactive form.
//
//	name = "windows"
//
//	[[slot]]
//	enabled = true
//	size = 256
//
//	[[slot]]
//	enabled = false
type Profile struct {
	Name  string `toml:"name,omitempty"`
	Slots []Slot `toml:"slot"`
}

// Slot is one saved slot. Nil fields fall back to the slot's defaults.
type Slot struct {
	Enabled *bool `toml:"enabled,omitempty"`
	Size    *int  `toml:"size,omitempty"`
}

// ProfileFromSelections builds a fully specified profile.
func ProfileFromSelections(name string, sel []stack.Selection) Profile {
	p := Profile{Name: name, Slots: make([]Slot, len(sel))}
	for i, s := range sel {
		enabled, size := s.Enabled, s.Size
		p.Slots[i] = Slot{Enabled: &enabled, Size: &size}
	}
	return p
}

// Resolve turns the profile into exactly cfg.MaxLayers selections. Slots
// the profile does not mention are enabled at their default size. Sizes
// are validated against the configured bounds.
func (p Profile) Resolve(cfg Config) ([]stack.Selection, error) {
	if len(p.Slots) > cfg.MaxLayers {
		return nil, errors.New(errors.ErrCodeInvalidProfile,
			"profile %q has %d slots, max_layers is %d", p.Name, len(p.Slots), cfg.MaxLayers)
	}

	sel := cfg.DefaultSelections()
	for i, slot := range p.Slots {
		if slot.Enabled != nil {
			sel[i].Enabled = *slot.Enabled
		}
		if slot.Size != nil {
			sel[i].Size = *slot.Size
		}
	}
	if err := cfg.ValidateSelections(sel); err != nil {
		return nil, err
	}
	return sel, nil
}

// LoadProfile reads a TOML profile.
func LoadProfile(path string) (Profile, error) {
	var p Profile
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		if os.IsNotExist(err) {
			return p, errors.Wrap(errors.ErrCodeFileNotFound, err, "profile %s", path)
		}
		return p, errors.Wrap(errors.ErrCodeInvalidProfile, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return p, errors.New(errors.ErrCodeInvalidProfile, "unknown key %q in %s", undecoded[0].String(), path)
	}
	if p.Name == "" {
		p.Name = trimExt(filepath.Base(path))
	}
	return p, nil
}

// SaveProfile writes p as TOML to path, creating parent directories.
func SaveProfile(path string, p Profile) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
