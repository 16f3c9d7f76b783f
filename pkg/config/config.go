// Package config loads and validates iconstack settings and size profiles.
//
// Settings live in a TOML file (by default
// $XDG_CONFIG_HOME/iconstack/config.toml):
//
//	max_layers    = 4
//	size_min      = 16
//	size_max      = 512
//	base_exponent = 5
//	row_capacity  = 2
//	interpolation = "lanczos"
//
// A missing file means defaults. This package is also the validation layer
// for sizes: selections are bounds-checked here before they reach the
// stack generator, which trusts its input.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/layout"
	"github.com/matzehuels/iconstack/pkg/stack"
)

const (
	appName = "iconstack"

	// DefaultSizeMin is the smallest size a slot accepts.
	DefaultSizeMin = 16

	// DefaultSizeMax is the largest size a slot accepts.
	DefaultSizeMax = 512

	// DefaultInterpolation is the resampling filter used when scaling.
	DefaultInterpolation = "lanczos"
)

// Interpolations lists the accepted resampling filter names.
var Interpolations = []string{"nearest", "box", "linear", "catmullrom", "lanczos"}

// Config holds the recognized options.
type Config struct {
	MaxLayers     int    `toml:"max_layers" json:"max_layers"`
	SizeMin       int    `toml:"size_min" json:"size_min"`
	SizeMax       int    `toml:"size_max" json:"size_max"`
	BaseExponent  int    `toml:"base_exponent" json:"base_exponent"`
	RowCapacity   int    `toml:"row_capacity" json:"row_capacity"`
	Interpolation string `toml:"interpolation" json:"interpolation"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxLayers:     stack.DefaultMaxLayers,
		SizeMin:       DefaultSizeMin,
		SizeMax:       DefaultSizeMax,
		BaseExponent:  stack.DefaultBaseExponent,
		RowCapacity:   layout.DefaultRowCapacity,
		Interpolation: DefaultInterpolation,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	switch {
	case c.MaxLayers < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "max_layers must be at least 1, got %d", c.MaxLayers)
	case c.SizeMin < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "size_min must be at least 1, got %d", c.SizeMin)
	case c.SizeMax < c.SizeMin:
		return errors.New(errors.ErrCodeInvalidConfig, "size_max (%d) is below size_min (%d)", c.SizeMax, c.SizeMin)
	case c.BaseExponent < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "base_exponent must not be negative, got %d", c.BaseExponent)
	case c.RowCapacity < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "row_capacity must be at least 1, got %d", c.RowCapacity)
	case c.Interpolation != "" && !slices.Contains(Interpolations, c.Interpolation):
		return errors.New(errors.ErrCodeInvalidConfig, "unknown interpolation %q (must be one of %v)", c.Interpolation, Interpolations)
	}
	return nil
}

// DefaultSize returns the default size of slot i.
func (c Config) DefaultSize(i int) int {
	return stack.DefaultSize(i, c.BaseExponent)
}

// DefaultSelections returns every slot enabled at its default size.
func (c Config) DefaultSelections() []stack.Selection {
	return stack.DefaultSelections(c.MaxLayers, c.BaseExponent)
}

// Rows returns the control layout for the configured slots.
func (c Config) Rows() [][]layout.ControlID {
	return layout.Rows(c.MaxLayers, c.RowCapacity)
}

// ValidateSelections checks that sel has one entry per slot and that every
// size is within [SizeMin, SizeMax]. Disabled slots are checked too so a
// profile never stores an out-of-range value.
func (c Config) ValidateSelections(sel []stack.Selection) error {
	if len(sel) != c.MaxLayers {
		return errors.New(errors.ErrCodeInvalidInput, "expected %d selections, got %d", c.MaxLayers, len(sel))
	}
	for i, s := range sel {
		if err := errors.ValidateSize(s.Size, c.SizeMin, c.SizeMax); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSize, err, "slot %d", i)
		}
	}
	return nil
}

// Load reads a TOML config file. Keys absent from the file keep their
// default values; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault is like Load but treats a missing file as the default
// configuration.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, errors.ErrCodeFileNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// Write encodes cfg as TOML to path, creating parent directories.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Dir returns the configuration directory using XDG standard
// (~/.config/iconstack/).
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the path of the default config file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
