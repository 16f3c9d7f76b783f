package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// IconKeyOpts holds the parameters that change a rendered icon.
type IconKeyOpts struct {
	Sizes         []int  `json:"sizes"`
	Interpolation string `json:"interpolation"`
}

// Keyer builds cache keys.
type Keyer interface {
	// IconKey returns the key of the icon rendered from a source whose
	// pixels hash to sourceHash.
	IconKey(sourceHash string, opts IconKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// IconKey implements Keyer.
func (DefaultKeyer) IconKey(sourceHash string, opts IconKeyOpts) string {
	return hashKey("icon", sourceHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix so several front ends (CLI, HTTP
// API) can share one cache directory without colliding.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// IconKey generates a prefixed icon key.
func (k *ScopedKeyer) IconKey(sourceHash string, opts IconKeyOpts) string {
	return k.prefix + k.inner.IconKey(sourceHash, opts)
}

// hashKey returns "prefix:" followed by the SHA-256 of the JSON-encoded parts.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
