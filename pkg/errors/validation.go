package errors

import (
	"strings"
	"unicode"
)

// ValidateSize checks that size lies in the inclusive range [lo, hi].
func ValidateSize(size, lo, hi int) error {
	if size < lo || size > hi {
		return New(ErrCodeInvalidSize, "size %d outside allowed range [%d, %d]", size, lo, hi)
	}
	return nil
}

// ValidateLayerName rejects names a host store could not display or
// round-trip through a file name.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 255 characters
//   - No control characters
//   - No path separators
func ValidateLayerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "layer name cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidInput, "layer name too long (max 255 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "layer name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "layer name cannot contain path separators")
	}
	return nil
}

// ValidatePath validates a user supplied output or input path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
