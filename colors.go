package server

import (
	"errors"
	"regexp"
)

// ErrInvalidColor rejects color strings that do not match the supported
// hex formats.
var ErrInvalidColor = errors.New("invalid color")

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{3})$`)

// ValidColor reports whether the string is a #RRGGBB or #RGB hex color,
// case-insensitive. Colors are stored exactly as received.
func ValidColor(color string) bool {
	return hexColorPattern.MatchString(color)
}
