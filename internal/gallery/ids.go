package gallery

import (
	"strings"

	"github.com/google/uuid"
)

// ID uniquely identifies a gallery across its entire lifecycle.
type ID string

// ItemID identifies a single marketplace listing within a gallery.
type ItemID string

// NewID mints a fresh gallery identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID validates an externally supplied gallery identifier.
func ParseID(value string) (ID, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	return ID(trimmed), true
}

func (id ID) String() string { return string(id) }
