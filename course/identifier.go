package course

import (
	"io"
	"strings"

	"github.com/google/uuid"
)

// IDSource mints unique identifiers for course entities. It is passed
// explicitly to whatever needs new identifiers, there is no ambient
// registry.
type IDSource struct {
	newUUID func() uuid.UUID
}

// NewIDSource creates a source backed by random UUIDs.
func NewIDSource() *IDSource {
	return &IDSource{newUUID: uuid.New}
}

// NewIDSourceFrom creates a source reading UUID bytes from r. Feeding it a
// deterministic reader makes identifier sequences reproducible in tests.
func NewIDSourceFrom(r io.Reader) *IDSource {
	return &IDSource{newUUID: func() uuid.UUID {
		u, err := uuid.NewRandomFromReader(r)
		if err != nil {
			return uuid.New()
		}
		return u
	}}
}

// Identifier returns a new identifier in the export format: "i" followed by
// 32 hex characters.
func (s *IDSource) Identifier() string {
	return "i" + s.Hex()
}

// Hex returns a bare 32 character hex identifier (question identifiers and
// account UUID fields carry no prefix).
func (s *IDSource) Hex() string {
	return strings.ReplaceAll(s.newUUID().String(), "-", "")
}

// UUID returns a canonical UUID string, used for answer identifiers.
func (s *IDSource) UUID() string {
	return s.newUUID().String()
}
