// Package neuron defines the opaque identifiers and activation pairs that the
// synaptic graph is keyed by. The graph never looks inside an ID.
package neuron

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// ID is an opaque 128-bit neuron identifier.
type ID [16]byte

// Nil is the zero identifier.
var Nil ID

// New returns a random identifier.
func New() ID {
	return ID(uuid.New())
}

// Parse parses the canonical text form of an identifier.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("parsing neuron id %q: %w", s, err)
	}
	return ID(u), nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixtures.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// FromBytes copies b into an ID. b must be exactly 16 bytes.
func FromBytes(b []byte) (ID, error) {
	if len(b) != len(Nil) {
		return Nil, fmt.Errorf("neuron id must be %d bytes, got %d", len(Nil), len(b))
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// String returns the canonical text form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Compare orders identifiers bytewise.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// MarshalText implements encoding.TextMarshaler so IDs serialize as strings.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
