package dat

import "encoding/binary"

// Endianness selects the byte order used to decode multi-byte integers.
type Endianness uint8

const (
	// LittleEndian decodes the least significant byte first. It is the default.
	LittleEndian Endianness = iota

	// BigEndian decodes the most significant byte first.
	BigEndian
)

// String returns the human-readable name of the byte order.
func (e Endianness) String() string {
	switch e {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	default:
		return "unknown"
	}
}

// order returns the encoding/binary decoder for e.
// Unknown values decode as little-endian.
func (e Endianness) order() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
