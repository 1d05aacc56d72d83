package dat

import (
	"encoding/binary"
	"fmt"
	"io"
)

// fixed consumes exactly n bytes. Nothing is consumed when fewer remain.
func (it *Item) fixed(n int) ([]byte, error) {
	if err := it.load(); err != nil {
		return nil, err
	}
	b, ok := it.cur.next(n)
	if !ok {
		return nil, fmt.Errorf("read %d bytes at %d of %q: %w", n, it.cur.pos(), it.filename, io.ErrUnexpectedEOF)
	}
	return b, nil
}

// Uint8 reads one byte.
func (it *Item) Uint8() (uint8, error) {
	b, err := it.fixed(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Int8 reads one byte as a signed value.
func (it *Item) Int8() (int8, error) {
	v, err := it.Uint8()
	return int8(v), err //nolint:gosec // bit-pattern reinterpretation
}

// Uint16 reads a 16-bit value in the item's byte order.
func (it *Item) Uint16() (uint16, error) {
	b, err := it.fixed(2)
	if err != nil {
		return 0, err
	}
	return it.endianness.order().Uint16(b), nil
}

// Int16 reads a 16-bit value as signed.
func (it *Item) Int16() (int16, error) {
	v, err := it.Uint16()
	return int16(v), err //nolint:gosec // bit-pattern reinterpretation
}

// Uint32 reads a 32-bit value in the item's byte order.
func (it *Item) Uint32() (uint32, error) {
	b, err := it.fixed(4)
	if err != nil {
		return 0, err
	}
	return it.endianness.order().Uint32(b), nil
}

// Int32 reads a 32-bit value as signed.
func (it *Item) Int32() (int32, error) {
	v, err := it.Uint32()
	return int32(v), err //nolint:gosec // bit-pattern reinterpretation
}

// Decode reads a fixed-size value, such as a struct of integer fields, in the
// item's byte order using encoding/binary. Unlike the single-value readers,
// a short read may leave the offset partway through the value.
func (it *Item) Decode(data any) error {
	if err := it.load(); err != nil {
		return err
	}
	return binary.Read(it, it.endianness.order(), data)
}
