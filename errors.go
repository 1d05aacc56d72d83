package dat

import "errors"

// Sentinel errors returned by Item and Archive operations.
var (
	// ErrDecompression is returned when an entry cannot be decoded into exactly
	// its declared unpacked size, or when its size metadata is inconsistent.
	ErrDecompression = errors.New("dat: decompression failed")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("dat: size overflow")

	// ErrShortRead is returned when the backing file or archive holds fewer
	// bytes than an entry requires.
	ErrShortRead = errors.New("dat: short read")

	// ErrOutOfRange is returned when a position or skip would move the cursor
	// outside [0, Size()].
	ErrOutOfRange = errors.New("dat: position out of range")

	// ErrInvalidArchive is returned when the archive footer or directory is malformed.
	ErrInvalidArchive = errors.New("dat: invalid archive")

	// ErrNoArchive is returned when an entry has no parent archive to read from.
	ErrNoArchive = errors.New("dat: entry has no archive")

	// ErrClosed is returned by operations on a closed Item.
	ErrClosed = errors.New("dat: item closed")
)
