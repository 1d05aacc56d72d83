package dat

import "io"

// Accessor is a positioned reader over a whole archive.
//
// Its position is shared by every Entry drawn from the same archive, so
// readers must restore it after use. *Archive implements Accessor.
type Accessor interface {
	// Position returns the current read offset.
	Position() int64

	// SetPosition moves the read offset to pos.
	SetPosition(pos int64) error

	// ReadBytes fills p from the current offset and advances past the bytes read.
	// It returns an error if fewer than len(p) bytes were available.
	ReadBytes(p []byte) (int, error)
}

// ByteSource provides random access to archive bytes.
//
// *os.File wrapped by OpenFile, *bytes.Reader, and *io.SectionReader all
// satisfy it.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// Entry describes one member stored inside an archive.
type Entry struct {
	// Filename is the member name as stored in the archive directory.
	Filename string

	// DataOffset is the byte offset in the archive where the member's data begins.
	DataOffset uint64

	// PackedSize is the number of bytes stored in the archive.
	// For uncompressed members it equals UnpackedSize or is zero.
	PackedSize uint64

	// UnpackedSize is the size of the member after decompression.
	UnpackedSize uint64

	// Compressed reports whether the stored bytes are a zlib stream.
	Compressed bool

	// Archive is the accessor the member's bytes are read from.
	Archive Accessor
}

// StoredSize returns the number of archive bytes occupied by the member.
func (e *Entry) StoredSize() uint64 {
	if e.Compressed {
		return e.PackedSize
	}
	return e.UnpackedSize
}
