package dat

import (
	"errors"
	"fmt"
	"io"

	"github.com/meigma/dat/internal/sizing"
)

// source is where an Item's bytes come from. It is either a streamSource or
// an entrySource, fixed at construction.
type source interface {
	materialize(it *Item) ([]byte, error)
	compressed() bool
}

// streamSource reads a whole standalone file. The stream is closed once
// materialization has been attempted.
type streamSource struct {
	rs io.ReadSeekCloser
}

func (streamSource) compressed() bool { return false }

func (s streamSource) materialize(it *Item) (buf []byte, err error) {
	defer func() {
		if cerr := s.rs.Close(); cerr != nil && err == nil {
			buf, err = nil, fmt.Errorf("close stream: %w", cerr)
		}
	}()

	end, err := s.rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek to end: %w", err)
	}
	if end < 0 || !sizing.WithinLimit(uint64(end), it.maxSize) {
		return nil, fmt.Errorf("%w: stream is %d bytes", ErrSizeOverflow, end)
	}
	size, err := sizing.ToInt(uint64(end), ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	if _, err := s.rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to start: %w", err)
	}

	buf = make([]byte, size)
	if n, err := io.ReadFull(s.rs, buf); err != nil {
		return nil, readError(err, n, size)
	}
	return buf, nil
}

// entrySource reads a member out of its parent archive.
type entrySource struct {
	entry *Entry
}

func (s entrySource) compressed() bool { return s.entry.Compressed }

func (s entrySource) materialize(it *Item) (buf []byte, err error) {
	e := s.entry
	if e.Archive == nil {
		return nil, ErrNoArchive
	}
	if err := validateEntry(e, it.maxSize); err != nil {
		return nil, err
	}

	size, err := sizing.ToInt(e.UnpackedSize, ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	offset, err := sizing.ToInt64(e.DataOffset, ErrSizeOverflow)
	if err != nil {
		return nil, err
	}

	restore, err := seekAccessor(e.Archive, offset)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := restore(); rerr != nil && err == nil {
			buf, err = nil, rerr
		}
	}()

	buf = make([]byte, size)
	if !e.Compressed {
		if n, err := e.Archive.ReadBytes(buf); err != nil {
			return nil, readError(err, n, size)
		}
		return buf, nil
	}

	packedLen, err := sizing.ToInt(e.PackedSize, ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	packed := make([]byte, packedLen)
	if n, err := e.Archive.ReadBytes(packed); err != nil {
		return nil, readError(err, n, packedLen)
	}
	if err := it.pool.Into(buf, packed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompression, err)
	}
	return buf, nil
}

// validateEntry checks an entry's size metadata before anything is allocated.
func validateEntry(e *Entry, maxSize uint64) error {
	if !sizing.WithinLimit(e.UnpackedSize, maxSize) {
		return fmt.Errorf("%w: unpacked size %d exceeds limit %d", ErrSizeOverflow, e.UnpackedSize, maxSize)
	}
	if e.Compressed {
		if !sizing.WithinLimit(e.PackedSize, maxSize) {
			return fmt.Errorf("%w: packed size %d exceeds limit %d", ErrSizeOverflow, e.PackedSize, maxSize)
		}
		return nil
	}
	if e.PackedSize != 0 && e.PackedSize != e.UnpackedSize {
		return fmt.Errorf("%w: stored entry has packed size %d but unpacked size %d",
			ErrDecompression, e.PackedSize, e.UnpackedSize)
	}
	return nil
}

// seekAccessor moves acc to pos and returns a function that puts it back
// where it was. The restore function must run on every exit path.
func seekAccessor(acc Accessor, pos int64) (func() error, error) {
	saved := acc.Position()
	if err := acc.SetPosition(pos); err != nil {
		_ = acc.SetPosition(saved) //nolint:errcheck // already failing
		return nil, fmt.Errorf("seek archive to %d: %w", pos, err)
	}
	return func() error {
		if err := acc.SetPosition(saved); err != nil {
			return fmt.Errorf("restore archive position %d: %w", saved, err)
		}
		return nil
	}, nil
}

// readError maps a failed full read to ErrShortRead when the source ran dry.
func readError(err error, n, expected int) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %d of %d bytes", ErrShortRead, n, expected)
	}
	return fmt.Errorf("read: %w", err)
}
