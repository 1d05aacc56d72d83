package dat

import (
	"fmt"

	"github.com/meigma/dat/internal/sizing"
)

// DAT2 layout, all integers little-endian:
//
//	data      member bytes, addressed by record offsets
//	total     uint32 number of records
//	records   total × record
//	treeSize  uint32 length of total + records
//	dataSize  uint32 length of the whole archive
//
//	record := nameLen uint32 | name [nameLen]byte | compressed uint8 |
//	          unpacked uint32 | packed uint32 | offset uint32
const (
	footerSize    = 8
	minRecordSize = 4 + 1 + 4 + 4 + 4
	maxNameLen    = 4096
)

// recordFields is the fixed-size tail of a directory record.
type recordFields struct {
	Compressed uint8
	Unpacked   uint32
	Packed     uint32
	Offset     uint32
}

// loadDirectory decodes the footer and directory of a. Both regions are read
// as entries of a itself, so the archive position is left untouched.
func loadDirectory(a *Archive) ([]*Entry, error) {
	size := a.src.Size()
	if size < footerSize+4 {
		return nil, fmt.Errorf("%w: archive is %d bytes", ErrInvalidArchive, size)
	}

	footer := NewEntryItem(&Entry{
		Filename:     "footer",
		DataOffset:   uint64(size - footerSize), //nolint:gosec // size checked above
		UnpackedSize: footerSize,
		Archive:      a,
	}, WithItemLogger(a.logger))
	defer footer.Close()

	treeSize, err := footer.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: footer: %w", ErrInvalidArchive, err)
	}
	dataSize, err := footer.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: footer: %w", ErrInvalidArchive, err)
	}
	if int64(dataSize) != size {
		return nil, fmt.Errorf("%w: footer declares %d bytes, archive has %d", ErrInvalidArchive, dataSize, size)
	}
	if treeSize < 4 || int64(treeSize) > size-footerSize {
		return nil, fmt.Errorf("%w: directory size %d", ErrInvalidArchive, treeSize)
	}
	treeStart := uint64(size-footerSize) - uint64(treeSize) //nolint:gosec // bounds checked above

	tree := NewEntryItem(&Entry{
		Filename:     "directory",
		DataOffset:   treeStart,
		UnpackedSize: uint64(treeSize),
		Archive:      a,
	}, WithMaxSize(0), WithItemLogger(a.logger))
	defer tree.Close()

	total, err := tree.Uint32()
	if err != nil {
		return nil, fmt.Errorf("%w: directory: %w", ErrInvalidArchive, err)
	}
	remaining, err := tree.Remaining()
	if err != nil {
		return nil, err
	}
	if uint64(total) > uint64(remaining/minRecordSize) { //nolint:gosec // remaining is non-negative
		return nil, fmt.Errorf("%w: %d records cannot fit in %d bytes", ErrInvalidArchive, total, remaining)
	}

	entries := make([]*Entry, 0, total)
	for i := range total {
		e, err := readRecord(tree, a, treeStart)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidArchive, i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// readRecord decodes one directory record. dataEnd bounds the member data.
func readRecord(tree *Item, a *Archive, dataEnd uint64) (*Entry, error) {
	nameLen, err := tree.Uint32()
	if err != nil {
		return nil, err
	}
	if nameLen == 0 || nameLen > maxNameLen {
		return nil, fmt.Errorf("name length %d", nameLen)
	}
	name := make([]byte, nameLen)
	if _, err := tree.ReadBytes(name); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}

	var f recordFields
	if err := tree.Decode(&f); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if f.Compressed > 1 {
		return nil, fmt.Errorf("%s: compression flag %d", name, f.Compressed)
	}

	e := &Entry{
		Filename:     string(name),
		DataOffset:   uint64(f.Offset),
		PackedSize:   uint64(f.Packed),
		UnpackedSize: uint64(f.Unpacked),
		Compressed:   f.Compressed == 1,
		Archive:      a,
	}
	end, ok := sizing.AddUint64(e.DataOffset, e.StoredSize())
	if !ok || end > dataEnd {
		return nil, fmt.Errorf("%s: data [%d, +%d) outside data region of %d bytes", name, e.DataOffset, e.StoredSize(), dataEnd)
	}
	return e, nil
}
