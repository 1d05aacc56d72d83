package testutil

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// TestEntry holds data for building a test archive.
type TestEntry struct {
	Name     string
	Content  []byte
	Compress bool
}

// Record describes a directory record as written by BuildArchive.
type Record struct {
	Name       string
	Compressed bool
	Unpacked   uint32
	Packed     uint32
	Offset     uint32
}

// BuildArchive lays out entries in DAT2 form: member data in order, then
// the directory and footer.
func BuildArchive(tb testing.TB, entries []TestEntry) []byte {
	tb.Helper()

	var data bytes.Buffer
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		stored := e.Content
		if e.Compress {
			stored = Compress(tb, e.Content)
		}
		records = append(records, Record{
			Name:       e.Name,
			Compressed: e.Compress,
			Unpacked:   uint32(len(e.Content)), //nolint:gosec // test data is small
			Packed:     uint32(len(stored)),    //nolint:gosec // test data is small
			Offset:     uint32(data.Len()),     //nolint:gosec // test data is small
		})
		data.Write(stored)
	}
	return AppendDirectory(data.Bytes(), records)
}

// AppendDirectory appends a directory holding records and a footer to data.
// Records are written as given, so tests can describe inconsistent archives.
func AppendDirectory(data []byte, records []Record) []byte {
	tree := binary.LittleEndian.AppendUint32(nil, uint32(len(records))) //nolint:gosec // test data is small
	for _, r := range records {
		tree = binary.LittleEndian.AppendUint32(tree, uint32(len(r.Name))) //nolint:gosec // test data is small
		tree = append(tree, r.Name...)
		var flag byte
		if r.Compressed {
			flag = 1
		}
		tree = append(tree, flag)
		tree = binary.LittleEndian.AppendUint32(tree, r.Unpacked)
		tree = binary.LittleEndian.AppendUint32(tree, r.Packed)
		tree = binary.LittleEndian.AppendUint32(tree, r.Offset)
	}

	out := make([]byte, 0, len(data)+len(tree)+8)
	out = append(out, data...)
	out = append(out, tree...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(tree)))  //nolint:gosec // test data is small
	out = binary.LittleEndian.AppendUint32(out, uint32(len(out)+4)) //nolint:gosec // test data is small
	return out
}
