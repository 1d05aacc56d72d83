package dat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/meigma/dat/internal/inflate"
)

// Interface compliance.
var (
	_ Accessor = (*Archive)(nil)
	_ Accessor = (*sourceReader)(nil)
)

// sourceReader is a positioned Accessor over a ByteSource.
type sourceReader struct {
	src ByteSource
	pos int64
}

// Position returns the current read offset.
func (r *sourceReader) Position() int64 {
	return r.pos
}

// SetPosition moves the read offset. It rejects offsets outside the source.
func (r *sourceReader) SetPosition(pos int64) error {
	if pos < 0 || pos > r.src.Size() {
		return fmt.Errorf("%w: archive offset %d outside [0, %d]", ErrOutOfRange, pos, r.src.Size())
	}
	r.pos = pos
	return nil
}

// ReadBytes fills p from the current offset. A short read advances past the
// bytes that were read and returns io.ErrUnexpectedEOF.
func (r *sourceReader) ReadBytes(p []byte) (int, error) {
	n, err := r.src.ReadAt(p, r.pos)
	r.pos += int64(n)
	if n == len(p) {
		return n, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// fileSource wraps *os.File to implement ByteSource.
// os.File has ReadAt but not Size, so we cache the size at construction.
type fileSource struct {
	file *os.File
	size int64
}

// ReadAt implements io.ReaderAt.
func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

// Size returns the total size of the file.
func (s *fileSource) Size() int64 {
	return s.size
}

// Archive is a DAT2 archive: member data followed by a directory and an
// eight-byte footer.
//
// Archive is also the Accessor for its entries. Its position is shared by
// every Item opened from it, and each Item restores it after materializing.
// An Archive is not safe for concurrent use; Extract reads through private
// accessors and may run while no other method is in use.
type Archive struct {
	sourceReader

	entries      []*Entry
	byName       map[string]*Entry
	pool         *inflate.Pool
	maxEntrySize uint64
	logger       *slog.Logger
	cacheSize    int
	cache        *lru.Cache[string, []byte] // nil unless WithCache
	file         *os.File                   // nil unless opened by OpenFile
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// New reads the directory of the archive in src.
func New(src ByteSource, opts ...Option) (*Archive, error) {
	a := &Archive{
		sourceReader: sourceReader{src: src},
		pool:         inflate.NewPool(),
		maxEntrySize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cacheSize > 0 {
		cache, err := lru.New[string, []byte](a.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create cache: %w", err)
		}
		a.cache = cache
	}

	entries, err := loadDirectory(a)
	if err != nil {
		return nil, err
	}
	a.entries = entries
	a.byName = make(map[string]*Entry, len(entries))
	for _, e := range entries {
		name := NormalizeFilename(e.Filename)
		if _, dup := a.byName[name]; dup {
			a.log().Warn("duplicate archive entry", "filename", name)
			continue
		}
		a.byName[name] = e
	}
	a.log().Debug("archive directory loaded", "entries", len(entries), "size", src.Size())
	return a, nil
}

// OpenFile opens the archive at path. The returned Archive must be closed to
// release the file.
func OpenFile(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	a, err := New(&fileSource{file: f, size: info.Size()}, opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	a.file = f
	return a, nil
}

// Close releases the file opened by OpenFile. It is a no-op for archives
// created with New.
func (a *Archive) Close() error {
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Size returns the archive length in bytes.
func (a *Archive) Size() int64 {
	return a.src.Size()
}

// Len returns the number of entries in the directory.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entries returns the entries in directory order.
func (a *Archive) Entries() []*Entry {
	out := make([]*Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Entry looks up an entry by name. The name is normalized first, so
// "ART\INTRFACE\IFACE.FRM" and "art/intrface/iface.frm" are equivalent.
func (a *Archive) Entry(name string) (*Entry, bool) {
	e, ok := a.byName[NormalizeFilename(name)]
	return e, ok
}

// Open returns an unmaterialized Item for the named entry.
func (a *Archive) Open(name string, opts ...ItemOption) (*Item, error) {
	e, ok := a.Entry(name)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return NewEntryItem(e, a.itemOptions(opts)...), nil
}

// ReadFile returns the full content of the named entry.
//
// With WithCache, recently read entries are served from memory. The caller
// always receives its own copy.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	key := NormalizeFilename(name)
	if a.cache != nil {
		if data, ok := a.cache.Get(key); ok {
			return bytes.Clone(data), nil
		}
	}

	it, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := it.Bytes()
	if err != nil {
		return nil, err
	}
	if a.cache == nil {
		return data, nil
	}
	a.cache.Add(key, data)
	return bytes.Clone(data), nil
}

// itemOptions prepends the archive's defaults to caller options.
func (a *Archive) itemOptions(extra []ItemOption) []ItemOption {
	opts := make([]ItemOption, 0, 3+len(extra))
	opts = append(opts, withPool(a.pool), WithMaxSize(a.maxEntrySize), WithItemLogger(a.logger))
	return append(opts, extra...)
}
