package dat

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/meigma/dat/internal/inflate"
)

// DefaultMaxSize is the default limit on a materialized item (256MB).
const DefaultMaxSize = 256 << 20

// sharedPool serves items that were not created through an Archive.
var sharedPool = inflate.NewPool()

// Interface compliance.
var (
	_ io.Reader     = (*Item)(nil)
	_ io.ByteReader = (*Item)(nil)
	_ io.Seeker     = (*Item)(nil)
	_ io.ReaderAt   = (*Item)(nil)
	_ io.Closer     = (*Item)(nil)
)

// Item is a binary stream over a single archive member or standalone file.
//
// An Item is created unmaterialized. The first call that needs its bytes
// reads the whole member into memory, inflating it if compressed; later calls
// operate on that buffer. If materialization fails, every subsequent call
// returns the same error.
//
// Multi-byte integers are decoded with the configured Endianness, which
// defaults to LittleEndian and may be changed at any time.
//
// An Item is not safe for concurrent use.
type Item struct {
	src        source
	filename   string
	endianness Endianness
	maxSize    uint64
	pool       *inflate.Pool
	logger     *slog.Logger

	cur    cursor
	loaded bool
	err    error
	closed bool
}

// ItemOption configures an Item.
type ItemOption func(*Item)

// WithEndianness sets the initial byte order for typed reads.
func WithEndianness(e Endianness) ItemOption {
	return func(it *Item) {
		it.endianness = e
	}
}

// WithMaxSize limits the size of the materialized buffer (and, for compressed
// entries, of the packed data). Set limit to 0 to disable the limit.
func WithMaxSize(limit uint64) ItemOption {
	return func(it *Item) {
		it.maxSize = limit
	}
}

// WithFilename overrides the item's filename. The name is normalized.
func WithFilename(name string) ItemOption {
	return func(it *Item) {
		it.filename = NormalizeFilename(name)
	}
}

// WithItemLogger sets the logger for materialization events.
// If not set, logging is disabled.
func WithItemLogger(logger *slog.Logger) ItemOption {
	return func(it *Item) {
		it.logger = logger
	}
}

// withPool shares a decoder pool, typically the owning archive's.
func withPool(p *inflate.Pool) ItemOption {
	return func(it *Item) {
		if p != nil {
			it.pool = p
		}
	}
}

// NewItem creates an Item over a standalone file.
//
// The whole stream becomes the item's content. It is read and closed on first
// access; if the item is closed before that, Close closes the stream.
func NewItem(rs io.ReadSeekCloser, opts ...ItemOption) *Item {
	return newItem(streamSource{rs: rs}, "", opts)
}

// NewEntryItem creates an Item over an archive member.
//
// The member is read from entry.Archive on first access. The archive's
// position is restored afterwards, whether or not the read succeeds.
func NewEntryItem(entry *Entry, opts ...ItemOption) *Item {
	return newItem(entrySource{entry: entry}, NormalizeFilename(entry.Filename), opts)
}

func newItem(src source, filename string, opts []ItemOption) *Item {
	it := &Item{
		src:      src,
		filename: filename,
		maxSize:  DefaultMaxSize,
		pool:     sharedPool,
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// log returns the logger, falling back to a discard logger if nil.
func (it *Item) log() *slog.Logger {
	if it.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return it.logger
}

// load materializes the item once.
func (it *Item) load() error {
	if it.closed {
		return ErrClosed
	}
	if it.loaded {
		return it.err
	}
	it.loaded = true

	buf, err := it.src.materialize(it)
	if err != nil {
		it.err = fmt.Errorf("materialize %q: %w", it.filename, err)
		it.log().Debug("materialize failed", "filename", it.filename, "error", err)
		return it.err
	}
	it.cur = cursor{buf: buf}

	it.log().Debug("materialized", "filename", it.filename, "size", len(buf), "compressed", it.src.compressed())
	return nil
}

// Filename returns the normalized member name, or "" for standalone files
// without an explicit name.
func (it *Item) Filename() string {
	return it.filename
}

// SetFilename normalizes and stores name as the item's identity.
func (it *Item) SetFilename(name string) *Item {
	it.filename = NormalizeFilename(name)
	return it
}

// Endianness returns the byte order used by typed reads.
func (it *Item) Endianness() Endianness {
	return it.endianness
}

// SetEndianness changes the byte order used by typed reads. The byte cursor
// is unaffected.
func (it *Item) SetEndianness(e Endianness) {
	it.endianness = e
}

// Size returns the total length of the item's content.
func (it *Item) Size() (int, error) {
	if err := it.load(); err != nil {
		return 0, err
	}
	return it.cur.size(), nil
}

// Position returns the current read offset.
func (it *Item) Position() (int, error) {
	if err := it.load(); err != nil {
		return 0, err
	}
	return it.cur.pos(), nil
}

// SetPosition moves the read offset to pos.
//
// pos must lie in [0, Size()]; otherwise SetPosition returns ErrOutOfRange
// and the offset is unchanged.
func (it *Item) SetPosition(pos int) error {
	if err := it.load(); err != nil {
		return err
	}
	return it.cur.seek(pos)
}

// Skip advances the read offset by n bytes without copying.
//
// n must not be negative or exceed Remaining(); otherwise Skip returns
// ErrOutOfRange and the offset is unchanged.
func (it *Item) Skip(n int) error {
	if err := it.load(); err != nil {
		return err
	}
	return it.cur.skip(n)
}

// Remaining returns Size() - Position().
func (it *Item) Remaining() (int, error) {
	if err := it.load(); err != nil {
		return 0, err
	}
	return it.cur.remaining(), nil
}

// ReadBytes copies len(dst) bytes from the current offset into dst and
// advances past them.
//
// When fewer bytes remain, ReadBytes copies what is left, moves to the end,
// and returns the short count with io.ErrUnexpectedEOF. At the end it returns
// 0, io.EOF.
func (it *Item) ReadBytes(dst []byte) (int, error) {
	if err := it.load(); err != nil {
		return 0, err
	}
	if len(dst) == 0 {
		return 0, nil
	}
	if it.cur.remaining() == 0 {
		return 0, io.EOF
	}
	n := it.cur.read(dst)
	if n < len(dst) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

// Bytes returns the whole materialized content. The slice aliases the item's
// buffer and must not be modified; it is invalid after Close.
func (it *Item) Bytes() ([]byte, error) {
	if err := it.load(); err != nil {
		return nil, err
	}
	return it.cur.buf, nil
}

// Read implements io.Reader.
func (it *Item) Read(p []byte) (int, error) {
	if err := it.load(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if it.cur.remaining() == 0 {
		return 0, io.EOF
	}
	return it.cur.read(p), nil
}

// ReadByte implements io.ByteReader.
func (it *Item) ReadByte() (byte, error) {
	if err := it.load(); err != nil {
		return 0, err
	}
	b, ok := it.cur.next(1)
	if !ok {
		return 0, io.EOF
	}
	return b[0], nil
}

// Seek implements io.Seeker. Targets outside [0, Size()] return
// ErrOutOfRange and leave the offset unchanged.
func (it *Item) Seek(offset int64, whence int) (int64, error) {
	if err := it.load(); err != nil {
		return 0, err
	}
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(it.cur.pos())
	case io.SeekEnd:
		base = int64(it.cur.size())
	default:
		return 0, fmt.Errorf("seek %s: invalid whence %d", it.filename, whence)
	}
	target := base + offset
	if target < 0 || target > int64(it.cur.size()) {
		return int64(it.cur.pos()), fmt.Errorf("%w: seek to %d outside [0, %d]", ErrOutOfRange, target, it.cur.size())
	}
	it.cur.off = int(target)
	return target, nil
}

// ReadAt implements io.ReaderAt. It does not move the read offset.
func (it *Item) ReadAt(p []byte, off int64) (int, error) {
	if err := it.load(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, fmt.Errorf("%w: read at %d", ErrOutOfRange, off)
	}
	if off >= int64(it.cur.size()) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, it.cur.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close releases the materialized buffer. If the item was created with
// NewItem and never materialized, the stream is closed too. Close is
// idempotent; other operations return ErrClosed afterwards.
func (it *Item) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.cur = cursor{}

	if s, ok := it.src.(streamSource); ok && !it.loaded {
		it.loaded = true
		return s.rs.Close()
	}
	return nil
}
