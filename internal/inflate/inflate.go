// Package inflate decompresses zlib-wrapped deflate payloads in one shot
// into a destination of known size.
package inflate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

var (
	// ErrCorrupt indicates the compressed stream could not be decoded.
	ErrCorrupt = errors.New("corrupt zlib stream")

	// ErrSizeMismatch indicates the decoded length differs from the declared length.
	ErrSizeMismatch = errors.New("decoded size mismatch")
)

// decoder is the reader returned by zlib.NewReader.
type decoder interface {
	io.ReadCloser
	zlib.Resetter
}

// Pool manages reusable zlib decoders to reduce allocation overhead.
// The zero value is not usable; call NewPool.
type Pool struct {
	pool *sync.Pool
}

// NewPool creates an empty decoder pool.
func NewPool() *Pool {
	return &Pool{pool: &sync.Pool{}}
}

// Get returns a decoder configured to read from r.
// The caller must call the returned release function when done.
// If an error is returned, no release function needs to be called.
func (p *Pool) Get(r io.Reader) (io.Reader, func(), error) {
	if p == nil || p.pool == nil {
		// No pool available, create a one-off decoder
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	}

	if dec, ok := p.pool.Get().(decoder); ok {
		if err := dec.Reset(r, nil); err != nil {
			// The header is read eagerly, so a failed reset means bad input.
			// The decoder itself is still reusable.
			p.pool.Put(dec)
			return nil, nil, err
		}
		return dec, func() { p.pool.Put(dec) }, nil
	}

	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	dec, ok := zr.(decoder)
	if !ok {
		return zr, func() { _ = zr.Close() }, nil
	}
	return dec, func() { p.pool.Put(dec) }, nil
}

// Into decompresses src into dst. The stream must produce exactly len(dst)
// bytes: a shorter stream or trailing output is reported as ErrSizeMismatch,
// and undecodable input as ErrCorrupt. The contents of dst are undefined
// after an error.
func (p *Pool) Into(dst, src []byte) error {
	zr, release, err := p.Get(bytes.NewReader(src))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer release()

	n, err := io.ReadFull(zr, dst)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: got %d of %d bytes", ErrSizeMismatch, n, len(dst))
		}
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return ensureNoExtra(zr, len(dst))
}

// ensureNoExtra drains the decoder past the expected end. It also forces the
// trailing adler32 checksum to be verified.
func ensureNoExtra(r io.Reader, expected int) error {
	extra, err := io.CopyN(io.Discard, r, 1)
	if extra > 0 {
		return fmt.Errorf("%w: more than %d bytes", ErrSizeMismatch, expected)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}
