// Package testutil provides in-memory sources, accessors, and archive
// builders for tests.
package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data []byte
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// Bytes returns the backing slice for tests that need to mutate data.
func (m *MockByteSource) Bytes() []byte {
	return m.data
}

// MockAccessor is a positioned reader over a byte slice that records every
// position change, for checking that readers restore shared state.
type MockAccessor struct {
	data []byte
	pos  int64

	// SetCalls lists every position passed to SetPosition.
	SetCalls []int64

	// Reads counts ReadBytes calls.
	Reads int

	// FailReads makes ReadBytes fail with ErrInjected after moving the position.
	FailReads bool
}

var (
	// ErrInjected is returned by MockAccessor when FailReads is set.
	ErrInjected = errors.New("injected read failure")

	// ErrBadPosition is returned by MockAccessor.SetPosition for offsets
	// outside the data.
	ErrBadPosition = errors.New("position outside data")
)

// NewMockAccessor returns an accessor over data positioned at 0.
func NewMockAccessor(data []byte) *MockAccessor {
	return &MockAccessor{data: data}
}

// Position returns the current offset.
func (m *MockAccessor) Position() int64 {
	return m.pos
}

// SetPosition moves the offset. Offsets outside the data are rejected.
func (m *MockAccessor) SetPosition(pos int64) error {
	m.SetCalls = append(m.SetCalls, pos)
	if pos < 0 || pos > int64(len(m.data)) {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrBadPosition, pos, len(m.data))
	}
	m.pos = pos
	return nil
}

// ReadBytes fills p from the current offset and advances past what was read.
func (m *MockAccessor) ReadBytes(p []byte) (int, error) {
	m.Reads++
	if m.FailReads {
		m.pos += int64(len(p) / 2)
		return len(p) / 2, ErrInjected
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

// Stream is an in-memory io.ReadSeekCloser that counts Close calls.
type Stream struct {
	*bytes.Reader

	// Closes counts Close calls.
	Closes int
}

// NewStream returns a stream over data.
func NewStream(data []byte) *Stream {
	return &Stream{Reader: bytes.NewReader(data)}
}

// Close records the call.
func (s *Stream) Close() error {
	s.Closes++
	return nil
}

// Compress returns data as a zlib stream.
func Compress(tb testing.TB, data []byte) []byte {
	tb.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		tb.Fatalf("failed to compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("failed to close compressor: %v", err)
	}
	return buf.Bytes()
}
