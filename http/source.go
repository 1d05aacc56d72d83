// Package http provides a dat.ByteSource backed by HTTP range requests, so
// archives can be read from a web server without downloading them whole.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"strconv"
	"strings"
	"sync/atomic"
)

var (
	// ErrRangeUnsupported is returned when the server ignores Range headers.
	ErrRangeUnsupported = errors.New("http: range requests not supported")

	// ErrChanged is returned when the remote archive no longer matches the
	// version probed by NewSource.
	ErrChanged = errors.New("http: remote content changed")
)

// Source implements random access reads via HTTP range requests.
// It satisfies dat.ByteSource (io.ReaderAt plus Size) and is safe for
// concurrent use, so Archive.Extract workers can share it.
type Source struct {
	url     string
	client  *nethttp.Client
	headers nethttp.Header
	logger  *slog.Logger

	size         int64
	etag         string
	lastModified string

	requests atomic.Int64
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeader sets a header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// WithLogger sets the logger for request events.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource probes url with a one-byte range request to learn the archive
// size and validators. Later reads are made conditional on those validators.
func NewSource(ctx context.Context, url string, opts ...Option) (*Source, error) {
	s := &Source{url: url}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}

	if err := s.probe(ctx); err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}
	s.log().Debug("remote archive probed", "url", url, "size", s.size, "etag", s.etag)
	return s, nil
}

func (s *Source) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

// Requests returns the number of HTTP requests issued so far.
func (s *Source) Requests() int64 {
	return s.requests.Load()
}

// ReadAt reads len(p) bytes at off with a single range request. Reads that
// run past the end return the available bytes and io.EOF.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	expected := len(p)
	if rest := s.size - off; int64(expected) > rest {
		expected = int(rest)
	}

	resp, err := s.get(context.Background(), off, off+int64(expected)-1)
	if err != nil {
		return 0, err
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
	case nethttp.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	case nethttp.StatusPreconditionFailed:
		return 0, ErrChanged
	case nethttp.StatusOK:
		return 0, ErrRangeUnsupported
	default:
		return 0, fmt.Errorf("range request failed: %s", resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p[:expected])
	if err != nil {
		return n, err
	}
	if expected < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *Source) probe(ctx context.Context) error {
	resp, err := s.get(ctx, 0, 0)
	if err != nil {
		return err
	}
	defer drain(resp.Body)

	var size int64
	switch resp.StatusCode {
	case nethttp.StatusPartialContent, nethttp.StatusRequestedRangeNotSatisfiable:
		// A 416 still reports the length as bytes */N.
		size, err = parseContentRange(resp.Header.Get("Content-Range"))
		if err != nil {
			return err
		}
	case nethttp.StatusOK:
		// Servers answer a range over empty content with the whole, empty body.
		if resp.ContentLength != 0 {
			return ErrRangeUnsupported
		}
	default:
		return fmt.Errorf("range probe failed: %s", resp.Status)
	}
	s.size = size
	s.etag = resp.Header.Get("ETag")
	s.lastModified = resp.Header.Get("Last-Modified")
	return nil
}

// get issues a ranged GET for bytes [first, last].
func (s *Source) get(ctx context.Context, first, last int64) (*nethttp.Response, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if s.etag != "" && req.Header.Get("If-Match") == "" {
		req.Header.Set("If-Match", s.etag)
	}
	if s.lastModified != "" && req.Header.Get("If-Unmodified-Since") == "" {
		req.Header.Set("If-Unmodified-Since", s.lastModified)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", first, last))

	s.requests.Add(1)
	s.log().Debug("range request", "url", s.url, "first", first, "last", last)
	return s.client.Do(req)
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body) //nolint:errcheck // best-effort drain
	_ = body.Close()                 //nolint:errcheck // response already consumed
}

// parseContentRange extracts the complete length from a Content-Range value
// such as "bytes 0-0/1234" or "bytes */1234".
func parseContentRange(value string) (int64, error) {
	value = strings.TrimSpace(value)
	rest, ok := strings.CutPrefix(value, "bytes ")
	if !ok {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	_, total, ok := strings.Cut(rest, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
