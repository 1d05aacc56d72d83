package http_test

import (
	"bytes"
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/dat"
	dathttp "github.com/meigma/dat/http"
	"github.com/meigma/dat/internal/testutil"
)

// serve returns a server for data whose ETag can be changed by storing into
// the returned pointer.
func serve(t *testing.T, data []byte) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var etag atomic.Value
	etag.Store(`"v1"`)
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("ETag", etag.Load().(string))
		nethttp.ServeContent(w, r, "master.dat", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)
	return server, &etag
}

func TestSource_ReadAt(t *testing.T) {
	t.Parallel()

	data := []byte("hello world")
	server, _ := serve(t, data)

	src, err := dathttp.NewSource(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), src.Size())

	buf := make([]byte, 5)
	n, err := src.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	edge := make([]byte, 10)
	n, err = src.ReadAt(edge, int64(len(data)-3))
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "rld", string(edge[:n]))

	n, err = src.ReadAt(edge, int64(len(data)))
	require.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	_, err = src.ReadAt(edge, -1)
	require.Error(t, err)
}

func TestSource_Empty(t *testing.T) {
	t.Parallel()

	server, _ := serve(t, nil)

	src, err := dathttp.NewSource(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Zero(t, src.Size())
}

func TestSource_EmptyWithoutRangeSupport(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(nethttp.ResponseWriter, *nethttp.Request) {}))
	t.Cleanup(server.Close)

	src, err := dathttp.NewSource(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Zero(t, src.Size())

	n, err := src.ReadAt(make([]byte, 4), 0)
	require.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)
}

func TestSource_RangeUnsupported(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = w.Write([]byte("range unsupported"))
	}))
	t.Cleanup(server.Close)

	_, err := dathttp.NewSource(context.Background(), server.URL)
	require.ErrorIs(t, err, dathttp.ErrRangeUnsupported)
}

func TestSource_Changed(t *testing.T) {
	t.Parallel()

	server, etag := serve(t, []byte("original content"))

	src, err := dathttp.NewSource(context.Background(), server.URL)
	require.NoError(t, err)

	etag.Store(`"v2"`)
	_, err = src.ReadAt(make([]byte, 4), 0)
	require.ErrorIs(t, err, dathttp.ErrChanged)
}

func TestSource_Headers(t *testing.T) {
	t.Parallel()

	var got atomic.Value
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		got.Store(r.Header.Get("Authorization"))
		nethttp.ServeContent(w, r, "", time.Time{}, bytes.NewReader([]byte("abc")))
	}))
	t.Cleanup(server.Close)

	_, err := dathttp.NewSource(context.Background(), server.URL,
		dathttp.WithHeader("Authorization", "Bearer token"),
		dathttp.WithClient(server.Client()),
	)
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", got.Load())
}

func TestSource_Archive(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("critter frame "), 100)
	data := testutil.BuildArchive(t, []testutil.TestEntry{
		{Name: `ART\CRITTERS\HMJMPSAA.FRM`, Content: content, Compress: true},
		{Name: `COLOR.PAL`, Content: []byte{1, 2, 3}},
	})
	server, _ := serve(t, data)

	src, err := dathttp.NewSource(context.Background(), server.URL)
	require.NoError(t, err)

	a, err := dat.New(src)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Len())

	before := src.Requests()
	it, err := a.Open("art/critters/hmjmpsaa.frm")
	require.NoError(t, err)
	assert.Equal(t, before, src.Requests(), "Open must not fetch")

	got, err := it.Bytes()
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, before+1, src.Requests(), "a member is fetched with one request")

	_, err = it.Size()
	require.NoError(t, err)
	assert.Equal(t, before+1, src.Requests())
}
