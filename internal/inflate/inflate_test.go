package inflate

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestPool_Into(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("falloutdat"), 200)
	packed := compress(t, content)

	tests := []struct {
		name    string
		src     []byte
		dstSize int
		wantErr error
	}{
		{name: "exact size", src: packed, dstSize: len(content)},
		{name: "declared too large", src: packed, dstSize: len(content) + 1, wantErr: ErrSizeMismatch},
		{name: "declared too small", src: packed, dstSize: len(content) - 1, wantErr: ErrSizeMismatch},
		{name: "not zlib", src: []byte("plainly not compressed"), dstSize: 4, wantErr: ErrCorrupt},
		{name: "empty input", src: nil, dstSize: 4, wantErr: ErrCorrupt},
		{name: "truncated stream", src: packed[:len(packed)/2], dstSize: len(content), wantErr: ErrSizeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pool := NewPool()
			dst := make([]byte, tt.dstSize)
			err := pool.Into(dst, tt.src)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, content, dst)
		})
	}
}

func TestPool_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	content := []byte("checksummed payload")
	packed := compress(t, content)
	packed[len(packed)-1] ^= 0xFF

	err := NewPool().Into(make([]byte, len(content)), packed)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestPool_Reuse(t *testing.T) {
	t.Parallel()

	pool := NewPool()
	for _, s := range []string{"first", "second payload", "third and longest payload"} {
		dst := make([]byte, len(s))
		require.NoError(t, pool.Into(dst, compress(t, []byte(s))))
		assert.Equal(t, s, string(dst))
	}

	// A failed reset must not poison later decodes.
	require.Error(t, pool.Into(make([]byte, 3), []byte("bad")))
	dst := make([]byte, 5)
	require.NoError(t, pool.Into(dst, compress(t, []byte("after"))))
	assert.Equal(t, "after", string(dst))
}

func TestNilPool(t *testing.T) {
	t.Parallel()

	var pool *Pool
	dst := make([]byte, 3)
	require.NoError(t, pool.Into(dst, compress(t, []byte("nil"))))
	assert.Equal(t, "nil", string(dst))
}
