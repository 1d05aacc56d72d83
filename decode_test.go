package dat

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/dat/internal/testutil"
)

func newBufferItem(data []byte, opts ...ItemOption) *Item {
	return NewItem(testutil.NewStream(data), opts...)
}

func TestDecode_Endianness(t *testing.T) {
	t.Parallel()

	data := binary.LittleEndian.AppendUint32(nil, 0x11223344)
	data = binary.LittleEndian.AppendUint16(data, 0xA1B2)

	tests := []struct {
		name   string
		order  Endianness
		want32 uint32
		want16 uint16
	}{
		{name: "little", order: LittleEndian, want32: 0x11223344, want16: 0xA1B2},
		{name: "big", order: BigEndian, want32: 0x44332211, want16: 0xB2A1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			it := newBufferItem(data, WithEndianness(tt.order))
			assert.Equal(t, tt.order, it.Endianness())

			v32, err := it.Uint32()
			require.NoError(t, err)
			assert.Equal(t, tt.want32, v32)

			v16, err := it.Uint16()
			require.NoError(t, err)
			assert.Equal(t, tt.want16, v16)
		})
	}
}

func TestDecode_SequentialFields(t *testing.T) {
	t.Parallel()

	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0xFF}
	it := newBufferItem(data)

	v16, err := it.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), v16)
	pos, _ := it.Position()
	assert.Equal(t, 2, pos)

	v32, err := it.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x06050403), v32)
	pos, _ = it.Position()
	assert.Equal(t, 6, pos)

	v8, err := it.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), v8)
}

func TestDecode_SwitchEndiannessMidStream(t *testing.T) {
	t.Parallel()

	it := newBufferItem([]byte{0x00, 0x10, 0x00, 0x10})

	le, err := it.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1000), le)

	it.SetEndianness(BigEndian)
	pos, _ := it.Position()
	assert.Equal(t, 2, pos, "switching byte order must not move the cursor")

	be, err := it.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0010), be)
}

func TestDecode_Signed(t *testing.T) {
	t.Parallel()

	data := []byte{
		0x80,
		0xFF, 0xFF,
		0xFE, 0xFF, 0xFF, 0xFF,
		0x7F,
	}
	it := newBufferItem(data)

	i8, err := it.Int8()
	require.NoError(t, err)
	assert.Equal(t, int8(-128), i8)

	i16, err := it.Int16()
	require.NoError(t, err)
	assert.Equal(t, int16(-1), i16)

	i32, err := it.Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(-2), i32)

	it.SetEndianness(BigEndian)
	i8, err = it.Int8()
	require.NoError(t, err)
	assert.Equal(t, int8(127), i8, "8-bit reads ignore byte order")
}

func TestDecode_ShortReadConsumesNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		read func(it *Item) error
	}{
		{name: "uint16", read: func(it *Item) error { _, err := it.Uint16(); return err }},
		{name: "int16", read: func(it *Item) error { _, err := it.Int16(); return err }},
		{name: "uint32", read: func(it *Item) error { _, err := it.Uint32(); return err }},
		{name: "int32", read: func(it *Item) error { _, err := it.Int32(); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			it := newBufferItem([]byte{0xAA, 0xBB, 0xCC})
			require.NoError(t, it.Skip(2))

			err := tt.read(it)
			require.ErrorIs(t, err, io.ErrUnexpectedEOF)

			pos, _ := it.Position()
			assert.Equal(t, 2, pos)
			b, err := it.Uint8()
			require.NoError(t, err)
			assert.Equal(t, uint8(0xCC), b)
		})
	}
}

func TestDecode_Struct(t *testing.T) {
	t.Parallel()

	type header struct {
		Version uint32
		Frames  uint16
		Offset  int16
	}

	data := binary.BigEndian.AppendUint32(nil, 4)
	data = binary.BigEndian.AppendUint16(data, 10)
	data = binary.BigEndian.AppendUint16(data, 0xFFFD)

	it := newBufferItem(data, WithEndianness(BigEndian))

	var h header
	require.NoError(t, it.Decode(&h))
	assert.Equal(t, header{Version: 4, Frames: 10, Offset: -3}, h)

	remaining, err := it.Remaining()
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	require.Error(t, it.Decode(&h))
}

func TestEndianness_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "little", LittleEndian.String())
	assert.Equal(t, "big", BigEndian.String())
	assert.Equal(t, "unknown", Endianness(7).String())
}
