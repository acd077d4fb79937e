package varint_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/negentropysync/negentropy/nerr"
	"github.com/negentropysync/negentropy/varint"
)

func TestRoundTrip(t *testing.T) {
	vals := []uint64{
		0, 1, 2, 63, 64, 127, 128, 129, 255, 256,
		1 << 14, 1<<14 - 1, 1<<21 - 1, 1 << 21,
		math.MaxUint32, math.MaxUint64 - 1, math.MaxUint64,
	}
	for _, v := range vals {
		enc := varint.Encode(nil, v)
		got, rest, err := varint.Decode(enc)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, v, got)
	}
}

func TestZeroIsSingleByte(t *testing.T) {
	enc := varint.Encode(nil, 0)
	require.Equal(t, []byte{0x00}, enc)
}

func TestDecodeLeavesRemainder(t *testing.T) {
	enc := varint.Encode(nil, 300)
	enc = append(enc, 0xAA, 0xBB)
	v, rest, err := varint.Decode(enc)
	require.NoError(t, err)
	require.Equal(t, uint64(300), v)
	require.Equal(t, []byte{0xAA, 0xBB}, rest)
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := varint.Decode([]byte{0x80, 0x80})
	require.Error(t, err)
	require.True(t, nerr.Is(err, nerr.KindParseEnded))
}

func TestDecodeEmpty(t *testing.T) {
	_, _, err := varint.Decode(nil)
	require.Error(t, err)
	require.True(t, nerr.Is(err, nerr.KindParseEnded))
}

func TestHighBitContinuation(t *testing.T) {
	// 128 = 0x80 -> two groups: 0b0000001 0b0000000 -> bytes 0x81 0x00
	enc := varint.Encode(nil, 128)
	require.Equal(t, []byte{0x81, 0x00}, enc)
}
