package hexutil_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/negentropysync/negentropy/hexutil"
	"github.com/negentropysync/negentropy/nerr"
)

func TestRoundTrip(t *testing.T) {
	b := []byte{0x00, 0x01, 0xAB, 0xFF}
	s := hexutil.Encode(b)
	require.Equal(t, "0001abff", s)

	got, err := hexutil.Decode(s)
	require.NoError(t, err)
	require.Equal(t, b, got)
}

func TestDecodeOddLength(t *testing.T) {
	_, err := hexutil.Decode("abc")
	require.Error(t, err)
	require.True(t, nerr.Is(err, nerr.KindHexDecode))
}

func TestDecodeNonHex(t *testing.T) {
	_, err := hexutil.Decode("zz")
	require.Error(t, err)
	require.True(t, nerr.Is(err, nerr.KindHexDecode))
}
