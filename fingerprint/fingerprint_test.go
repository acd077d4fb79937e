package fingerprint_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/negentropysync/negentropy/fingerprint"
	"github.com/negentropysync/negentropy/varint"
)

func TestEmptyAccumulatorFingerprint(t *testing.T) {
	var a fingerprint.Accumulator
	fp := a.Fingerprint(0)

	var zero [32]byte
	want := sha256.Sum256(varint.Encode(zero[:], 0))

	require.Equal(t, want[:fingerprint.Size], fp[:])
}

func TestAddIsPermutationInvariant(t *testing.T) {
	ids := [][]byte{
		{0x01, 0x02, 0x03},
		{0xAA, 0xBB, 0xCC, 0xDD},
		{0x00},
	}

	var a fingerprint.Accumulator
	for _, id := range ids {
		a.Add(id)
	}
	fp1 := a.Fingerprint(uint64(len(ids)))

	var b fingerprint.Accumulator
	order := []int{2, 0, 1}
	for _, i := range order {
		b.Add(ids[i])
	}
	fp2 := b.Fingerprint(uint64(len(ids)))

	require.Equal(t, fp1, fp2)
}

func TestRemoveIsInverseOfAdd(t *testing.T) {
	id := []byte{0x11, 0x22, 0x33, 0x44, 0x55}

	var a fingerprint.Accumulator
	a.Add(id)
	a.Remove(id)

	var zero fingerprint.Accumulator
	require.Equal(t, zero.Fingerprint(0), a.Fingerprint(0))
}

func TestDifferentSetsDifferentFingerprints(t *testing.T) {
	var a, b fingerprint.Accumulator
	a.Add([]byte{0x01})
	b.Add([]byte{0x02})

	require.NotEqual(t, a.Fingerprint(1), b.Fingerprint(1))
}

func TestValidateIDSize(t *testing.T) {
	require.NoError(t, fingerprint.ValidateIDSize(1))
	require.NoError(t, fingerprint.ValidateIDSize(32))
	require.Error(t, fingerprint.ValidateIDSize(0))
	require.Error(t, fingerprint.ValidateIDSize(33))
}
