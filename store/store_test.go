package store_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/negentropysync/negentropy/nerr"
	"github.com/negentropysync/negentropy/store"
	"github.com/negentropysync/negentropy/varint"
)

func id(b byte) store.ID {
	out := make(store.ID, 32)
	out[31] = b
	return out
}

func TestInsertInvalidSize(t *testing.T) {
	s, err := store.New(32)
	require.NoError(t, err)
	err = s.Insert(0, store.ID{0x01, 0x02})
	require.Error(t, err)
	require.True(t, nerr.Is(err, nerr.KindInvalidIdSize))
}

func TestSealTwiceFails(t *testing.T) {
	s, err := store.New(32)
	require.NoError(t, err)
	require.NoError(t, s.Seal())
	err = s.Seal()
	require.Error(t, err)
	require.True(t, nerr.Is(err, nerr.KindAlreadySealed))
}

func TestInsertAfterSealFails(t *testing.T) {
	s, err := store.New(32)
	require.NoError(t, err)
	require.NoError(t, s.Seal())
	err = s.Insert(0, id(1))
	require.Error(t, err)
	require.True(t, nerr.Is(err, nerr.KindAlreadySealed))
}

func TestSealSortsAndDedups(t *testing.T) {
	s, err := store.New(32)
	require.NoError(t, err)
	require.NoError(t, s.Insert(5, id(1)))
	require.NoError(t, s.Insert(1, id(2)))
	require.NoError(t, s.Insert(1, id(2))) // exact duplicate
	require.NoError(t, s.Insert(1, id(1)))
	require.NoError(t, s.Seal())

	require.Equal(t, 3, s.Len())
	require.Equal(t, uint64(1), s.Get(0).Timestamp)
	require.Equal(t, uint64(1), s.Get(1).Timestamp)
	require.Equal(t, uint64(5), s.Get(2).Timestamp)
}

func TestEmptySealFingerprint(t *testing.T) {
	s, err := store.New(32)
	require.NoError(t, err)
	require.NoError(t, s.Seal())
	require.Equal(t, 0, s.Len())

	var zero [32]byte
	want := sha256.Sum256(varint.Encode(zero[:], 0))
	fp := s.Fingerprint(0, 0)
	require.Equal(t, want[:16], fp[:])
}

func TestFingerprintPermutationInvariant(t *testing.T) {
	a, _ := store.New(32)
	require.NoError(t, a.Insert(1, id(1)))
	require.NoError(t, a.Insert(2, id(2)))
	require.NoError(t, a.Insert(3, id(3)))
	require.NoError(t, a.Seal())

	b, _ := store.New(32)
	require.NoError(t, b.Insert(3, id(3)))
	require.NoError(t, b.Insert(1, id(1)))
	require.NoError(t, b.Insert(2, id(2)))
	require.NoError(t, b.Seal())

	require.Equal(t, a.Fingerprint(0, a.Len()), b.Fingerprint(0, b.Len()))
}

func TestFindLowerBound(t *testing.T) {
	s, _ := store.New(32)
	require.NoError(t, s.Insert(1, id(1)))
	require.NoError(t, s.Insert(3, id(1)))
	require.NoError(t, s.Insert(5, id(1)))
	require.NoError(t, s.Seal())

	idx := s.FindLowerBound(0, s.Len(), store.Bound{Timestamp: 3})
	require.Equal(t, 1, idx)

	idx = s.FindLowerBound(0, s.Len(), store.Bound{Timestamp: 4})
	require.Equal(t, 2, idx)

	idx = s.FindLowerBound(0, s.Len(), store.Infinity())
	require.Equal(t, s.Len(), idx)
}

func TestBoundComparePrefix(t *testing.T) {
	it := store.Item{Timestamp: 10, ID: store.ID{0xAA, 0xBB, 0xCC}}

	// prefix shorter than id, matching: bound sorts before the item.
	b := store.Bound{Timestamp: 10, IDPrefix: store.ID{0xAA}}
	require.Negative(t, b.CompareItem(it))

	// full-length prefix equal to id: exact match.
	b2 := store.Bound{Timestamp: 10, IDPrefix: store.ID{0xAA, 0xBB, 0xCC}}
	require.Zero(t, b2.CompareItem(it))

	// prefix that sorts after the item's corresponding bytes.
	b3 := store.Bound{Timestamp: 10, IDPrefix: store.ID{0xFF}}
	require.Positive(t, b3.CompareItem(it))
}

func TestInfinityBoundGreaterThanEverything(t *testing.T) {
	inf := store.Infinity()
	it := store.Item{Timestamp: ^uint64(0), ID: store.ID{0xFF, 0xFF}}
	require.Positive(t, inf.CompareItem(it))
}
