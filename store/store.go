// Package store implements the ordered item container the reconciler
// works against: insertion in any order followed by a one-time Seal
// that sorts and deduplicates, after which rank-based lookups and
// range fingerprints are available.
package store

import (
	"bytes"
	"encoding/hex"
	"math"
	"sort"

	"github.com/negentropysync/negentropy/fingerprint"
	"github.com/negentropysync/negentropy/nerr"
)

// ID is an item identifier or a bound's id prefix. Its length is at
// most fingerprint.RegisterSize (32); within a single reconciliation
// every Item's ID has exactly the configured id size.
type ID []byte

// Clone returns an independent copy of id.
func (id ID) Clone() ID {
	out := make(ID, len(id))
	copy(out, id)
	return out
}

// String renders id as lowercase hex.
func (id ID) String() string {
	return hex.EncodeToString(id)
}

// Item is an ordered (timestamp, id) pair, the atom of reconciliation.
type Item struct {
	Timestamp uint64
	ID        ID
}

// Compare orders items by timestamp ascending, then id lexicographically.
func (it Item) Compare(other Item) int {
	return compareKey(it.Timestamp, it.ID, other.Timestamp, other.ID)
}

// Bound is an exclusive upper range endpoint: a timestamp plus a
// (possibly truncated) id prefix.
type Bound struct {
	Timestamp uint64
	IDPrefix  ID
}

// Infinity returns the distinguished bound that sorts strictly greater
// than every representable item.
func Infinity() Bound {
	return Bound{Timestamp: math.MaxUint64}
}

// IsInfinity reports whether b is the distinguished infinity bound.
func (b Bound) IsInfinity() bool {
	return b.Timestamp == math.MaxUint64 && len(b.IDPrefix) == 0
}

// Compare orders bounds the same way items are ordered, with the
// infinity bound sorting greater than any finite bound.
func (b Bound) Compare(other Bound) int {
	switch {
	case b.IsInfinity() && other.IsInfinity():
		return 0
	case b.IsInfinity():
		return 1
	case other.IsInfinity():
		return -1
	default:
		return compareKey(b.Timestamp, b.IDPrefix, other.Timestamp, other.IDPrefix)
	}
}

// CompareItem reports how b orders against it: negative if b < it, zero
// if it falls exactly at the boundary b denotes, positive if b > it.
// A shorter id prefix sorts before any item whose id extends it,
// matching bytes.Compare's proper-prefix rule.
func (b Bound) CompareItem(it Item) int {
	if b.IsInfinity() {
		return 1
	}
	return compareKey(b.Timestamp, b.IDPrefix, it.Timestamp, it.ID)
}

func compareKey(ts1 uint64, b1 []byte, ts2 uint64, b2 []byte) int {
	switch {
	case ts1 < ts2:
		return -1
	case ts1 > ts2:
		return 1
	default:
		return bytes.Compare(b1, b2)
	}
}

// Store is the ordered, append-then-seal container of items.
type Store struct {
	idSize int
	items  []Item
	sealed bool

	// prefixSums[i] is the accumulator of items[0:i]. Built once on
	// Seal so that Fingerprint is O(1) per call afterwards, per the
	// prefix-sum caching rationale in the fingerprint package.
	prefixSums []fingerprint.Accumulator
}

// New creates an empty, mutable store for ids of the given size.
func New(idSize int) (*Store, error) {
	if err := fingerprint.ValidateIDSize(idSize); err != nil {
		return nil, err
	}
	return &Store{idSize: idSize}, nil
}

// IDSize returns the configured id size for this store.
func (s *Store) IDSize() int {
	return s.idSize
}

// Insert adds an (timestamp, id) item. Valid only before Seal.
func (s *Store) Insert(timestamp uint64, id ID) error {
	if s.sealed {
		return nerr.New(nerr.KindAlreadySealed, "store: insert after seal")
	}
	if len(id) != s.idSize {
		return nerr.Newf(nerr.KindInvalidIdSize, "store: id length %d, want %d", len(id), s.idSize)
	}
	s.items = append(s.items, Item{Timestamp: timestamp, ID: id.Clone()})
	return nil
}

// Seal sorts by the total order, removes exact duplicates, and marks
// the store immutable. A second call fails with KindAlreadySealed and
// leaves the store's contents untouched.
func (s *Store) Seal() error {
	if s.sealed {
		return nerr.New(nerr.KindAlreadySealed, "store: already sealed")
	}

	sort.Slice(s.items, func(i, j int) bool {
		return s.items[i].Compare(s.items[j]) < 0
	})

	deduped := s.items[:0:0]
	for i, it := range s.items {
		if i == 0 || it.Compare(deduped[len(deduped)-1]) != 0 {
			deduped = append(deduped, it)
		}
	}
	s.items = deduped
	s.sealed = true
	s.buildPrefixSums()
	return nil
}

// Sealed reports whether Seal has completed successfully.
func (s *Store) Sealed() bool {
	return s.sealed
}

func (s *Store) buildPrefixSums() {
	s.prefixSums = make([]fingerprint.Accumulator, len(s.items)+1)
	for i, it := range s.items {
		s.prefixSums[i+1] = s.prefixSums[i]
		s.prefixSums[i+1].Add(it.ID)
	}
}

// Len returns the number of items after sealing.
func (s *Store) Len() int {
	return len(s.items)
}

// Get returns the i-th item in rank order. Valid only after Seal.
func (s *Store) Get(i int) Item {
	return s.items[i]
}

// FindLowerBound returns the first index in [lo, hi) whose item is >= bound.
// If no such item exists, it returns hi.
func (s *Store) FindLowerBound(lo, hi int, bound Bound) int {
	for lo < hi {
		mid := lo + (hi-lo)/2
		if bound.CompareItem(s.items[mid]) > 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Fingerprint computes the 16-byte fingerprint of items[lo:hi], in O(1)
// given the prefix sums built at Seal time.
func (s *Store) Fingerprint(lo, hi int) [fingerprint.Size]byte {
	var acc fingerprint.Accumulator
	acc.Add(s.prefixSums[hi].Bytes())
	acc.Remove(s.prefixSums[lo].Bytes())
	return acc.Fingerprint(uint64(hi - lo))
}
