// Package fingerprint implements the additive accumulator and the
// 16-byte range fingerprint derived from it.
//
// The accumulator is a 32-byte register folded from item ids by
// lane-wise modular addition (eight little-endian u32 lanes). This is
// an abelian group commitment: folding in a set of ids and folding in
// the same set in any other order yields the same register, and
// Remove is the exact inverse of Add, which is what lets a range
// fingerprint be computed either by a direct per-call fold (the
// baseline this package exposes) or incrementally from prefix sums
// (what store caches internally).
package fingerprint

import (
	"github.com/negentropysync/negentropy/hash"
	"github.com/negentropysync/negentropy/nerr"
	"github.com/negentropysync/negentropy/varint"
)

// RegisterSize is the width of the accumulator register in bytes.
const RegisterSize = 32

// Size is the width of a derived range fingerprint in bytes.
const Size = 16

const lanes = RegisterSize / 4

// Accumulator is the 32-byte additive commitment register. The zero
// value is the identity element (the empty set's accumulator).
type Accumulator struct {
	reg [RegisterSize]byte
}

// Add folds id into the accumulator. id must be at most RegisterSize
// bytes; shorter ids are conceptually zero-padded on the right, as
// required to widen an ID_SIZE < 32 id for the accumulator operation.
func (a *Accumulator) Add(id []byte) {
	a.apply(id, add32)
}

// Remove subtracts id from the accumulator; it is the exact inverse of
// Add, enabling O(1) range fingerprints from cached prefix sums.
func (a *Accumulator) Remove(id []byte) {
	a.apply(id, sub32)
}

func (a *Accumulator) apply(id []byte, op func(x, y uint32) uint32) {
	if len(id) > RegisterSize {
		id = id[:RegisterSize]
	}
	var widened [RegisterSize]byte
	copy(widened[:], id)

	for lane := 0; lane < lanes; lane++ {
		off := lane * 4
		x := le32(a.reg[off : off+4])
		y := le32(widened[off : off+4])
		putLE32(a.reg[off:off+4], op(x, y))
	}
}

// Reset returns the accumulator to the identity element.
func (a *Accumulator) Reset() {
	a.reg = [RegisterSize]byte{}
}

// Bytes returns a copy of the raw 32-byte register, suitable for
// feeding back into Add/Remove on another accumulator (used by store
// to combine cached prefix sums into a range fingerprint in O(1)).
func (a Accumulator) Bytes() []byte {
	out := make([]byte, RegisterSize)
	copy(out, a.reg[:])
	return out
}

// Fingerprint derives the 16-byte fingerprint of the n items folded
// into this accumulator: the first 16 bytes of
// SHA-256(register || varint(n)).
func (a *Accumulator) Fingerprint(n uint64) [Size]byte {
	buf := make([]byte, 0, RegisterSize+10)
	buf = append(buf, a.reg[:]...)
	buf = varint.Encode(buf, n)

	digest := hash.Sum(buf)

	var fp [Size]byte
	copy(fp[:], digest[:Size])
	return fp
}

func add32(x, y uint32) uint32 { return x + y }

func sub32(x, y uint32) uint32 { return x - y }

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// WidenID widens an id of any length <= RegisterSize to RegisterSize
// bytes by appending zeros, matching the widening the accumulator does
// internally. Exposed for callers that want to precompute ids once.
func WidenID(id []byte) [RegisterSize]byte {
	var out [RegisterSize]byte
	copy(out[:], id)
	return out
}

// ValidateIDSize reports whether size is a legal configured ID_SIZE.
func ValidateIDSize(size int) error {
	if size < 1 || size > RegisterSize {
		return nerr.Newf(nerr.KindInvalidIdSize, "id size %d out of range [1,%d]", size, RegisterSize)
	}
	return nil
}
