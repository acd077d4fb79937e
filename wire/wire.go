// Package wire implements the binary message format: the version byte,
// the delta-compressed bound codec, and the per-record mode/payload
// encoding described in spec §4.4 and §4.5. It knows nothing about
// reconciliation semantics — it only turns Records into bytes and back.
package wire

import (
	"math"

	"github.com/negentropysync/negentropy/fingerprint"
	"github.com/negentropysync/negentropy/nerr"
	"github.com/negentropysync/negentropy/store"
	"github.com/negentropysync/negentropy/varint"
)

// Version is the one-byte protocol version every message starts with.
const Version byte = 0x61

// Mode discriminates a record's payload shape.
type Mode uint64

const (
	ModeSkip        Mode = 0
	ModeFingerprint Mode = 1
	ModeIdList      Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeSkip:
		return "skip"
	case ModeFingerprint:
		return "fingerprint"
	case ModeIdList:
		return "idlist"
	default:
		return "unknown"
	}
}

// Record is one wire-level range record: the upper bound of the range
// it covers (relative to the previous record's upper bound, or
// "negative infinity" for the first record in a message), the mode,
// and the mode-specific payload.
type Record struct {
	Upper store.Bound
	Mode  Mode
	FP    [fingerprint.Size]byte
	IDs   []store.ID
}

// DeltaState tracks the running previous timestamp used by the bound
// codec's delta compression. The zero value is the correct initial
// state for both encoding and decoding a fresh message.
type DeltaState struct {
	timestamp   uint64
	wasInfinity bool
}

// EncodeBound appends the delta-compressed encoding of b to dst,
// advancing st. The first bound in a message must be encoded against a
// zero-valued DeltaState (prev = 0), as specified.
func EncodeBound(dst []byte, b store.Bound, st *DeltaState) []byte {
	if b.IsInfinity() {
		var delta uint64
		if !st.wasInfinity {
			delta = math.MaxUint64 - st.timestamp
		}
		dst = varint.Encode(dst, delta)
		dst = varint.Encode(dst, 0)
		st.timestamp = math.MaxUint64
		st.wasInfinity = true
		return dst
	}

	delta := b.Timestamp - st.timestamp
	dst = varint.Encode(dst, delta)
	dst = varint.Encode(dst, uint64(len(b.IDPrefix)))
	dst = append(dst, b.IDPrefix...)
	st.timestamp = b.Timestamp
	st.wasInfinity = false
	return dst
}

// DecodeBound reverses EncodeBound, advancing st and validating that
// the prefix does not exceed idSize.
func DecodeBound(b []byte, st *DeltaState, idSize int) (store.Bound, []byte, error) {
	delta, rest, err := varint.Decode(b)
	if err != nil {
		return store.Bound{}, nil, err
	}

	var ts uint64
	if delta > math.MaxUint64-st.timestamp {
		ts = math.MaxUint64
	} else {
		ts = st.timestamp + delta
	}

	prefixLen, rest, err := varint.Decode(rest)
	if err != nil {
		return store.Bound{}, nil, err
	}
	if prefixLen > uint64(idSize) {
		return store.Bound{}, nil, nerr.Newf(nerr.KindInvalidIdSize,
			"wire: bound prefix length %d exceeds id size %d", prefixLen, idSize)
	}
	if uint64(len(rest)) < prefixLen {
		return store.Bound{}, nil, nerr.New(nerr.KindParseEnded, "wire: truncated bound prefix")
	}

	prefix := store.ID(rest[:prefixLen]).Clone()
	rest = rest[prefixLen:]

	st.timestamp = ts
	st.wasInfinity = ts == math.MaxUint64 && prefixLen == 0

	bound := store.Bound{Timestamp: ts}
	if prefixLen > 0 {
		bound.IDPrefix = prefix
	}
	return bound, rest, nil
}

// EncodeRecord appends one record (bound, mode, payload) to dst.
func EncodeRecord(dst []byte, rec Record, st *DeltaState) []byte {
	dst = EncodeBound(dst, rec.Upper, st)
	dst = varint.Encode(dst, uint64(rec.Mode))

	switch rec.Mode {
	case ModeSkip:
		// no payload
	case ModeFingerprint:
		dst = append(dst, rec.FP[:]...)
	case ModeIdList:
		dst = varint.Encode(dst, uint64(len(rec.IDs)))
		for _, id := range rec.IDs {
			dst = append(dst, id...)
		}
	}
	return dst
}

// DecodeRecord reverses EncodeRecord. Modes outside {Skip, Fingerprint,
// IdList} fail with KindUnexpectedMode.
func DecodeRecord(b []byte, st *DeltaState, idSize int) (Record, []byte, error) {
	upper, rest, err := DecodeBound(b, st, idSize)
	if err != nil {
		return Record{}, nil, err
	}

	modeVal, rest, err := varint.Decode(rest)
	if err != nil {
		return Record{}, nil, err
	}

	mode := Mode(modeVal)
	switch mode {
	case ModeSkip:
		return Record{Upper: upper, Mode: mode}, rest, nil

	case ModeFingerprint:
		if len(rest) < fingerprint.Size {
			return Record{}, nil, nerr.New(nerr.KindParseEnded, "wire: truncated fingerprint payload")
		}
		var fp [fingerprint.Size]byte
		copy(fp[:], rest[:fingerprint.Size])
		return Record{Upper: upper, Mode: mode, FP: fp}, rest[fingerprint.Size:], nil

	case ModeIdList:
		count, rest2, err := varint.Decode(rest)
		if err != nil {
			return Record{}, nil, err
		}
		ids := make([]store.ID, count)
		for i := range ids {
			if uint64(len(rest2)) < uint64(idSize) {
				return Record{}, nil, nerr.New(nerr.KindParseEnded, "wire: truncated id list payload")
			}
			ids[i] = store.ID(rest2[:idSize]).Clone()
			rest2 = rest2[idSize:]
		}
		return Record{Upper: upper, Mode: mode, IDs: ids}, rest2, nil

	default:
		return Record{}, nil, nerr.Newf(nerr.KindUnexpectedMode, "wire: unexpected mode %d", modeVal)
	}
}

// EncodeMessage builds a full message: the version byte followed by
// every record in records, in order.
func EncodeMessage(records []Record) []byte {
	out := make([]byte, 0, 1+len(records)*8)
	out = append(out, Version)
	var st DeltaState
	for _, rec := range records {
		out = EncodeRecord(out, rec, &st)
	}
	return out
}

// DecodeMessage parses a full message, validating the version byte and
// decoding every record it contains.
func DecodeMessage(msg []byte, idSize int) ([]Record, error) {
	if len(msg) == 0 {
		return nil, nerr.New(nerr.KindParseEnded, "wire: empty message")
	}
	if msg[0] != Version {
		return nil, nerr.Newf(nerr.KindUnsupportedProtocolVersion, "wire: version byte 0x%02x", msg[0])
	}

	rest := msg[1:]
	var st DeltaState
	var records []Record
	for len(rest) > 0 {
		rec, next, err := DecodeRecord(rest, &st, idSize)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		rest = next
	}
	return records, nil
}
