// Package varint implements the wire-level unsigned varint encoding used
// throughout the negentropy protocol: big-endian, 7 bits per byte, with
// the high bit of every byte but the last set as a continuation flag.
//
// This is not LEB128 (LEB128 is little-endian group order) and not the
// multiformats/go-varint encoding used elsewhere in the sync2 stack it
// was adapted from; it is a distinct bespoke format, so it is hand
// rolled here rather than imported.
package varint

import "github.com/negentropysync/negentropy/nerr"

// Encode appends the varint encoding of n to dst and returns the result.
func Encode(dst []byte, n uint64) []byte {
	if n == 0 {
		return append(dst, 0)
	}

	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte(n & 0x7f)
		n >>= 7
	}

	for j := i; j < len(buf)-1; j++ {
		dst = append(dst, buf[j]|0x80)
	}
	return append(dst, buf[len(buf)-1])
}

// Decode reads a varint from the front of b, returning the decoded value
// and the remaining unconsumed bytes. It returns KindParseEnded if b runs
// out before a terminator byte (high bit clear) is seen.
func Decode(b []byte) (uint64, []byte, error) {
	var res uint64
	for i, c := range b {
		res = (res << 7) | uint64(c&0x7f)
		if c&0x80 == 0 {
			return res, b[i+1:], nil
		}
	}
	return 0, nil, nerr.New(nerr.KindParseEnded, "varint: truncated input")
}
