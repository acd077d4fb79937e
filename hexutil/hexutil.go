// Package hexutil provides the lowercase, unseparated hex encoding used
// at the harness boundary for ids and wire messages.
package hexutil

import (
	"encoding/hex"

	"github.com/negentropysync/negentropy/nerr"
)

// Encode renders b as lowercase hex with no separators.
func Encode(b []byte) string {
	return hex.EncodeToString(b)
}

// Decode parses s as lowercase or uppercase hex with no separators.
// An odd-length or non-hex string fails with KindHexDecode.
func Decode(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, nerr.Newf(nerr.KindHexDecode, "hexutil: %v", err)
	}
	return b, nil
}
