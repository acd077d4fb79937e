package reconcile

import (
	"github.com/negentropysync/negentropy/fingerprint"
	"github.com/negentropysync/negentropy/store"
	"github.com/negentropysync/negentropy/wire"
)

// builder assembles the outgoing record sequence for one round: it
// merges adjacent Skip records as they are appended and, once the
// engine detects the frame size limit has been exceeded, lets the
// caller collapse everything from a given rank onward into a single
// trailing Fingerprint record.
type builder struct {
	limit     uint64
	recs      []wire.Record
	truncated bool
}

// trailerSize bounds the encoded size of the trailing Fingerprint record
// that truncateTo appends: a timestamp delta of at most 10 bytes, a
// 1-byte empty prefix length, a 1-byte mode and the fingerprint.
const trailerSize = 10 + 1 + 1 + fingerprint.Size

func newBuilder(limit uint64) *builder {
	return &builder{limit: limit}
}

// append adds rec, merging it into a trailing Skip record if both are Skip.
func (b *builder) append(rec wire.Record) {
	if rec.Mode == wire.ModeSkip && len(b.recs) > 0 && b.recs[len(b.recs)-1].Mode == wire.ModeSkip {
		b.recs[len(b.recs)-1].Upper = rec.Upper
		return
	}
	b.recs = append(b.recs, rec)
}

func (b *builder) records() []wire.Record {
	return b.recs
}

func (b *builder) bytes() []byte {
	return wire.EncodeMessage(b.recs)
}

// snapshot returns a mark that rollback can later return to.
func (b *builder) snapshot() int {
	return len(b.recs)
}

// overLimit reports whether the message assembled so far, plus room for
// the trailing record truncateTo may append, exceeds the configured frame
// size limit (always false when the limit is 0).
func (b *builder) overLimit() bool {
	if b.limit == 0 {
		return false
	}
	return uint64(len(b.bytes()))+trailerSize > b.limit
}

// truncateTo rolls back to snap and replaces everything from rank lo
// onward with a single Fingerprint record spanning the unfinished tail
// up to infinity, per the frame-size-limit truncation rule.
func (b *builder) truncateTo(snap, lo int, s *store.Store) {
	b.recs = b.recs[:snap]
	fp := s.Fingerprint(lo, s.Len())
	b.append(wire.Record{Upper: store.Infinity(), Mode: wire.ModeFingerprint, FP: fp})
	b.truncated = true
}
