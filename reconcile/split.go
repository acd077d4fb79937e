package reconcile

import (
	"github.com/negentropysync/negentropy/store"
	"github.com/negentropysync/negentropy/wire"
)

// splitRange handles a mismatched-fingerprint range [lo, hi) with
// declared upper bound upper: small ranges are enumerated outright,
// larger ones are partitioned into at most `buckets` sub-ranges, each
// emitted as its own Fingerprint record.
func (e *Engine) splitRange(lo, hi int, upper store.Bound, b *builder) {
	count := hi - lo
	if count == 0 {
		b.append(wire.Record{Upper: upper, Mode: wire.ModeIdList, IDs: nil})
		return
	}
	if count <= buckets {
		b.append(wire.Record{Upper: upper, Mode: wire.ModeIdList, IDs: e.idsInRange(lo, hi)})
		return
	}

	for _, span := range bucketSpans(lo, hi, buckets) {
		fp := e.store.Fingerprint(span[0], span[1])
		bucketUpper := upper
		if span[1] != hi {
			bucketUpper = separatingBound(e.store.Get(span[1]-1), e.store.Get(span[1]))
		}
		b.append(wire.Record{Upper: bucketUpper, Mode: wire.ModeFingerprint, FP: fp})
	}
}

func (e *Engine) idsInRange(lo, hi int) []store.ID {
	ids := make([]store.ID, 0, hi-lo)
	for i := lo; i < hi; i++ {
		ids = append(ids, e.store.Get(i).ID)
	}
	return ids
}

// bucketSpans partitions [lo, hi) into at most n contiguous spans of
// approximately equal size, the last span always reaching hi.
func bucketSpans(lo, hi, n int) [][2]int {
	count := hi - lo
	perBucket := count / n
	if perBucket < 1 {
		perBucket = 1
	}

	var spans [][2]int
	start := lo
	for start < hi {
		end := start + perBucket
		if end > hi || len(spans) == n-1 {
			end = hi
		}
		spans = append(spans, [2]int{start, end})
		start = end
	}
	return spans
}

// separatingBound returns the minimal bound b such that last < b <= next,
// used as the upper bound of a sub-range ending right after last.
func separatingBound(last, next store.Item) store.Bound {
	if next.Timestamp != last.Timestamp {
		return store.Bound{Timestamp: next.Timestamp}
	}

	k := 0
	for k < len(next.ID) && k < len(last.ID) && next.ID[k] == last.ID[k] {
		k++
	}
	prefixLen := k + 1
	if prefixLen > len(next.ID) {
		prefixLen = len(next.ID)
	}
	return store.Bound{Timestamp: next.Timestamp, IDPrefix: next.ID[:prefixLen].Clone()}
}
