// Package reconcile implements the stateful set-reconciliation engine:
// the initiator/responder message exchange built on top of wire's
// framing and store's ordered item container.
package reconcile

import (
	"github.com/negentropysync/negentropy/log"
	"github.com/negentropysync/negentropy/nerr"
	"github.com/negentropysync/negentropy/store"
	"github.com/negentropysync/negentropy/wire"
)

// buckets is the fan-out used when a mismatched fingerprint range is
// too large to enumerate as an id list outright.
const buckets = 16

// frameSizeLimitFloor is the minimum nonzero frame_size_limit accepted
// by New.
const frameSizeLimitFloor = 4096

type role int

const (
	roleFresh role = iota
	roleInitiator
	roleResponder
)

// Engine drives one side of a reconciliation against a sealed store. It
// is not safe for concurrent use; drive one engine per goroutine.
type Engine struct {
	store          *store.Store
	idSize         int
	frameSizeLimit uint64

	role  role
	done  bool
	round int
}

// New binds an engine to a sealed store. idSize must match the store's
// configured id size; frameSizeLimit is 0 (unlimited) or at least 4096.
func New(s *store.Store, idSize int, frameSizeLimit uint64) (*Engine, error) {
	if !s.Sealed() {
		return nil, nerr.New(nerr.KindNotSealed, "reconcile: store must be sealed before use")
	}
	if idSize != s.IDSize() {
		return nil, nerr.Newf(nerr.KindInvalidIdSize, "reconcile: id size %d does not match store id size %d", idSize, s.IDSize())
	}
	if frameSizeLimit != 0 && frameSizeLimit < frameSizeLimitFloor {
		return nil, nerr.Newf(nerr.KindFrameSizeLimitTooSmall, "reconcile: frame size limit %d below floor %d", frameSizeLimit, frameSizeLimitFloor)
	}
	return &Engine{store: s, idSize: idSize, frameSizeLimit: frameSizeLimit}, nil
}

// Initiate marks this engine as the initiator and returns the first
// outgoing message: a single Fingerprint record over the full domain,
// or an empty IdList if the store holds no items.
func (e *Engine) Initiate() ([]byte, error) {
	if e.role != roleFresh {
		return nil, nerr.New(nerr.KindInitiatorError, "reconcile: initiate called more than once")
	}
	e.role = roleInitiator

	b := newBuilder(e.frameSizeLimit)
	if e.store.Len() == 0 {
		b.append(wire.Record{Upper: store.Infinity(), Mode: wire.ModeIdList, IDs: nil})
	} else {
		fp := e.store.Fingerprint(0, e.store.Len())
		b.append(wire.Record{Upper: store.Infinity(), Mode: wire.ModeFingerprint, FP: fp})
	}

	out := b.bytes()
	e.logRound("initiate", nil, out, b)
	return out, nil
}

// Reconcile ingests one incoming message and returns the next outgoing
// message (nil once the initiator has fully reconciled), along with any
// ids newly discovered this round. Only the initiator populates haveIDs
// and needIDs; for a responder both are always empty.
func (e *Engine) Reconcile(msg []byte) (next []byte, haveIDs, needIDs []store.ID, err error) {
	if e.role == roleInitiator && e.done {
		return nil, nil, nil, nerr.New(nerr.KindInitiatorError, "reconcile: already done")
	}

	records, err := wire.DecodeMessage(msg, e.idSize)
	if err != nil {
		return nil, nil, nil, err
	}
	if e.role == roleFresh {
		e.role = roleResponder
	}

	b := newBuilder(e.frameSizeLimit)
	lo := 0

	if e.role == roleInitiator {
		for _, rec := range records {
			hi := e.store.FindLowerBound(lo, e.store.Len(), rec.Upper)
			snap := b.snapshot()
			h, n := e.handleAsInitiator(lo, hi, rec, b)
			if b.overLimit() {
				b.truncateTo(snap, lo, e.store)
				lo = hi
				break
			}
			haveIDs = append(haveIDs, h...)
			needIDs = append(needIDs, n...)
			lo = hi
		}
		if !hasOutstandingWork(b.records()) {
			e.done = true
			e.logRound("reconcile", msg, nil, b)
			return nil, haveIDs, needIDs, nil
		}
	} else {
		for _, rec := range records {
			hi := e.store.FindLowerBound(lo, e.store.Len(), rec.Upper)
			snap := b.snapshot()
			e.handleAsResponder(lo, hi, rec, b)
			if b.overLimit() {
				b.truncateTo(snap, lo, e.store)
				lo = hi
				break
			}
			lo = hi
		}
	}

	out := b.bytes()
	e.logRound("reconcile", msg, out, b)
	return out, haveIDs, needIDs, nil
}

// hasOutstandingWork reports whether recs contains anything beyond
// (merged) Skip records — the termination condition for the initiator.
func hasOutstandingWork(recs []wire.Record) bool {
	for _, r := range recs {
		if r.Mode != wire.ModeSkip {
			return true
		}
	}
	return false
}

func (e *Engine) handleAsResponder(lo, hi int, rec wire.Record, b *builder) {
	switch rec.Mode {
	case wire.ModeSkip:
		b.append(wire.Record{Upper: rec.Upper, Mode: wire.ModeSkip})

	case wire.ModeFingerprint:
		if e.store.Fingerprint(lo, hi) == rec.FP {
			b.append(wire.Record{Upper: rec.Upper, Mode: wire.ModeSkip})
		} else {
			e.splitRange(lo, hi, rec.Upper, b)
		}

	case wire.ModeIdList:
		// The initiator has declared the final truth for this range;
		// a plain responder does not populate have/need itself.
		b.append(wire.Record{Upper: rec.Upper, Mode: wire.ModeSkip})
	}
}

func (e *Engine) handleAsInitiator(lo, hi int, rec wire.Record, b *builder) (have, need []store.ID) {
	switch rec.Mode {
	case wire.ModeSkip:
		b.append(wire.Record{Upper: rec.Upper, Mode: wire.ModeSkip})

	case wire.ModeFingerprint:
		if e.store.Fingerprint(lo, hi) == rec.FP {
			b.append(wire.Record{Upper: rec.Upper, Mode: wire.ModeSkip})
		} else if hi-lo > buckets {
			e.splitRange(lo, hi, rec.Upper, b)
		} else {
			// Small ranges are split into one Fingerprint record per local
			// item (one over the empty range if there are none), so that
			// the responder, not the initiator, sends the IdList.
			for i := lo; i+1 < hi; i++ {
				upper := separatingBound(e.store.Get(i), e.store.Get(i+1))
				b.append(wire.Record{Upper: upper, Mode: wire.ModeFingerprint, FP: e.store.Fingerprint(i, i+1)})
			}
			last := max(lo, hi-1)
			b.append(wire.Record{Upper: rec.Upper, Mode: wire.ModeFingerprint, FP: e.store.Fingerprint(last, hi)})
		}

	case wire.ModeIdList:
		theirs := make(map[string]struct{}, len(rec.IDs))
		for _, id := range rec.IDs {
			theirs[string(id)] = struct{}{}
		}
		mine := make(map[string]struct{}, hi-lo)
		for i := lo; i < hi; i++ {
			mine[string(e.store.Get(i).ID)] = struct{}{}
		}

		for _, id := range rec.IDs {
			if _, ok := mine[string(id)]; !ok {
				need = append(need, id.Clone())
			}
		}

		var declare []store.ID
		for i := lo; i < hi; i++ {
			id := e.store.Get(i).ID
			if _, ok := theirs[string(id)]; !ok {
				have = append(have, id.Clone())
				declare = append(declare, id)
			}
		}

		if len(declare) == 0 {
			b.append(wire.Record{Upper: rec.Upper, Mode: wire.ModeSkip})
		} else {
			b.append(wire.Record{Upper: rec.Upper, Mode: wire.ModeIdList, IDs: declare})
		}
	}
	return have, need
}

func (e *Engine) logRound(op string, in, out []byte, b *builder) {
	e.round++
	skip, fp, idlist := countModes(b.records())
	log.GetLogger().With().Debug("reconciliation round",
		log.String("op", op),
		log.Int("round", e.round),
		log.Int("in_bytes", len(in)),
		log.Int("out_bytes", len(out)),
		log.Int("skip_records", skip),
		log.Int("fingerprint_records", fp),
		log.Int("idlist_records", idlist),
	)
}

func countModes(recs []wire.Record) (skip, fp, idlist int) {
	for _, r := range recs {
		switch r.Mode {
		case wire.ModeSkip:
			skip++
		case wire.ModeFingerprint:
			fp++
		case wire.ModeIdList:
			idlist++
		}
	}
	return
}
