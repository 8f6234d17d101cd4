package gc

import (
	"sort"

	"github.com/ignitedb/ignite/internal/record"
	"github.com/ignitedb/ignite/internal/vlog"
)

// ScanSegment walks every (key, value) block of segment id and classifies
// each against lookup: still-live entries (the index's current pointer
// for that key matches this exact segment+offset) become Proposals;
// everything else is already dead and simply isn't carried forward.
func ScanSegment(mgr *vlog.Manager, id uint32, lookup IndexLookup) (Plan, error) {
	plan := Plan{SegmentID: id}

	err := mgr.Scan(id, func(offset int64, key, value []byte) error {
		n := int64(len(key) + len(value))
		plan.TotalBytes += n

		ptr, ok := lookup.Lookup(key)
		if !ok || ptr.SegmentID != id || int64(ptr.Offset) != offset {
			return nil
		}

		plan.LiveBytes += n
		plan.Proposals = append(plan.Proposals, Proposal{
			Key:        append([]byte(nil), key...),
			Value:      append([]byte(nil), value...),
			OldPointer: ptr,
		})
		return nil
	})
	if err != nil {
		return Plan{}, err
	}

	return plan, nil
}

// Collector picks GC candidates among a vlog.Manager's sealed segments
// and drives the scan/relocate steps of a single pass.
type Collector struct {
	mgr         *vlog.Manager
	lookup      IndexLookup
	byteCeiling int64
	deadRatio   float64
}

// NewCollector builds a Collector over mgr's sealed segments, triggering
// on aggregate sealed bytes over byteCeiling, or any one segment's
// dead-byte fraction over deadRatio.
func NewCollector(mgr *vlog.Manager, lookup IndexLookup, byteCeiling int64, deadRatio float64) *Collector {
	return &Collector{mgr: mgr, lookup: lookup, byteCeiling: byteCeiling, deadRatio: deadRatio}
}

// PickSegment scans sealed segments oldest-first and returns the first
// one that clears either trigger, along with its scan Plan so the caller
// doesn't need to scan it a second time to get the proposals. Scanning
// every sealed segment to evaluate the byte-ceiling trigger is the cost
// of not tracking per-segment liveness incrementally as writes land; an
// embedded store's background GC cadence can afford it.
func (c *Collector) PickSegment() (Plan, bool, error) {
	infos := c.mgr.SealedSegments()
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	var sealedTotal int64
	for _, inf := range infos {
		sealedTotal += inf.Bytes
	}
	overBudget := sealedTotal > c.byteCeiling

	for _, inf := range infos {
		plan, err := ScanSegment(c.mgr, inf.ID, c.lookup)
		if err != nil {
			return Plan{}, false, err
		}
		if overBudget || plan.DeadRatio() >= c.deadRatio {
			return plan, true, nil
		}
	}

	return Plan{}, false, nil
}

// AppliedProposal is a Proposal whose value has been physically
// relocated into the active segment; Accept reports whether the engine's
// CAS-style reapply actually committed the move (it may lose to a
// concurrent foreground write that already changed the key's pointer).
type AppliedProposal struct {
	Proposal
	NewPointer record.Pointer
	Accepted   bool
}

// Relocate appends every proposal's value to mgr's active segment and
// invokes reapply for each one so the engine can attempt the CAS-guarded
// index update under its writer mutex. Relocation always writes the
// value physically, even for proposals reapply ends up rejecting —
// a rejected proposal's new copy becomes itself a dead (segment,offset)
// entry to be reclaimed on some future GC pass, the same structural cost
// a race loss always has in a copying collector. onRotate is invoked
// (if non-nil) whenever an Append rotates mgr to a new active segment,
// so the caller can record the rotation in the manifest's live vlog
// segment set; it may be nil in tests that don't care.
func Relocate(mgr *vlog.Manager, proposals []Proposal, reapply func(AppliedProposal) (bool, error), onRotate func(segmentID uint32) error) ([]AppliedProposal, error) {
	out := make([]AppliedProposal, 0, len(proposals))
	for _, p := range proposals {
		newPtr, rotatedTo, err := mgr.Append(p.Key, p.Value)
		if err != nil {
			return out, err
		}
		if rotatedTo != 0 && onRotate != nil {
			if err := onRotate(rotatedTo); err != nil {
				return out, err
			}
		}

		ap := AppliedProposal{Proposal: p, NewPointer: newPtr}
		accepted, err := reapply(ap)
		if err != nil {
			return out, err
		}
		ap.Accepted = accepted
		out = append(out, ap)
	}
	return out, nil
}
