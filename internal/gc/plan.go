// Package gc implements value-log garbage collection: scanning a sealed
// segment for entries the live index still points at, relocating them
// into the active segment, and handing the result to the engine to
// reapply under its writer mutex as a compare-and-swap against
// foreground writes, grounded on the same scan-then-reapply shape
// FlashLog's compaction path uses for its own rewrite-and-commit flow,
// generalized here to race against concurrent writers instead of running
// under an exclusive lock for the whole pass.
package gc

import "github.com/ignitedb/ignite/internal/record"

// IndexLookup resolves a key to its currently-live value-log pointer, if
// any. GC calls this to tell whether a (key,value) block it is scanning
// is still referenced by the live index or is already dead (overwritten,
// deleted, or the key's value was itself rewritten by an earlier GC
// pass). Implementations consult the engine's real, current index — not
// a private snapshot copy — since a stale view would produce proposals
// for entries that have already moved.
type IndexLookup interface {
	Lookup(key []byte) (ptr record.Pointer, ok bool)
}

// Proposal is one (key, value) pair GC found still live in the segment
// being scanned, along with the pointer it expects the index to still
// hold. The engine accepts a proposal only if the index's current
// pointer for Key still equals OldPointer at reapply time; otherwise a
// concurrent foreground write already raced ahead and the proposal is
// simply dropped.
type Proposal struct {
	Key        []byte
	Value      []byte
	OldPointer record.Pointer
}

// Plan is the result of scanning one sealed segment: its live/dead byte
// split and the proposals needed to relocate every entry still live.
type Plan struct {
	SegmentID  uint32
	TotalBytes int64
	LiveBytes  int64
	Proposals  []Proposal
}

// DeadRatio returns the fraction of TotalBytes no longer referenced by
// the live index.
func (p Plan) DeadRatio() float64 {
	if p.TotalBytes == 0 {
		return 0
	}
	return float64(p.TotalBytes-p.LiveBytes) / float64(p.TotalBytes)
}
