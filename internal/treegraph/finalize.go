package treegraph

import (
	"sort"

	"github.com/blockbench/ledgerstat/internal/errs"
	"github.com/blockbench/ledgerstat/internal/idhash"
)

// Finalize runs the seven-phase graph finalizer (spec §4.7) over a
// freshly parsed Graph: referential check, link children, subtree sizes
// and time series, sort children, mark epochs, past-set bitmaps, and
// subtree-advantage series. Each phase is idempotent once its
// postcondition holds, ported from the original's GraphComputer::finalize.
func (g *Graph) Finalize() error {
	if err := g.checkReferences(); err != nil {
		return err
	}
	g.linkChildren()
	g.computeSubtreeSizes(g.GenesisBlock())
	g.sortAllChildren()

	for _, pivot := range g.PivotChain() {
		epochHash := pivot.Hash
		g.markEpoch(pivot, epochHash)
	}

	if err := g.computePastSetBitmaps(); err != nil {
		return err
	}
	g.computeSubtreeAdvantage()
	return nil
}

// sortedHashes returns every block hash in the graph, sorted ascending.
// Used wherever a phase needs a deterministic iteration order over a Go
// map (the original's HashMap iteration order is itself unspecified, so
// any deterministic order preserves the spec's "ties broken in
// insertion order" contract as long as it is applied consistently).
func (g *Graph) sortedHashes() []H256 {
	hashes := make([]H256, 0, len(g.blockMap))
	for h := range g.blockMap {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return less256(hashes[i], hashes[j]) })
	return hashes
}

func less256(a, b H256) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// checkReferences is phase 1 (spec §4.7): every parent hash other than
// root must resolve within the block map. It additionally validates
// every referee hash, per the Graph invariant stated in spec §3
// ("every non-root parent_hash and every referee resolves within
// block_map") even though the original Rust implementation's
// check_block_hash only checked parents; the later past-set phase
// assumes referees resolve too, so the stronger check surfaces a
// dangling referee immediately instead of looping in the past-set
// worklist.
func (g *Graph) checkReferences() error {
	for _, hash := range g.sortedHashes() {
		block := g.blockMap[hash]
		if block.ParentHash != nil && *block.ParentHash != g.rootHash {
			if _, ok := g.blockMap[*block.ParentHash]; !ok {
				return errs.Newf(errs.ConsistencyError, "block %s has dangling parent hash %s", hash, *block.ParentHash)
			}
		}
		for _, refHash := range block.Referees {
			if _, ok := g.blockMap[refHash]; !ok {
				return errs.Newf(errs.ConsistencyError, "block %s has dangling referee hash %s", hash, refHash)
			}
		}
	}
	return nil
}

// linkChildren is phase 2: append each block's own hash to its parent's
// Children list, in deterministic hash order.
func (g *Graph) linkChildren() {
	for _, hash := range g.sortedHashes() {
		block := g.blockMap[hash]
		if block.ParentHash == nil {
			continue
		}
		parent := g.blockMap[*block.ParentHash]
		parent.Children = append(parent.Children, hash)
	}
}

// computeSubtreeSizes is phase 3: subtree_size = 1 + sum(children
// subtree_size), computed by memoized recursion exactly as the
// original's calculate_subtree_size (SubtreeSize == 0 signals
// "not yet computed", valid since a finalized block always has
// SubtreeSize >= 1 per spec §3's invariant). Go's goroutine stacks grow
// on demand, so this recursion does not need the large fixed worker
// stack spec §5 calls out for implementations with fixed-size thread
// stacks.
func (g *Graph) computeSubtreeSizes(block *Block) (uint64, *TimeSeries[uint16]) {
	if block.SubtreeSize > 0 {
		return block.SubtreeSize, block.SubtreeSizeSeries
	}

	childrenSum := uint64(1)
	var series []*TimeSeries[uint16]
	if block.LogTimestamp > 0 {
		series = append(series, NewTimeSeries[uint16](block.LogTimestamp, 1))
	}
	for _, childHash := range block.Children {
		child := g.blockMap[childHash]
		size, childSeries := g.computeSubtreeSizes(child)
		series = append(series, childSeries)
		childrenSum += size
	}

	merged := ArrayCartesianMap(series, func(current []*uint16) *uint16 {
		var sum uint16
		for _, v := range current {
			if v != nil {
				sum += *v
			}
		}
		return &sum
	})
	merged.Reduce()

	block.SubtreeSize = childrenSum
	block.SubtreeSizeSeries = merged
	return block.SubtreeSize, block.SubtreeSizeSeries
}

// sortAllChildren is phase 4: every block's Children is sorted
// descending by child subtree size, ties broken by the order Children
// was appended in (linkChildren's deterministic hash order). Subtree
// sizes are already known for every block once computeSubtreeSizes
// returns, so this is a single flat pass rather than the original's
// tree-shaped recursive sort_children: both visit the same set of
// blocks, since the parent/child relation reaches every block in the
// graph.
func (g *Graph) sortAllChildren() {
	for _, hash := range g.sortedHashes() {
		block := g.blockMap[hash]
		sort.SliceStable(block.Children, func(i, j int) bool {
			return g.blockMap[block.Children[i]].SubtreeSize > g.blockMap[block.Children[j]].SubtreeSize
		})
	}
}

// markEpoch is phase 5, invoked once per pivot block P: it recurses
// over the referee-closure of P (referees of referees, transitively)
// that is not already epoch-marked, assigning EpochBlock = P's hash on
// each visited block, and returns the hashes of the non-P blocks it
// visited so the caller (or an enclosing recursive call) can fold them
// into P's EpochSet.
func (g *Graph) markEpoch(block *Block, epochHash H256) []H256 {
	if block.EpochBlock != nil {
		return nil
	}
	h := epochHash
	block.EpochBlock = &h

	var collected []H256
	for _, refHash := range block.Referees {
		ref := g.blockMap[refHash]
		collected = append(collected, g.markEpoch(ref, epochHash)...)
	}

	if block.Hash == epochHash {
		block.EpochSet = idhash.SortedSet(collected)
		return nil
	}
	return append(collected, block.Hash)
}

// computePastSetBitmaps is phase 6: past(B) = past(parent) union
// past(referee)* union {B}, computed with an explicit worklist so the
// recursion depth never depends on call-stack size (spec §4.7 mandates
// this phase be iterative), ported from the original's
// compute_past_set_bitmap / PastsetCollector.
func (g *Graph) computePastSetBitmaps() error {
	bitmaps := make(map[H256]*Bitmap, len(g.blockMap))
	order := g.sortedHashes()
	orderIdx := 0
	var stack []H256

	for {
		var hash H256
		if n := len(stack); n > 0 {
			hash = stack[n-1]
			stack = stack[:n-1]
		} else if orderIdx < len(order) {
			hash = order[orderIdx]
			orderIdx++
		} else {
			break
		}

		if _, done := bitmaps[hash]; done {
			continue
		}
		block := g.blockMap[hash]

		var ready []*Bitmap
		var pending []H256
		collect := func(h H256) {
			if bm, ok := bitmaps[h]; ok {
				ready = append(ready, bm)
				return
			}
			pending = append(pending, h)
		}
		for _, refHash := range block.Referees {
			collect(refHash)
		}
		if block.ParentHash != nil {
			collect(*block.ParentHash)
		}

		if len(pending) > 0 {
			stack = append(stack, hash)
			stack = append(stack, pending...)
			continue
		}

		bm := &Bitmap{}
		for _, r := range ready {
			bm.Combine(r)
		}
		bm.Set(block.ID)
		bitmaps[hash] = bm
	}

	for hash, bm := range bitmaps {
		g.blockMap[hash].PastSetSize = uint64(bm.Count())
	}
	return nil
}

// computeSubtreeAdvantage is phase 7: for each pivot block with
// children, combine children's subtree_size_series into a series of
// (best child weight - max sibling weight), ported from the original's
// compute_subtree_adv.
func (g *Graph) computeSubtreeAdvantage() {
	for _, block := range g.PivotChain() {
		if len(block.Children) == 0 {
			continue
		}
		childSeries := make([]*TimeSeries[uint16], len(block.Children))
		for i, h := range block.Children {
			childSeries[i] = g.blockMap[h].SubtreeSizeSeries
		}

		advSeries := ArrayCartesianMap(childSeries, func(current []*uint16) *int16 {
			if current[0] == nil {
				return nil
			}
			best := int16(*current[0])
			var maxSib int16
			for _, v := range current[1:] {
				if v != nil {
					if s := int16(*v); s > maxSib {
						maxSib = s
					}
				}
			}
			result := best - maxSib
			return &result
		})
		block.SubtreeAdvSeries = advSeries
	}
}
