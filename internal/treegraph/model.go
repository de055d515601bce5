// Package treegraph implements the tree-graph analyzer pipeline (G):
// parse per-node block-insertion logs into a directed block graph,
// derive the pivot chain, epoch structure, and past-set sizes, then
// compute a subtree-advantage time series and answer confirmation-risk
// queries (spec §3-§4). It shares only the H256/timestamp vocabulary
// with the latency pipeline, grounded on the teacher's blockdag package
// (domain/blockdag) for how a block-DAG's core types and finalization
// phases are shaped in Go, and on
// _examples/original_source/analyzer/tree_graph_parse for the exact
// per-field semantics.
package treegraph

import "github.com/blockbench/ledgerstat/internal/idhash"

// H256 is a block identifier, shared vocabulary with the latency
// pipeline (spec §2).
type H256 = idhash.H256

// Block is one node in the parsed block graph (spec §3). Fields are
// populated in a fixed phase order (parse -> parent/children -> subtree
// -> sort -> epoch -> past-set -> subtree-adv); after Finalize returns,
// every field is read-only.
type Block struct {
	ID         int
	Height     uint64
	Hash       H256
	ParentHash *H256 // nil only for the synthetic genesis block
	Referees   []H256
	Timestamp    uint64
	LogTimestamp uint64
	TxCount      uint64
	BlockSize    uint64

	Children []H256 // populated by linkChildren, then sorted descending by subtree size

	EpochBlock *H256
	EpochSet   []H256 // sorted; set by markEpoch on pivot blocks only, nil on every other block

	PastSetSize uint64

	SubtreeSize       uint64
	SubtreeSizeSeries *TimeSeries[uint16]
	SubtreeAdvSeries  *TimeSeries[int16]
}

// MaxChild returns the hash of the heaviest child (the pivot-chain
// successor), or false if block has no children.
func (b *Block) MaxChild() (H256, bool) {
	if len(b.Children) == 0 {
		var zero H256
		return zero, false
	}
	return b.Children[0], true
}

// EpochSize is 1 + the number of blocks in this pivot block's epoch set
// (spec §7's GLOSSARY "Epoch set of B").
func (b *Block) EpochSize() int {
	return 1 + len(b.EpochSet)
}

// Graph is the finalized block DAG for one node's log (spec §3).
type Graph struct {
	blockMap map[H256]*Block
	rootHash H256
}

// Block returns the block with the given hash, or nil if absent.
func (g *Graph) Block(hash H256) *Block { return g.blockMap[hash] }

// RootHash returns the synthetic genesis block's hash.
func (g *Graph) RootHash() H256 { return g.rootHash }

// GenesisBlock returns the synthetic genesis block.
func (g *Graph) GenesisBlock() *Block { return g.blockMap[g.rootHash] }

// Blocks returns every block in the graph, order unspecified.
func (g *Graph) Blocks() []*Block {
	out := make([]*Block, 0, len(g.blockMap))
	for _, b := range g.blockMap {
		out = append(out, b)
	}
	return out
}

// Len returns the number of blocks in the graph, including genesis.
func (g *Graph) Len() int { return len(g.blockMap) }

// Parent returns block's parent, or nil for genesis.
func (g *Graph) Parent(block *Block) *Block {
	if block.ParentHash == nil {
		return nil
	}
	return g.blockMap[*block.ParentHash]
}

// PivotChain walks from genesis always descending into MaxChild, per
// spec §7's GLOSSARY definition.
func (g *Graph) PivotChain() []*Block {
	var chain []*Block
	current := g.GenesisBlock()
	for {
		chain = append(chain, current)
		childHash, ok := current.MaxChild()
		if !ok {
			break
		}
		current = g.blockMap[childHash]
	}
	return chain
}

// Referees returns the resolved referee blocks of block.
func (g *Graph) Referees(block *Block) []*Block {
	out := make([]*Block, 0, len(block.Referees))
	for _, h := range block.Referees {
		out = append(out, g.blockMap[h])
	}
	return out
}

// EpochSpan is block.Timestamp minus the minimum timestamp across
// block's epoch (itself included), mirroring the original's
// Graph::epoch_span.
func (g *Graph) EpochSpan(block *Block) uint64 {
	minTimestamp := block.Timestamp
	g.iterEpoch(block, func(b *Block) {
		if b.Timestamp < minTimestamp {
			minTimestamp = b.Timestamp
		}
	})
	return block.Timestamp - minTimestamp
}

// AvgEpochTime is the average, over block's epoch (itself included), of
// block.Timestamp minus each member's timestamp.
func (g *Graph) AvgEpochTime(block *Block) float64 {
	var sum float64
	g.iterEpoch(block, func(b *Block) {
		sum += float64(block.Timestamp - b.Timestamp)
	})
	return sum / float64(block.EpochSize())
}

func (g *Graph) iterEpoch(block *Block, visit func(*Block)) {
	for _, h := range block.EpochSet {
		visit(g.blockMap[h])
	}
	visit(block)
}
