package treegraph

import (
	"strings"
	"testing"
)

// buildTestGraph parses a small five-block graph (spec §4.7):
//
//	genesis -> block1 -> block2 (referencing block3 as a referee) -> block4
//	                  \-> block3
//
// block2's subtree (2: itself + block4) outweighs block3's (1), so the
// pivot chain is genesis -> block1 -> block2 -> block4, and block2's
// epoch set gains block3 through the referee closure.
func buildTestGraph(t *testing.T) *Graph {
	t.Helper()
	genesisParent := "0x" + strings.Repeat("00", 32)
	h1 := "0x" + strings.Repeat("01", 32)
	h2 := "0x" + strings.Repeat("02", 32)
	h3 := "0x" + strings.Repeat("03", 32)
	h4 := "0x" + strings.Repeat("04", 32)

	log := strings.Join([]string{
		blockLine(1, 1, h1, genesisParent, nil, 1000, 1, 10),
		blockLine(2, 2, h2, h1, []string{h3}, 1001, 2, 20),
		blockLine(3, 2, h3, h1, nil, 1002, 1, 10),
		blockLine(4, 3, h4, h2, nil, 1003, 3, 30),
	}, "\n")

	g, err := ParseLog(strings.NewReader(log))
	if err != nil {
		t.Fatalf("ParseLog: %v", err)
	}
	if err := g.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return g
}

func TestFinalizeSubtreeSizes(t *testing.T) {
	g := buildTestGraph(t)
	h1 := mustParseHash(t, "0x"+strings.Repeat("01", 32))
	h2 := mustParseHash(t, "0x"+strings.Repeat("02", 32))
	h3 := mustParseHash(t, "0x"+strings.Repeat("03", 32))
	h4 := mustParseHash(t, "0x"+strings.Repeat("04", 32))

	cases := []struct {
		hash H256
		want uint64
	}{
		{g.RootHash(), 5},
		{h1, 4},
		{h2, 2},
		{h3, 1},
		{h4, 1},
	}
	for _, c := range cases {
		if got := g.Block(c.hash).SubtreeSize; got != c.want {
			t.Errorf("SubtreeSize(%s) = %d, want %d", c.hash, got, c.want)
		}
	}
}

func TestFinalizePivotChain(t *testing.T) {
	g := buildTestGraph(t)
	chain := g.PivotChain()
	if len(chain) != 4 {
		t.Fatalf("pivot chain length = %d, want 4", len(chain))
	}
	wantHeights := []uint64{0, 1, 2, 3}
	for i, b := range chain {
		if b.Height != wantHeights[i] {
			t.Errorf("chain[%d].Height = %d, want %d", i, b.Height, wantHeights[i])
		}
	}
	h2 := mustParseHash(t, "0x"+strings.Repeat("02", 32))
	if chain[2].Hash != h2 {
		t.Errorf("chain[2] should be block2 (heavier subtree than block3)")
	}
}

func TestFinalizeEpochSet(t *testing.T) {
	g := buildTestGraph(t)
	h2 := mustParseHash(t, "0x"+strings.Repeat("02", 32))
	h3 := mustParseHash(t, "0x"+strings.Repeat("03", 32))
	block2 := g.Block(h2)

	if block2.EpochSize() != 2 {
		t.Fatalf("block2.EpochSize() = %d, want 2", block2.EpochSize())
	}
	if len(block2.EpochSet) != 1 || block2.EpochSet[0] != h3 {
		t.Fatalf("block2.EpochSet = %v, want [%s]", block2.EpochSet, h3)
	}

	block1 := g.Block(mustParseHash(t, "0x"+strings.Repeat("01", 32)))
	if len(block1.EpochSet) != 0 {
		t.Fatalf("block1.EpochSet = %v, want empty", block1.EpochSet)
	}
}

func TestFinalizePastSetSizes(t *testing.T) {
	g := buildTestGraph(t)
	h1 := mustParseHash(t, "0x"+strings.Repeat("01", 32))
	h2 := mustParseHash(t, "0x"+strings.Repeat("02", 32))
	h3 := mustParseHash(t, "0x"+strings.Repeat("03", 32))
	h4 := mustParseHash(t, "0x"+strings.Repeat("04", 32))

	cases := []struct {
		hash H256
		want uint64
	}{
		{g.RootHash(), 1},
		{h1, 2},
		{h3, 3},
		{h2, 4},
		{h4, 5},
	}
	for _, c := range cases {
		if got := g.Block(c.hash).PastSetSize; got != c.want {
			t.Errorf("PastSetSize(%s) = %d, want %d", c.hash, got, c.want)
		}
	}
}

func TestFinalizeSubtreeAdvantage(t *testing.T) {
	g := buildTestGraph(t)
	h1 := mustParseHash(t, "0x"+strings.Repeat("01", 32))
	block1 := g.Block(h1)
	if block1.SubtreeAdvSeries == nil {
		t.Fatal("block1.SubtreeAdvSeries is nil")
	}

	var lastAdv int16
	block1.SubtreeAdvSeries.Each(func(_ uint64, v int16) { lastAdv = v })
	// block2's final subtree size (2) minus block3's (1).
	if lastAdv != 1 {
		t.Errorf("block1's final subtree advantage = %d, want 1", lastAdv)
	}

	genesis := g.GenesisBlock()
	var lastGenesisAdv int16
	genesis.SubtreeAdvSeries.Each(func(_ uint64, v int16) { lastGenesisAdv = v })
	// genesis's sole child (block1) has no siblings, so advantage equals
	// block1's own final subtree size (4).
	if lastGenesisAdv != 4 {
		t.Errorf("genesis's final subtree advantage = %d, want 4", lastGenesisAdv)
	}
}

func TestFinalizeDanglingRefereeFails(t *testing.T) {
	genesisParent := "0x" + strings.Repeat("00", 32)
	h1 := "0x" + strings.Repeat("01", 32)
	danglingReferee := "0x" + strings.Repeat("ff", 32)

	log := blockLine(1, 1, h1, genesisParent, []string{danglingReferee}, 1000, 1, 10)
	g, err := ParseLog(strings.NewReader(log))
	if err != nil {
		t.Fatalf("ParseLog: %v", err)
	}
	if err := g.Finalize(); err == nil {
		t.Fatal("expected Finalize to fail on a dangling referee hash")
	}
}
