package treegraph

// CommonPivotPrefixLen returns the length of the longest pivot-chain
// prefix every graph in graphs agrees on (same hash at every position up
// to that length), the supplemented cross-node diagnostic from
// analyze_all_nodes.rs's batch mode. It also returns the length of the
// shortest pivot chain among graphs, so a caller can tell "prefix
// matches the shortest chain" (full agreement) from "prefix is strictly
// shorter" (divergence before the shortest chain's tip).
func CommonPivotPrefixLen(graphs []*Graph) (prefix, shortest int) {
	if len(graphs) == 0 {
		return 0, 0
	}
	chains := make([][]*Block, len(graphs))
	shortest = -1
	for i, g := range graphs {
		chains[i] = g.PivotChain()
		if shortest == -1 || len(chains[i]) < shortest {
			shortest = len(chains[i])
		}
	}

	for prefix = 0; prefix < shortest; prefix++ {
		want := chains[0][prefix].Hash
		for _, chain := range chains[1:] {
			if chain[prefix].Hash != want {
				return prefix, shortest
			}
		}
	}
	return prefix, shortest
}
