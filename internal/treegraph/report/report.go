// Package report renders a tree-graph analysis into the textual output
// described in spec §8 and SPEC_FULL's supplemented compute_confirmation
// grid: a per-graph summary line followed by a go-pretty table of
// average confirmation time for every requested (adversary %, risk
// threshold) combination.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// GraphSummary is the scalar figures printed before the confirmation
// grid, mirroring analyze_all_nodes.rs's per-graph header line.
type GraphSummary struct {
	NodeLabel      string
	BlockCount     int
	PivotChainLen  int
	GenesisSubtree uint64
}

// GridRow is one (adversary %, risk threshold) combination's result, the
// row shape compute_confirmation.rs's grid loop prints.
type GridRow struct {
	AdvPercent   int
	RiskThresh   float64
	AvgConfirmed float64
	BlockCount   uint64
	HasResult    bool
}

// Write renders summary then the confirmation grid as a go-pretty table.
func Write(w io.Writer, summary GraphSummary, rows []GridRow) error {
	fmt.Fprintf(w, "Node: %s\n", summary.NodeLabel)
	fmt.Fprintf(w, "Block count: %d\n", summary.BlockCount)
	fmt.Fprintf(w, "Pivot chain length: %d\n", summary.PivotChainLen)
	fmt.Fprintf(w, "Genesis subtree size: %d\n", summary.GenesisSubtree)
	fmt.Fprintln(w)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"adv%", "risk", "avg confirm time (s)", "blocks"})

	for _, r := range rows {
		if !r.HasResult {
			tbl.AppendRow(table.Row{r.AdvPercent, fmt.Sprintf("%.0e", r.RiskThresh), "n/a", 0})
			continue
		}
		tbl.AppendRow(table.Row{r.AdvPercent, fmt.Sprintf("%.0e", r.RiskThresh), fmt.Sprintf("%.2f", r.AvgConfirmed), r.BlockCount})
	}

	tbl.Render()
	return nil
}

// WriteCrossCheck prints the diagnostic-only cross-node pivot-chain
// agreement line from the supplemented analyze_all_nodes batch mode: the
// length of the longest pivot-chain prefix every supplied node agrees
// on, and a warning when that prefix is shorter than the shortest chain.
func WriteCrossCheck(w io.Writer, nodeCount, agreedPrefix, shortestChain int) {
	fmt.Fprintf(w, "\nCross-check across %d nodes: agree on first %d pivot blocks", nodeCount, agreedPrefix)
	if agreedPrefix < shortestChain {
		fmt.Fprintf(w, " (WARNING: shortest chain has %d blocks, divergence detected)", shortestChain)
	}
	fmt.Fprintln(w)
}
