package treegraph

// RiskPoint is one entry of a confirmation-risk series: risk is the
// probability (spec §4.9) that the given pivot block is ever reverted,
// offset is seconds after the block's own timestamp.
type RiskPoint struct {
	Offset uint64
	Risk   float64
}

// ConfirmationRiskSeries computes, for a pivot-chain block under the
// given adversary hash share, how confirmation risk falls as more
// honest weight accumulates behind it (spec §4.9), ported from the
// original's confirmation::confirmation_risk_series. It combines the
// genesis block's total subtree-size series with the block's parent's
// subtree-advantage series: wherever the sibling advantage is not
// positive the block is treated as fully unconfirmed (risk 1), and
// leading points with risk >= 0.5 are dropped since a rational observer
// would not yet call the block provisionally confirmed.
func (g *Graph) ConfirmationRiskSeries(block *Block, advPercent int) []RiskPoint {
	parent := g.Parent(block)
	totalBlocks := g.GenesisBlock().SubtreeSizeSeries
	sibAdvBlocks := parent.SubtreeAdvSeries

	series := TupleCartesianMap(totalBlocks, sibAdvBlocks, func(total *uint16, sibAdv *int16) *float64 {
		if sibAdv == nil {
			return nil
		}
		if *sibAdv <= 0 {
			risk := 1.0
			return &risk
		}
		if total == nil {
			return nil
		}
		m := int(*total) + 1 - int(parent.PastSetSize)
		n := int(*sibAdv)
		risk := normalConfirmationRisk(DefaultProbabilityCache, advPercent, m, n)
		if risk < 1e-12 {
			risk = 1e-12
		}
		return &risk
	})
	series.Reduce()

	var out []RiskPoint
	dropping := true
	series.Each(func(timestamp uint64, risk float64) {
		if dropping {
			if risk >= 0.5 {
				return
			}
			dropping = false
		}
		out = append(out, RiskPoint{Offset: timestamp - block.Timestamp, Risk: risk})
	})
	return out
}

// ConfirmationRiskResult is the first series point whose risk drops
// below a requested threshold, plus the (m, k) honest/adversary block
// counts observed at that moment, per the original's confirmation_risk.
type ConfirmationRiskResult struct {
	TimeOffset uint64
	Honest     uint64
	Adversary  uint64
	Risk       float64
}

// ConfirmationRisk finds the first point in block's confirmation-risk
// series whose risk falls below riskThreshold, and reports the honest
// (m) and adversary (k) block counts the series was evaluated at, for
// diagnostics (spec §4.9, §8).
func (g *Graph) ConfirmationRisk(block *Block, advPercent int, riskThreshold float64) (ConfirmationRiskResult, bool) {
	for _, p := range g.ConfirmationRiskSeries(block, advPercent) {
		if p.Risk < riskThreshold {
			confirmTime := block.Timestamp + p.Offset
			parent := g.Parent(block)
			totalBlocks := g.GenesisBlock().SubtreeSizeSeries
			sibAdvBlocks := parent.SubtreeAdvSeries

			totalAt, _ := totalBlocks.At(confirmTime)
			m := uint64(totalAt) + 1 - parent.PastSetSize
			sibAdvAt, _ := sibAdvBlocks.At(confirmTime)
			k := uint64(sibAdvAt)

			return ConfirmationRiskResult{TimeOffset: p.Offset, Honest: m, Adversary: k, Risk: p.Risk}, true
		}
	}
	return ConfirmationRiskResult{}, false
}

// AvgConfirmTime is the weighted average confirmation time across every
// non-genesis pivot block, weighted by each block's epoch size, per the
// original's Graph::avg_confirm_time: a block whose confirmation risk
// never falls below riskThreshold is excluded from both the sum and the
// block count.
func (g *Graph) AvgConfirmTime(advPercent int, riskThreshold float64) (avg float64, blockCount uint64) {
	var totalConfirmTime float64
	for _, block := range g.PivotChain() {
		if block.Height == 0 {
			continue
		}
		result, ok := g.ConfirmationRisk(block, advPercent, riskThreshold)
		if !ok {
			continue
		}
		epochSize := uint64(block.EpochSize())
		totalConfirmTime += (float64(result.TimeOffset) + g.AvgEpochTime(block)) * float64(epochSize)
		blockCount += epochSize
	}
	if blockCount == 0 {
		return 0, 0
	}
	return totalConfirmTime / float64(blockCount), blockCount
}
