package treegraph

// normalConfirmationRisk computes the probability that a pivot block
// leading its rival by adv subtree-weight, under an adversary with
// advPercent hash share and m honest blocks mined since, is eventually
// overtaken (spec §4.9), ported from the original's
// math::normal_confirmation_risk: it sums, over every count k of blocks
// the adversary could have secretly withheld, the chance of having
// withheld exactly k (the negative-binomial pmf) times the chance a
// pure random walk starting adv-k behind ever catches up, plus the
// negative binomial's own survival mass beyond adv.
func normalConfirmationRisk(cache *ProbabilityCache, advPercent, m, adv int) float64 {
	nb := newNegativeBinomial(m, advPercent)

	randomWalkProb := cache.randomWalkRange(adv+2, advPercent, func(k int) float64 {
		return computeRandomWalkProb(k, advPercent)
	})
	pmfList := cache.hiddenMaliciousRange(adv, m, advPercent, func(k int) float64 {
		return nb.pmf(k)
	})

	sum := 0.0
	for k := 0; k < adv; k++ {
		sum += pmfList[k] * randomWalkProb[adv-k]
	}
	sum += nb.sf(adv)
	return sum
}
