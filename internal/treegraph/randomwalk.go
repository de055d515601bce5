package treegraph

import "math"

// Error bounds and polling cadence for the random-walk tail bound below,
// ported verbatim from the original's math/random_walk.rs constants.
const (
	randomWalkAbsoluteErrorLimit = 1e-40
	randomWalkNegligibleLimit    = 1e-80
	randomWalkRelativeErrorLimit = 1e-8
)

// computeRandomWalkProb is the adaptive upper bound on the probability
// that an adversary with share b = advPercent/100 ever overtakes a lead
// of k blocks, spec §4.9's compute_random_walk_prob. It sums exact
// per-term tilted-exponential bounds exp(n*g(s*,b) - k*s*) for n >= k+1,
// checking an asymptotic geometric-tail estimate every 10 iterations
// until the remaining tail is provably below the configured error
// bounds.
func computeRandomWalkProb(k, advPercent int) float64 {
	b := float64(advPercent) / 100.0
	if k == 0 {
		return 0
	}

	sInf := minSInf(b)
	r := geometricRatio(b)
	sum := 0.0
	currentN := int64(k) + 1
	kk := int64(k)

	for {
		sum += termExact(currentN, kk, b)
		if sum >= 1.0 {
			return 1.0
		}

		currentN++
		if currentN%10 != 0 {
			continue
		}

		approxNext := termInfApprox(currentN, kk, b, sInf)
		accurateNext := termExact(currentN, kk, b)

		relativeError := (approxNext - accurateNext) / approxNext

		sumRemaining := approxNext / (1.0 - r)
		sumError := sumRemaining * relativeError

		if sumError > randomWalkAbsoluteErrorLimit {
			continue
		}
		if sum+sumRemaining < randomWalkNegligibleLimit {
			return 0.0
		}
		if sumError > (sum+sumRemaining)*randomWalkRelativeErrorLimit {
			continue
		}
		return math.Min(sum+sumRemaining, 1.0)
	}
}

// g(s,b) = ln(b*e^s + (1-b)*e^-s), the random walk's log moment
// generating function.
func gFunc(s, b float64) float64 {
	return math.Log(b*math.Exp(s) + (1-b)*math.Exp(-s))
}

// logProb(n,k,b,s) = n*g(s,b) - k*s.
func logProb(n, k int64, b, s float64) float64 {
	return float64(n)*gFunc(s, b) - float64(k)*s
}

// minS is the optimal tilt s* minimizing the Chernoff bound at (n,k,b):
// 0.5*ln[(1-b)(k+n) / (b(n-k))].
func minS(n, k int64, b float64) float64 {
	numerator := (1 - b) * float64(k+n)
	denominator := b * float64(n-k)
	return 0.5 * math.Log(numerator/denominator)
}

// minSInf is the n -> infinity limit of minS: 0.5*ln((1-b)/b).
func minSInf(b float64) float64 {
	return 0.5 * math.Log((1-b)/b)
}

func termExact(n, k int64, b float64) float64 {
	sOpt := minS(n, k, b)
	return math.Min(math.Exp(logProb(n, k, b, sOpt)), 1.0)
}

func termInfApprox(n, k int64, b, sInf float64) float64 {
	return math.Min(math.Exp(logProb(n, k, b, sInf)), 1.0)
}

// geometricRatio is the tail's asymptotic common ratio r = 2*sqrt(b(1-b)).
func geometricRatio(b float64) float64 {
	return 2.0 * math.Sqrt(b*(1-b))
}
