package treegraph

import (
	"math"

	"gonum.org/v1/gonum/mathext"
)

// negativeBinomial is the (r, p) distribution over the number of
// dishonest blocks mined before the (r = m+1)-th honest block, ported
// from the original's use of statrs::distribution::NegativeBinomial in
// math/mod.rs and math/hidden_malicious_blocks.rs. p is the honest
// mining share, i.e. the probability of a "success" trial.
type negativeBinomial struct {
	r float64
	p float64
}

func newNegativeBinomial(m, advPercent int) negativeBinomial {
	return negativeBinomial{r: float64(m) + 1, p: 1 - float64(advPercent)/100.0}
}

// pmf computes P(X = k) = C(k+r-1, k) p^r (1-p)^k via the log-gamma
// identity C(k+r-1, k) = Gamma(k+r) / (Gamma(r) * k!), matching statrs'
// NegativeBinomial::pmf.
func (nb negativeBinomial) pmf(k int) float64 {
	kf := float64(k)
	logCoeff, _ := math.Lgamma(kf + nb.r)
	lgR, _ := math.Lgamma(nb.r)
	lgK1, _ := math.Lgamma(kf + 1)
	logPmf := logCoeff - lgR - lgK1 + nb.r*math.Log(nb.p) + kf*math.Log(1-nb.p)
	return math.Exp(logPmf)
}

// sf computes the survival function P(X > k) = I_(1-p)(k+1, r), the
// regularized incomplete beta function, matching the identity the
// original exercises directly in compute_hidden_malicious_blocks_prob
// (beta_reg(k, r, 1-success_prob)) and relies on implicitly through
// statrs' NegativeBinomial::sf in normal_confirmation_risk.
func (nb negativeBinomial) sf(k int) float64 {
	return mathext.RegIncBeta(float64(k)+1, nb.r, 1-nb.p)
}
