package quantile

import (
	"math"
	"sort"
)

// centroid is one cluster of the t-digest: a weighted mean.
type centroid struct {
	mean   float64
	weight float64
}

// tdigest is an incremental t-digest approximation of a distribution,
// following the asin-scale-function construction used by the teacher
// pack's internal/percentile.TDigest (SnellerInc/sneller): centroids are
// kept sorted by mean, and a scale function bounds how much weight a
// centroid near the tails may absorb versus one in the middle of the
// distribution, so resolution concentrates where quantile queries are
// most sensitive.
//
// Unlike the Sneller implementation, which batches additions through a
// fixed 48-lane SIMD-shaped compression routine, this version absorbs one
// sample at a time into a pending buffer and compresses every 1024
// samples per spec §4.1, since there is no vectorized batch to amortize
// the compression cost over here.
type tdigest struct {
	centroids   []centroid
	totalWeight float64
	min, max    float64
	compression int
	pending     []centroid
}

func newTDigest(compression int) *tdigest {
	return &tdigest{
		compression: compression,
		min:         math.Inf(1),
		max:         math.Inf(-1),
	}
}

func (t *tdigest) add(v float64) {
	if v < t.min {
		t.min = v
	}
	if v > t.max {
		t.max = v
	}
	t.pending = append(t.pending, centroid{mean: v, weight: 1})
	t.totalWeight++
	if len(t.pending) >= 1024 {
		t.compress()
	}
}

// compress merges the pending raw samples into the sorted centroid list
// and re-clusters under the k1 scale function, bounding the result to
// roughly t.compression centroids.
func (t *tdigest) compress() {
	if len(t.pending) == 0 {
		return
	}
	merged := make([]centroid, 0, len(t.centroids)+len(t.pending))
	merged = append(merged, t.centroids...)
	merged = append(merged, t.pending...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].mean < merged[j].mean })
	t.pending = t.pending[:0]

	if len(merged) <= t.compression {
		t.centroids = merged
		return
	}

	total := t.totalWeight
	compression := float64(t.compression)

	out := make([]centroid, 0, t.compression+1)
	cur := merged[0]
	weightSoFar := 0.0
	k0 := scaleFunction(0, compression)

	for i := 1; i < len(merged); i++ {
		next := merged[i]
		projectedWeight := weightSoFar + cur.weight + next.weight
		q := projectedWeight / total
		k1 := scaleFunction(q, compression)
		if k1-k0 <= 1 {
			combinedWeight := cur.weight + next.weight
			cur = centroid{
				mean:   (cur.mean*cur.weight + next.mean*next.weight) / combinedWeight,
				weight: combinedWeight,
			}
		} else {
			weightSoFar += cur.weight
			out = append(out, cur)
			k0 = scaleFunction(weightSoFar/total, compression)
			cur = next
		}
	}
	out = append(out, cur)
	t.centroids = out
}

// scaleFunction is the k1 scale used by the canonical t-digest: it maps a
// cumulative-weight fraction q to a compressed index space via
// arcsin(2q-1), concentrating resolution near q=0 and q=1.
func scaleFunction(q, compression float64) float64 {
	return compression / (2 * math.Pi) * math.Asin(2*q-1)
}

// percentile answers a single quantile query against the digest,
// following the cumulative-weight / weighted-average interpolation from
// the Sneller implementation's Percentiles method.
func (t *tdigest) percentile(q float64) float64 {
	t.compress()
	n := len(t.centroids)
	switch {
	case n == 0 || q < 0 || q > 1:
		return math.NaN()
	case n == 1:
		return t.centroids[0].mean
	case q == 0:
		return t.min
	case q == 1:
		return t.max
	}

	cumulative := make([]float64, n+1)
	sumWeight := 0.0
	for i, c := range t.centroids {
		cumulative[i] = sumWeight + c.weight/2
		sumWeight += c.weight
	}
	cumulative[n] = sumWeight

	index := q * t.totalWeight
	if index <= t.centroids[0].weight/2 {
		return t.min + (2*index/t.centroids[0].weight)*(t.centroids[0].mean-t.min)
	}

	lower := sort.Search(n+1, func(i int) bool { return cumulative[i] >= index })
	if lower+1 < n+1 {
		z1 := index - cumulative[lower-1]
		z2 := cumulative[lower] - index
		return weightedAverage(t.centroids[lower-1].mean, z2, t.centroids[lower].mean, z1)
	}
	lastWeight := t.centroids[n-1].weight / 2
	w1 := index - (t.totalWeight - lastWeight)
	w2 := lastWeight - w1
	return weightedAverage(t.centroids[n-1].mean, w1, t.max, w2)
}

func weightedAverage(mean1, weight1, mean2, weight2 float64) float64 {
	if mean1 <= mean2 {
		return weightedAverageSorted(mean1, weight1, mean2, weight2)
	}
	return weightedAverageSorted(mean2, weight2, mean1, weight1)
}

func weightedAverageSorted(m1, w1, m2, w2 float64) float64 {
	x := (m1*w1 + m2*w2) / (w1 + w2)
	return math.Max(m1, math.Min(x, m2))
}
