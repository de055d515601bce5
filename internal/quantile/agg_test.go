package quantile

import (
	"math"
	"testing"
)

func TestExactAggScenario1(t *testing.T) {
	// Two hosts, one block, event "Sync": [10.0, 20.0] and [15.0].
	agg := NewExact()
	for _, v := range []float64{10.0, 20.0, 15.0} {
		agg.Add(v)
	}

	if got := agg.Count(); got != 3 {
		t.Fatalf("Count = %d, want 3", got)
	}
	if got := agg.Query(Avg); got != 15.00 {
		t.Fatalf("Avg = %v, want 15.00", got)
	}
	if got := agg.Query(Min); got != 10 {
		t.Fatalf("Min = %v, want 10", got)
	}
	if got := agg.Query(P50); got != 15 {
		t.Fatalf("P50 = %v, want 15", got)
	}
	if got := agg.Query(Max); got != 20 {
		t.Fatalf("Max = %v, want 20", got)
	}
}

func TestAggDropsNaN(t *testing.T) {
	agg := NewExact()
	agg.Add(1)
	agg.Add(math.NaN())
	agg.Add(3)
	if got := agg.Count(); got != 2 {
		t.Fatalf("Count = %d, want 2 (NaN must be dropped)", got)
	}
}

func TestEmptyAggIsAllNaN(t *testing.T) {
	agg := NewExact()
	for _, p := range AllPercentiles {
		if got := agg.Query(p); !math.IsNaN(got) {
			t.Fatalf("Query(%v) on empty agg = %v, want NaN", p.Column(), got)
		}
	}
}

func TestQuantileInvariantMinMaxBounds(t *testing.T) {
	values := []float64{5, 1, 9, 3, 7, 2, 8, 4, 6, 0}
	agg := NewExact()
	for _, v := range values {
		agg.Add(v)
	}
	min, max := agg.Query(Min), agg.Query(Max)
	for _, p := range AllPercentiles {
		if !p.IsQuantile() {
			continue
		}
		got := agg.Query(p)
		if got < min || got > max {
			t.Fatalf("Query(%s) = %v out of [%v, %v]", p.Column(), got, min, max)
		}
	}
}

func TestTDigestAgreesWithExactInUpperTail(t *testing.T) {
	const n = 5000
	exact := NewExact()
	approx := NewTDigest(n)
	for i := 0; i < n; i++ {
		v := float64(i)
		exact.Add(v)
		approx.Add(v)
	}

	for _, p := range []NodePercentile{P90, P95, P99} {
		want := exact.Query(p)
		got := approx.Query(p)
		if math.Abs(want-got) > 1e-9 {
			t.Fatalf("%s: tdigest = %v, exact = %v; want agreement via top-K heap", p.Column(), got, want)
		}
	}
}

func TestTDigestBoundedByMinMax(t *testing.T) {
	agg := NewTDigest(100)
	for i := 0; i < 3000; i++ {
		agg.Add(float64(i % 997))
	}
	min, max := agg.Query(Min), agg.Query(Max)
	for _, p := range []NodePercentile{P10, P30, P50, P80, P90} {
		got := agg.Query(p)
		if got < min || got > max {
			t.Fatalf("tdigest %s = %v out of [%v, %v]", p.Column(), got, min, max)
		}
	}
}

func TestMergePermutationInvariance(t *testing.T) {
	a := NewExact()
	for _, v := range []float64{3, 1, 4, 1, 5, 9, 2, 6} {
		a.Add(v)
	}
	b := NewExact()
	for _, v := range []float64{9, 2, 6, 3, 1, 4, 1, 5} {
		b.Add(v)
	}

	if a.Count() != b.Count() || a.sum != b.sum || a.min != b.min || a.max != b.max {
		t.Fatalf("count/sum/min/max differ across permutations")
	}
	for _, p := range AllPercentiles {
		if a.Query(p) != b.Query(p) {
			t.Fatalf("Query(%s) differs across permutations: %v vs %v", p.Column(), a.Query(p), b.Query(p))
		}
	}
}
