package treegraph

import (
	"reflect"
	"testing"
)

func TestNewTimeSeriesListDedup(t *testing.T) {
	input := []struct {
		Timestamp uint64
		Value     string
	}{
		{3, "a"}, {1, "b"}, {2, "c"}, {1, "d"},
	}
	resolve := func(values []string) string { return values[len(values)-1] }
	ts := NewTimeSeriesList(input, resolve)

	if ts.start != 1 {
		t.Fatalf("start = %d, want 1", ts.start)
	}
	want := []point[string]{{offset: 0, value: "d"}, {offset: 1, value: "c"}, {offset: 2, value: "a"}}
	if !reflect.DeepEqual(ts.series, want) {
		t.Fatalf("series = %+v, want %+v", ts.series, want)
	}
}

func TestNewTimeSeriesListAllSameTimestamp(t *testing.T) {
	input := []struct {
		Timestamp uint64
		Value     string
	}{
		{1, "a"}, {1, "b"}, {1, "c"},
	}
	resolve := func(values []string) string { return values[len(values)-1] }
	ts := NewTimeSeriesList(input, resolve)

	if ts.start != 1 {
		t.Fatalf("start = %d, want 1", ts.start)
	}
	want := []point[string]{{offset: 0, value: "c"}}
	if !reflect.DeepEqual(ts.series, want) {
		t.Fatalf("series = %+v, want %+v", ts.series, want)
	}
}

func TestNewTimeSeriesSinglePoint(t *testing.T) {
	ts := NewTimeSeries(5, "x")
	if ts.start != 5 {
		t.Fatalf("start = %d, want 5", ts.start)
	}
	want := []point[string]{{offset: 0, value: "x"}}
	if !reflect.DeepEqual(ts.series, want) {
		t.Fatalf("series = %+v, want %+v", ts.series, want)
	}
}

func TestUnionTimeSeries(t *testing.T) {
	a := &TimeSeries[string]{start: 0, series: []point[string]{
		{offset: 0, value: "a0"}, {offset: 2, value: "a2"}, {offset: 4, value: "a4"},
	}}
	b := &TimeSeries[string]{start: 1, series: []point[string]{
		{offset: 0, value: "b1"}, {offset: 1, value: "b2"}, {offset: 2, value: "b3"},
	}}
	resolve := func(x, y string) string { return x + "," + y }
	union := UnionTimeSeries(a, b, resolve)

	if union.start != 0 {
		t.Fatalf("start = %d, want 0", union.start)
	}
	want := []point[string]{
		{offset: 0, value: "a0"},
		{offset: 1, value: "b1"},
		{offset: 2, value: "a2,b2"},
		{offset: 3, value: "b3"},
		{offset: 4, value: "a4"},
	}
	if !reflect.DeepEqual(union.series, want) {
		t.Fatalf("series = %+v, want %+v", union.series, want)
	}
}

func TestUnionTimeSeriesSameStart(t *testing.T) {
	a := &TimeSeries[string]{start: 0, series: []point[string]{
		{offset: 0, value: "a0"}, {offset: 1, value: "a1"},
	}}
	b := &TimeSeries[string]{start: 0, series: []point[string]{
		{offset: 0, value: "b0"}, {offset: 2, value: "b2"},
	}}
	resolve := func(x, y string) string { return x + "," + y }
	union := UnionTimeSeries(a, b, resolve)

	if union.start != 0 {
		t.Fatalf("start = %d, want 0", union.start)
	}
	want := []point[string]{
		{offset: 0, value: "a0,b0"},
		{offset: 1, value: "a1"},
		{offset: 2, value: "b2"},
	}
	if !reflect.DeepEqual(union.series, want) {
		t.Fatalf("series = %+v, want %+v", union.series, want)
	}
}

func TestTupleCartesianMapSum(t *testing.T) {
	a := &TimeSeries[int]{start: 0, series: []point[int]{
		{offset: 0, value: 10}, {offset: 2, value: 20}, {offset: 4, value: 40},
		{offset: 5, value: 50}, {offset: 6, value: 60}, {offset: 7, value: 70},
	}}
	b := &TimeSeries[int]{start: 1, series: []point[int]{
		{offset: 0, value: 100}, {offset: 2, value: 300}, {offset: 4, value: 500},
	}}
	combine := func(x, y *int) *int {
		if x == nil || y == nil {
			return nil
		}
		sum := *x + *y
		return &sum
	}
	result := TupleCartesianMap(a, b, combine)
	result.Reduce()

	if result.start != 1 {
		t.Fatalf("start = %d, want 1", result.start)
	}
	want := []point[int]{
		{offset: 0, value: 110},
		{offset: 1, value: 120},
		{offset: 2, value: 320},
		{offset: 3, value: 340},
		{offset: 4, value: 550},
		{offset: 5, value: 560},
		{offset: 6, value: 570},
	}
	if !reflect.DeepEqual(result.series, want) {
		t.Fatalf("series = %+v, want %+v", result.series, want)
	}
}

func TestMapTimeSeriesDoubles(t *testing.T) {
	ts := &TimeSeries[int]{start: 0, series: []point[int]{
		{offset: 0, value: 1}, {offset: 1, value: 2}, {offset: 2, value: 3},
	}}
	mapped := MapTimeSeries(ts, func(x int) int { return x * 2 })

	if mapped.start != 0 {
		t.Fatalf("start = %d, want 0", mapped.start)
	}
	want := []point[int]{{offset: 0, value: 2}, {offset: 1, value: 4}, {offset: 2, value: 6}}
	if !reflect.DeepEqual(mapped.series, want) {
		t.Fatalf("series = %+v, want %+v", mapped.series, want)
	}
}

func TestReduceWithDuplicates(t *testing.T) {
	ts := &TimeSeries[string]{start: 1000, series: []point[string]{
		{offset: 10, value: "value1"},
		{offset: 20, value: "value2"},
		{offset: 30, value: "value2"},
		{offset: 40, value: "value3"},
		{offset: 50, value: "value1"},
	}}
	ts.Reduce()

	if ts.start != 1010 {
		t.Fatalf("start = %d, want 1010", ts.start)
	}
	want := []point[string]{
		{offset: 0, value: "value1"},
		{offset: 10, value: "value2"},
		{offset: 30, value: "value3"},
		{offset: 40, value: "value1"},
	}
	if !reflect.DeepEqual(ts.series, want) {
		t.Fatalf("series = %+v, want %+v", ts.series, want)
	}
}

func TestReduceWithoutDuplicates(t *testing.T) {
	ts := &TimeSeries[int]{start: 500, series: []point[int]{
		{offset: 5, value: 10}, {offset: 15, value: 20}, {offset: 25, value: 30},
	}}
	ts.Reduce()

	if ts.start != 505 {
		t.Fatalf("start = %d, want 505", ts.start)
	}
	want := []point[int]{{offset: 0, value: 10}, {offset: 10, value: 20}, {offset: 20, value: 30}}
	if !reflect.DeepEqual(ts.series, want) {
		t.Fatalf("series = %+v, want %+v", ts.series, want)
	}
}

func TestTimeSeriesAt(t *testing.T) {
	ts := &TimeSeries[int]{start: 10, series: []point[int]{
		{offset: 0, value: 1}, {offset: 5, value: 2}, {offset: 9, value: 3},
	}}

	if _, ok := ts.At(5); ok {
		t.Fatalf("At(5) should be absent (before start)")
	}
	if v, ok := ts.At(10); !ok || v != 1 {
		t.Fatalf("At(10) = (%v, %v), want (1, true)", v, ok)
	}
	if v, ok := ts.At(14); !ok || v != 1 {
		t.Fatalf("At(14) = (%v, %v), want (1, true)", v, ok)
	}
	if v, ok := ts.At(100); !ok || v != 3 {
		t.Fatalf("At(100) = (%v, %v), want (3, true)", v, ok)
	}
}
